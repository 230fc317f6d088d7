package source

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"github.com/okian/podium/internal/domain/model"
)

// DecodeJSONRecords reads a JSON array of objects. A payload that is not an
// array carries no placements and yields an empty batch. Numbers are kept as
// json.Number so integer-looking values stay exact.
func DecodeJSONRecords(r io.Reader) ([]model.RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.RawRecord{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	items, ok := payload.([]any)
	if !ok {
		return []model.RawRecord{}, nil
	}

	out := make([]model.RawRecord, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is %T, want object", ErrDecode, i, item)
		}
		out = append(out, model.RawRecord(obj))
	}
	return out, nil
}

// DecodeCSV reads comma separated rows; the first row names the keys.
func DecodeCSV(r io.Reader) ([]model.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %w", ErrDecode, err)
	}
	return fromRows(rows), nil
}

// DecodeXLSX reads one worksheet of a workbook; the first row names the keys.
// An empty sheet name selects the first worksheet.
func DecodeXLSX(r io.Reader, sheet string) ([]model.RawRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %w", ErrDecode, err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return []model.RawRecord{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %q: %w", ErrDecode, sheet, err)
	}
	return fromRows(rows), nil
}

// DecodeHTML reads the first <table> of a published sheet. Header cells come
// from <thead>, else from the first row.
func DecodeHTML(r io.Reader) ([]model.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: html: %w", ErrDecode, err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return []model.RawRecord{}, nil
	}

	var rows [][]string
	if head := table.Find("thead tr").First(); head.Length() > 0 {
		rows = append(rows, cellTexts(head))
	}
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if tr.ParentsFiltered("thead").Length() > 0 {
			return
		}
		rows = append(rows, cellTexts(tr))
	})
	return fromRows(rows), nil
}

func cellTexts(tr *goquery.Selection) []string {
	var cells []string
	tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
		cells = append(cells, strings.TrimSpace(c.Text()))
	})
	return cells
}

// fromRows turns a header row plus data rows into records. Columns with a
// blank header and rows with no content are dropped.
func fromRows(rows [][]string) []model.RawRecord {
	if len(rows) == 0 {
		return []model.RawRecord{}
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	out := make([]model.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(model.RawRecord, len(header))
		blank := true
		for i, key := range header {
			if key == "" {
				continue
			}
			if i >= len(row) {
				rec[key] = nil
				continue
			}
			rec[key] = row[i]
			if strings.TrimSpace(row[i]) != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		out = append(out, rec)
	}
	return out
}
