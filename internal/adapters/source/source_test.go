package source_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/assets"
)

func TestDecodeJSONRecords(t *testing.T) {
	Convey("Given JSON placement payloads", t, func() {
		Convey("An array of objects decodes in order with exact numbers", func() {
			recs, err := source.DecodeJSONRecords(strings.NewReader(
				`[{"Stagione":"2021/22","Posizione":1},{"Stagione":"2022/23","Posizione":"2°"}]`))
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 2)
			So(recs[0]["Stagione"], ShouldEqual, "2021/22")
			So(recs[0]["Posizione"].(interface{ String() string }).String(), ShouldEqual, "1")
			So(recs[1]["Posizione"], ShouldEqual, "2°")
		})

		Convey("A non-array payload is an empty batch", func() {
			recs, err := source.DecodeJSONRecords(strings.NewReader(`{"error":"quota"}`))
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)

			recs, err = source.DecodeJSONRecords(strings.NewReader(``))
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})

		Convey("An array holding a non-object fails", func() {
			_, err := source.DecodeJSONRecords(strings.NewReader(`[{"a":1}, 7]`))
			So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
		})

		Convey("Malformed JSON fails", func() {
			_, err := source.DecodeJSONRecords(strings.NewReader(`[{"a":`))
			So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
		})
	})
}

func TestDecodeTabular(t *testing.T) {
	Convey("Given a CSV export with a BOM and ragged rows", t, func() {
		csv := "\ufeffSeason,Position,Coach,Team\n" +
			"2021,1,Mario Rossi,Lupi\n" +
			"2021,2,Luca\n" +
			",,,\n"

		recs, err := source.DecodeCSV(strings.NewReader(csv))

		So(err, ShouldBeNil)
		So(recs, ShouldHaveLength, 2)
		So(recs[0]["Season"], ShouldEqual, "2021")
		So(recs[0]["Coach"], ShouldEqual, "Mario Rossi")
		So(recs[1]["Team"], ShouldBeNil)
	})

	Convey("Given a published HTML table", t, func() {
		Convey("Headers come from thead", func() {
			html := `<html><body><table>
<thead><tr><th>Anno</th><th>Rank</th><th>Manager</th><th>Club</th></tr></thead>
<tbody><tr><td>2020</td><td>3</td><td> Zoë </td><td>Orsi</td></tr></tbody>
</table><table><tr><td>ignored</td></tr></table></body></html>`

			recs, err := source.DecodeHTML(strings.NewReader(html))

			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(recs[0]["Manager"], ShouldEqual, "Zoë")
			So(recs[0]["Rank"], ShouldEqual, "3")
		})

		Convey("Without thead the first row is the header", func() {
			html := `<table><tr><td>Year</td><td>Placement</td></tr><tr><td>2019</td><td>1</td></tr></table>`

			recs, err := source.DecodeHTML(strings.NewReader(html))

			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(recs[0]["Placement"], ShouldEqual, "1")
		})

		Convey("A page without a table is an empty batch", func() {
			recs, err := source.DecodeHTML(strings.NewReader(`<p>nothing</p>`))
			So(err, ShouldBeNil)
			So(recs, ShouldBeEmpty)
		})
	})

	Convey("Given an xlsx workbook", t, func() {
		payload := workbook(t, "Podio", [][]any{
			{"Stagione", "Posizione", "Allenatore", "Squadra"},
			{"2022/23", 1, "Anna Bianchi", "Falchi"},
		})

		Convey("The first sheet is read by default", func() {
			recs, err := source.DecodeXLSX(bytes.NewReader(payload), "")
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(recs[0]["Allenatore"], ShouldEqual, "Anna Bianchi")
			So(recs[0]["Posizione"], ShouldEqual, "1")
		})

		Convey("A missing sheet fails", func() {
			_, err := source.DecodeXLSX(bytes.NewReader(payload), "Nope")
			So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
		})
	})
}

func TestLoader(t *testing.T) {
	Convey("Given a loader against an HTTP endpoint", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch {
			case r.Header.Get("User-Agent") != "podium-test":
				w.WriteHeader(http.StatusForbidden)
			case r.URL.Query().Get("action") == "images":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"Mario Rossi":"https://img/m.png","Anna":{"url":"https://img/a.png"}}`))
			case r.URL.Path == "/broken":
				w.WriteHeader(http.StatusInternalServerError)
			case r.URL.Path == "/sheet":
				w.Header().Set("Content-Type", "text/csv; charset=utf-8")
				_, _ = w.Write([]byte("Season,Position,Coach,Team\n2021,1,Mario Rossi,Lupi\n"))
			default:
				_, _ = w.Write([]byte(`[{"Season":2021,"Position":1,"Coach":"Mario","Team":"Lupi"}]`))
			}
		}))
		defer srv.Close()

		loader := source.NewLoader(source.WithUserAgent("podium-test"), source.WithTimeout(5*time.Second))
		ctx := context.Background()

		Convey("Content-Type selects the decoder", func() {
			recs, err := loader.Records(ctx, srv.URL+"/sheet")
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
			So(recs[0]["Coach"], ShouldEqual, "Mario Rossi")
		})

		Convey("Untyped responses default to JSON", func() {
			recs, err := loader.Records(ctx, srv.URL+"/exec")
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 1)
		})

		Convey("Assets keep their map shape", func() {
			src, err := loader.Assets(ctx, srv.URL+"/exec?action=images")
			So(err, ShouldBeNil)
			So(src.Shape(), ShouldEqual, assets.ShapeMap)
			So(src.Len(), ShouldEqual, 2)
		})

		Convey("Non-2xx responses are fetch errors", func() {
			_, err := loader.Records(ctx, srv.URL+"/broken")
			So(errors.Is(err, source.ErrFetch), ShouldBeTrue)

			_, err = loader.Assets(ctx, srv.URL+"/broken")
			So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
		})
	})

	Convey("Given a loader against local files", t, func() {
		dir := t.TempDir()
		ctx := context.Background()

		Convey("The extension selects the decoder", func() {
			p := filepath.Join(dir, "placements.csv")
			So(os.WriteFile(p, []byte("Year,Rank,Coach,Club\n2020,2,Zoë,Orsi\n"), 0o600), ShouldBeNil)

			recs, err := source.NewLoader().Records(ctx, p)
			So(err, ShouldBeNil)
			So(recs[0]["Club"], ShouldEqual, "Orsi")
		})

		Convey("A forced format overrides the extension", func() {
			p := filepath.Join(dir, "export.txt")
			So(os.WriteFile(p, []byte("Name,Image\nZoë,https://img/z.png\n"), 0o600), ShouldBeNil)

			src, err := source.NewLoader(source.WithAssetsFormat(source.FormatCSV)).Assets(ctx, p)
			So(err, ShouldBeNil)
			So(src.Shape(), ShouldEqual, assets.ShapeList)
			So(src.Len(), ShouldEqual, 1)
		})

		Convey("A missing file is a fetch error", func() {
			_, err := source.NewLoader().Records(ctx, filepath.Join(dir, "none.json"))
			So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
		})

		Convey("An empty location is rejected", func() {
			_, err := source.NewLoader().Records(ctx, "  ")
			So(errors.Is(err, source.ErrEmptyLocation), ShouldBeTrue)
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given configured format names", t, func() {
		for in, want := range map[string]source.Format{
			"":      source.FormatAuto,
			"JSON":  source.FormatJSON,
			" csv ": source.FormatCSV,
			"xlsx":  source.FormatXLSX,
			"htm":   source.FormatHTML,
		} {
			got, err := source.ParseFormat(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := source.ParseFormat("parquet")
		So(errors.Is(err, source.ErrUnsupportedFormat), ShouldBeTrue)
	})
}

func workbook(t *testing.T, sheet string, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
