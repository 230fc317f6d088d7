// Command podium-report loads a placement dataset once and prints the
// leaderboard, podium or history as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/podium/internal/adapters/source"
	"github.com/okian/podium/internal/domain/assets"
	"github.com/okian/podium/internal/domain/medals"
	"github.com/okian/podium/internal/domain/podium"
	"github.com/okian/podium/pkg/logger"
)

var errUsage = errors.New("usage")

type options struct {
	records      string
	assets       string
	format       string
	assetsFormat string
	sheet        string
	view         string
	limit        int
	timeout      time.Duration
	logLevel     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("podium-report", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.records, "records", "", "placement dataset: file path or http(s) URL (required)")
	fs.StringVar(&o.assets, "assets", "", "optional name→image dataset: file path or http(s) URL")
	fs.StringVar(&o.format, "format", "", "records format: json, csv, xlsx, html (default: detect)")
	fs.StringVar(&o.assetsFormat, "assets-format", "", "assets format (default: detect)")
	fs.StringVar(&o.sheet, "sheet", "", "xlsx worksheet name (default: first)")
	fs.StringVar(&o.view, "view", "leaderboard", "leaderboard, podium or history")
	fs.IntVar(&o.limit, "limit", 0, "max leaderboard rows, 0 for all")
	fs.DurationVar(&o.timeout, "timeout", 30*time.Second, "fetch timeout")
	fs.StringVar(&o.logLevel, "log-level", "warn", "debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.records == "" {
		fs.Usage()
		return o, fmt.Errorf("%w: -records is required", errUsage)
	}
	switch o.view {
	case "leaderboard", "podium", "history":
	default:
		return o, fmt.Errorf("%w: unknown view %q", errUsage, o.view)
	}
	if o.limit < 0 {
		return o, fmt.Errorf("%w: -limit must not be negative", errUsage)
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			os.Stderr.WriteString("podium-report: " + err.Error() + "\n")
		}
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(o.logLevel); err != nil {
		return err
	}
	log := logger.Named("report")

	recordsFormat, err := source.ParseFormat(o.format)
	if err != nil {
		return err
	}
	assetsFormat, err := source.ParseFormat(o.assetsFormat)
	if err != nil {
		return err
	}
	loader := source.NewLoader(
		source.WithTimeout(o.timeout),
		source.WithRecordsFormat(recordsFormat),
		source.WithAssetsFormat(assetsFormat),
		source.WithSheet(o.sheet),
	)

	records, err := loader.Records(ctx, o.records)
	if err != nil {
		return err
	}
	src := assets.Empty()
	if o.assets != "" {
		if src, err = loader.Assets(ctx, o.assets); err != nil {
			log.Warn(ctx, "coach images unavailable", logger.Error(err))
			src = assets.Empty()
		}
	}

	res, err := podium.Compute(records, src, podium.Options{AssetKeys: assets.DefaultKeys()})
	if err != nil {
		return err
	}
	log.Info(ctx, "dataset loaded",
		logger.Int("records", res.Records),
		logger.Int("competitors", len(res.Leaderboard)),
		logger.Int("seasons", res.Seasons),
	)

	var out any
	switch o.view {
	case "podium":
		out = medals.Podium(res.Leaderboard)
	case "history":
		out = struct {
			Seasons    int `json:"seasons"`
			Placements any `json:"placements"`
		}{res.Seasons, res.History}
	default:
		rows := res.Leaderboard
		if o.limit > 0 && o.limit < len(rows) {
			rows = rows[:o.limit]
		}
		out = rows
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
