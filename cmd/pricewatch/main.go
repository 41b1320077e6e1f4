// Command pricewatch monitors storefront vendor prices.
//
// Usage:
//
//	pricewatch -config pricewatch.yaml -daemon     # scheduled updates + MCP stdio
//	pricewatch -config pricewatch.yaml -run        # one batch update, then exit
//	pricewatch -config pricewatch.yaml -vendors    # list monitored vendors
//	pricewatch -survey https://example.com/v/x     # classify page elements
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/pricewatch/browser"
	"github.com/hazyhaar/pricewatch/dbopen"
	"github.com/hazyhaar/pricewatch/extract"
	"github.com/hazyhaar/pricewatch/store"
	"github.com/hazyhaar/pricewatch/survey"
	"github.com/hazyhaar/pricewatch/updater"
)

func main() {
	configPath := flag.String("config", "", "path to pricewatch.yaml")
	daemon := flag.Bool("daemon", false, "run the schedule trigger and MCP stdio server")
	runOnce := flag.Bool("run", false, "run one batch update and exit")
	runIDs := flag.String("ids", "", "comma-separated vendor IDs restricting -run")
	vendors := flag.Bool("vendors", false, "list monitored vendors and exit")
	surveyURL := flag.String("survey", "", "survey a single page and print the classification")
	surveyShot := flag.String("screenshot", "", "write a page screenshot to this file in -survey mode")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *daemon, *runOnce, *runIDs, *vendors, *surveyURL, *surveyShot); err != nil {
		logger.Error("pricewatch: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, daemon, runOnce bool, runIDs string, vendors bool, surveyURL, surveyShot string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if surveyURL != "" {
		return runSurvey(ctx, logger, cfg, surveyURL, surveyShot)
	}

	var dbOpts []dbopen.Option
	if cfg.DBBusyTimeoutMS > 0 {
		dbOpts = append(dbOpts, dbopen.WithBusyTimeout(cfg.DBBusyTimeoutMS))
	}
	st, err := store.Open(cfg.DBPath, dbOpts...)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if vendors {
		return listVendors(ctx, st)
	}

	session := browser.New(browser.Config{
		RemoteURL:         cfg.RemoteBrowser,
		StartPage:         cfg.StartPage,
		UserAgent:         cfg.UserAgent,
		MaxCreateAttempts: cfg.Updater.RetryAttempts,
		Logger:            logger,
	})
	defer session.Close()

	// Live probing lets the survey fallback confirm candidates against the
	// page the extractor already has in hand.
	classifier := survey.NewClassifier(logger, survey.WithLiveProbing())
	extractor := extract.NewExtractor(session, classifier, cfg.Extract, logger)
	orch := updater.New(st, extractor, cfg.Updater, logger)

	if runOnce {
		var ids []string
		if runIDs != "" {
			ids = strings.Split(runIDs, ",")
		}
		sess, err := orch.Run(ctx, ids...)
		if err != nil {
			return err
		}
		return printJSON(sess)
	}

	if daemon {
		return runDaemon(ctx, logger, cfg, orch)
	}

	fmt.Fprintln(os.Stderr, "usage: pricewatch -daemon | -run | -vendors | -survey <url>")
	os.Exit(2)
	return nil
}

// runDaemon serves MCP over stdio and fires scheduled runs until the
// process is signalled.
func runDaemon(ctx context.Context, logger *slog.Logger, cfg *appConfig, orch *updater.Orchestrator) error {
	trigger := updater.NewTrigger(orch, cfg.Updater, logger)
	go trigger.Run(ctx)

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "pricewatch",
		Version: "1.0.0",
	}, nil)
	orch.RegisterMCP(srv)

	logger.Info("pricewatch: daemon started",
		"schedule_enabled", cfg.Updater.Enabled, "db", cfg.DBPath)

	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

// runSurvey classifies one page and prints the result. Diagnostic mode
// for tuning selectors against a storefront; shotPath optionally saves a
// screenshot of the surveyed page.
func runSurvey(ctx context.Context, logger *slog.Logger, cfg *appConfig, url, shotPath string) error {
	session := browser.New(browser.Config{
		RemoteURL: cfg.RemoteBrowser,
		StartPage: cfg.StartPage,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	})
	defer session.Close()

	page, err := session.Navigate(ctx, url)
	if err != nil {
		return err
	}

	opts := []survey.Option{survey.WithLiveProbing()}
	if shotPath != "" {
		opts = append(opts, survey.WithScreenshot())
	}
	classifier := survey.NewClassifier(logger, opts...)
	res, err := classifier.Survey(ctx, page)
	if err != nil {
		return err
	}

	if shotPath != "" && len(res.Screenshot) > 0 {
		if err := os.WriteFile(shotPath, res.Screenshot, 0o644); err != nil {
			return fmt.Errorf("write screenshot: %w", err)
		}
		logger.Info("pricewatch: screenshot saved", "path", shotPath)
	}
	return printJSON(res)
}

func listVendors(ctx context.Context, st *store.Store) error {
	vendors, err := st.ListVendors(ctx, false)
	if err != nil {
		return err
	}
	return printJSON(vendors)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
