package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"changerisk/internal/configuration"
	"changerisk/internal/logging"
	"changerisk/internal/metrics"
	"changerisk/internal/score"
	"changerisk/internal/scorecard"
	"changerisk/internal/server"
	"changerisk/internal/validation"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""

	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "application configuration file",
		Value:   "/etc/changerisk/config.yaml",
		Sources: cli.EnvVars("CHANGERISK_CONFIG"),
	}

	scorecardFlag = &cli.StringFlag{
		Name:     "scorecard",
		Aliases:  []string{"s"},
		Usage:    "scorecard YAML document",
		Required: true,
	}

	formatFlag = &cli.StringFlag{
		Name:  "format",
		Usage: "output format [json, yaml]",
		Value: formatJSON,
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level written to stderr [debug, info, warn, error]",
		Value: "warn",
	}
)

// main runs the changerisk CLI. Any error while loading the configuration, reading the
// scorecard or initializing a component exits with code 1.
func main() {
	app := &cli.Command{
		Name:           "changerisk",
		Usage:          "Explainable risk scoring for change requests",
		Version:        fmt.Sprintf("%s (commit: %s)", version, commit),
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the scoring HTTP service",
				Flags:  []cli.Flag{configFlag},
				Action: serve,
			},
			{
				Name:   "check",
				Usage:  "Load a scorecard document and report coverage issues",
				Flags:  []cli.Flag{scorecardFlag, formatFlag, logLevelFlag, &cli.BoolFlag{Name: "strict", Usage: "fail when coverage issues are found"}},
				Action: check,
			},
			{
				Name:  "score",
				Usage: "Score one change record read from a JSON file or stdin",
				Flags: []cli.Flag{
					scorecardFlag,
					formatFlag,
					logLevelFlag,
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "JSON change record, - for stdin", Value: "-"},
					&cli.StringFlag{Name: "schema", Usage: "JSON Schema replacing the built-in change input schema"},
					&cli.StringFlag{Name: "guards", Usage: "YAML file with CEL guard rules"},
					&cli.BoolFlag{Name: "skip-validation", Usage: "score the record without schema and guard checks"},
				},
				Action: scoreRecord,
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	config, err := configuration.LoadConfig(cmd.String(configFlag.Name))
	if err != nil {
		return fmt.Errorf("unable to load configuration: %w", err)
	}
	logger := logging.Prepare(config.Logger)
	defer logger.Close()

	metrics.Init()
	manager, err := scorecard.NewManager(
		config.Scorecard.Path,
		scorecard.WithHistory(config.Scorecard.History),
		scorecard.WithReloadListener(func(e scorecard.ReloadEvent) {
			metrics.RecordReload(e.Version, e.Error == "")
		}),
	)
	if err != nil {
		return fmt.Errorf("unable to load scorecard: %w", err)
	}
	card := manager.Current()
	slog.Info(fmt.Sprintf("Loaded scorecard v%d with %d bins", card.Version, card.BinCount()), "features", card.Features())

	validator, err := validation.LoadValidator(config.Validation.Schema, config.Validation.Guards)
	if err != nil {
		return fmt.Errorf("unable to initialize validation: %w", err)
	}

	router := server.NewApiRouter(manager, score.NewCalculator(manager), validator)
	srv := server.NewServer(config.Server, router)

	appCtx, appCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer appCancel()
	g, gctx := errgroup.WithContext(appCtx)

	g.Go(func() error {
		slog.Info("Server listening " + srv.Addr())
		return srv.ListenAndServe()
	})
	if config.Scorecard.Watch {
		watcher := scorecard.NewWatcher(manager, config.Scorecard.Debounce)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown", "error", err)
			return err
		}
		slog.Info("Server stopped")
		return nil
	})

	return g.Wait()
}

func check(ctx context.Context, cmd *cli.Command) error {
	setStderrLogger(cmd.String(logLevelFlag.Name))

	card, err := scorecard.Load(cmd.String(scorecardFlag.Name))
	if err != nil {
		return err
	}
	issues := card.Lint()

	report := struct {
		Version   int               `json:"version" yaml:"version"`
		ScoreName string            `json:"score_name" yaml:"score_name"`
		Features  []string          `json:"features" yaml:"features"`
		Bins      int               `json:"bins" yaml:"bins"`
		Issues    []scorecard.Issue `json:"issues" yaml:"issues"`
	}{
		Version:   card.Version,
		ScoreName: card.ScoreName,
		Features:  card.Features(),
		Bins:      card.BinCount(),
		Issues:    issues,
	}
	if err := write(os.Stdout, cmd.String(formatFlag.Name), report); err != nil {
		return err
	}

	if cmd.Bool("strict") && len(issues) > 0 {
		return fmt.Errorf("%d coverage issues found", len(issues))
	}
	return nil
}

func scoreRecord(ctx context.Context, cmd *cli.Command) error {
	setStderrLogger(cmd.String(logLevelFlag.Name))

	card, err := scorecard.Load(cmd.String(scorecardFlag.Name))
	if err != nil {
		return err
	}

	body, err := readInput(cmd.String("input"))
	if err != nil {
		return err
	}
	record, err := validation.DecodeRecord(body)
	if err != nil {
		return err
	}

	if !cmd.Bool("skip-validation") {
		validator, err := validation.LoadValidator(cmd.String("schema"), cmd.String("guards"))
		if err != nil {
			return err
		}
		if err := validator.Validate(record); err != nil {
			return err
		}
	}

	result, err := score.ScoreWith(card, score.Record(record))
	if err != nil {
		return err
	}
	return write(os.Stdout, cmd.String(formatFlag.Name), result)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func write(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func setStderrLogger(level string) {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logging.ParseLevel(level)})
	slog.SetDefault(slog.New(handler))
}
