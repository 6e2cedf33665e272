package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mchmarny/scoreproxy/pkg/auth"
	"github.com/mchmarny/scoreproxy/pkg/config"
	"github.com/mchmarny/scoreproxy/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "scoreproxy"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefault(os.Stderr, "info", logging.FormatCLI)

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Dir    string
	Debug  bool
	Config *config.Config
	Tokens *auth.Store
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Proxy for wallet address risk score lookups",
		Writer:                os.Stdout,
		ErrWriter:             os.Stderr,
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag(),
			configDirFlag(),
			logFormatFlag(),
		},
		Commands: []*urfave.Command{
			newServerCmd(),
			newScoreCmd(),
			newAuthCmd(),
			newConfigCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			debug := cmd.Bool(flagDebug)

			dir := cmd.String(flagConfigDir)
			if dir == "" {
				d, _, err := config.GetOrCreateHomeDir(appName)
				if err != nil {
					return ctx, fmt.Errorf("resolving config dir: %w", err)
				}
				dir = d
			}

			cfg, err := config.ReadOrCreate(dir)
			if err != nil {
				return ctx, fmt.Errorf("reading config: %w", err)
			}

			initLogging(cmd.ErrWriter, cfg, debug, cmd.String(flagLogFormat))

			cmd.Metadata[appConfigKey] = &appConfig{
				Dir:    dir,
				Debug:  debug,
				Config: cfg,
				Tokens: auth.NewStore(dir),
			}
			return ctx, nil
		},
	}
}

func initLogging(w io.Writer, cfg *config.Config, debug bool, format string) {
	if w == nil {
		w = os.Stderr
	}
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	if format == "" {
		format = cfg.Log.Format
	}
	logging.SetDefault(w, level, format)
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML || format == "yml" {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

// encodeRaw re-renders a raw JSON document in the requested format.
func encodeRaw(w io.Writer, format string, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decoding upstream JSON: %w", err)
	}
	return encode(w, format, v)
}
