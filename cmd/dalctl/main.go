// Package main provides dalctl, the operator CLI for the campus locator. It wires the
// same packages as the API server against the configured live services.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/digitaladdress/locator/internal/app"
	"github.com/digitaladdress/locator/internal/config"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	output     string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "dalctl",
		Short: "Operator CLI for the campus locator",
		Long: `dalctl resolves locations, plans routes, identifies buildings, lists
registered codes and mints operator tokens using the same configuration as
the API server.

Configuration is read from --config (YAML) or from CONFIG_FILE and the
environment, exactly as the server does.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format (text, json)")

	cmd.AddCommand(
		resolveCmd(opts),
		routeCmd(opts),
		identifyCmd(opts),
		codesCmd(opts),
		tokenCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "dalctl version %s (build: %s)\n", Version, BuildTime)
			},
		},
	)

	return cmd
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	if o.configPath == "" {
		return config.Load()
	}
	cfg, err := config.LoadFromFile(o.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *globalOptions) logger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(o.logLevel))
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// components loads the configuration and wires the services.
func (o *globalOptions) components(cmd *cobra.Command) (*app.Components, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.Build(cmd.Context(), cfg, o.logger(cmd.ErrOrStderr()))
}

func (o *globalOptions) print(w io.Writer, v interface{}, text func(io.Writer)) error {
	switch o.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "":
		text(w)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", o.output)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
