package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	corecfg "github.com/trunkstore-lab/trunkstore/internal/core/config"
)

const defaultConfigPath = "trunkstore.yaml"

// rootOptions holds flags shared by every command.
type rootOptions struct {
	ConfigPath string
	Format     string // text | json
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "trunkstore",
		Short: "Ingest trunk-recorder calls into PostgreSQL",
		Long: `trunkstore accepts trunk-recorder call records with their frequency and
source logs, deduplicates the logs and writes everything to PostgreSQL in
referential order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath, "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newDeadLetterCommand(opts))

	return cmd
}

// loadConfig loads the configuration and installs the default logger. The
// default config path is optional; an explicit one must exist.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*corecfg.Config, error) {
	path := opts.ConfigPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := corecfg.Load(path)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if cfg.Server.Mode == "debug" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if path == "" {
		slog.Info("Loaded config from defaults and environment")
	} else {
		slog.Info("Loaded config", "path", path)
	}
	return cfg, nil
}
