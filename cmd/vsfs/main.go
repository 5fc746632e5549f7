package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/vsfs-dev/vsfs/config"
)

var (
	flagImage   string
	flagConfig  string
	flagVerbose bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "vsfs",
	Short:         "Journaled single-image filesystem tool",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			return err
		}
		if flagImage == "" {
			flagImage = cfg.Image
		}
		setupLogging()
		return nil
	},
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: level,
	})))
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagImage, "image", "i", "", "filesystem image path")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "vsfs: %v\n", err)
		os.Exit(1)
	}
}
