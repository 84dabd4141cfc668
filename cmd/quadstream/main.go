package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadstream/internal/config"
	"github.com/aleksaelezovic/quadstream/internal/logutil"
)

var rootCmd = &cobra.Command{
	Use:           "quadstream",
	Short:         "Streaming RDF parser and bulk loader",
	Long:          `quadstream tokenizes and parses N-Triples, N-Quads, Turtle and TriG documents and loads them into a Badger quad store`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var (
	conf   *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(conformanceCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("dialect", "", "Turtle dialect (w3c|legacy)")
	rootCmd.PersistentFlags().String("queue", "", "token queue mode (eager|buffered|async)")
	rootCmd.PersistentFlags().String("charset", "", "input charset (auto|utf-8|utf-16|utf-16le|utf-16be|latin1)")
	rootCmd.PersistentFlags().Bool("trace-tokens", false, "log every token at debug level")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, color.RedString("error:"), err)
		os.Exit(1)
	}
}

// setup loads the config file, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) error {
	conf = config.NewConfig()
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		if err := conf.Load(path); err != nil {
			return err
		}
	}

	for name, target := range map[string]*string{
		"log-level": &conf.Log.Level,
		"dialect":   &conf.Parser.Dialect,
		"queue":     &conf.Parser.Queue,
		"charset":   &conf.Parser.Charset,
	} {
		if flags.Changed(name) {
			if *target, err = flags.GetString(name); err != nil {
				return fmt.Errorf("failed to get %s flag: %w", name, err)
			}
		}
	}
	if flags.Changed("trace-tokens") {
		conf.Parser.TraceTokens, _ = flags.GetBool("trace-tokens")
	}
	if conf.Parser.TraceTokens && !flags.Changed("log-level") {
		conf.Log.Level = "debug"
	}

	if err := conf.Valid(); err != nil {
		return err
	}
	logger, err = logutil.New(conf.Log.Level, conf.Log.Format)
	return err
}
