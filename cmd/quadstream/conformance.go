package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadstream/internal/testsuite"
)

var conformanceCmd = &cobra.Command{
	Use:   "conformance manifest-file-or-dir...",
	Short: "Run W3C RDF test manifests against the parsers",
	Example: `  quadstream conformance testdata/rdf-tests/rdf/rdf11/rdf-turtle
  quadstream conformance --dialect legacy testdata/rdf-tests/rdf/rdf11/rdf-trig/manifest.ttl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConformance,
}

func runConformance(cmd *cobra.Command, args []string) error {
	runner := testsuite.NewTestRunner(conf.ParserSettings(logger), os.Stdout)
	for _, path := range args {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to access path: %w", err)
		}
		if info.IsDir() {
			path = filepath.Join(path, "manifest.ttl")
		}
		if err := runner.RunManifest(cmd.Context(), path); err != nil {
			return err
		}
	}
	if stats := runner.GetStats(); stats.Failed > 0 {
		return fmt.Errorf("%d of %d tests failed", stats.Failed, stats.Total)
	}
	return nil
}
