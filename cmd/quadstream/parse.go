package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadstream/internal/rdfio"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file",
	Short: "Parse an RDF document and print it as N-Quads",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().Int("limit", 0, "stop after this many statements (0 means no limit)")
	parseCmd.Flags().String("base", "", "base IRI for relative references")
	parseCmd.Flags().Bool("count", false, "print only the number of statements")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("failed to get limit flag: %w", err)
	}
	base, _ := cmd.Flags().GetString("base")
	countOnly, _ := cmd.Flags().GetBool("count")

	settings := conf.ParserSettings(logger)
	if base != "" {
		settings.BaseURI = base
	}
	parser, err := rdfio.ForFile(filePath, settings)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	printer := newPrintSink(out, countOnly)
	var sink rdf.Sink = printer
	if limit > 0 {
		sink = &rdf.LimitSink{Next: sink, Limit: limit}
	}

	start := time.Now()
	n := 0
	err = parser.Parse(cmd.Context(), f, &countingSink{Sink: sink, n: &n})
	logger.Debug("parsed document",
		zap.String("file", filePath),
		zap.String("content-type", parser.ContentType()),
		zap.Int("statements", n),
		zap.Duration("took", time.Since(start)))
	if err != nil {
		return err
	}
	if printer.err != nil {
		return fmt.Errorf("failed to write output: %w", printer.err)
	}
	if countOnly {
		fmt.Fprintln(out, n)
	}
	return nil
}

// countingSink counts the statements its Sink accepted.
type countingSink struct {
	rdf.Sink
	n *int
}

func (c *countingSink) HandleTriple(t *rdf.Triple) bool {
	ok := c.Sink.HandleTriple(t)
	*c.n++
	return ok
}

func (c *countingSink) HandleQuad(q *rdf.Quad) bool {
	ok := c.Sink.HandleQuad(q)
	*c.n++
	return ok
}

// printSink writes every statement as an N-Quads line.
type printSink struct {
	rdf.Nodes
	w      io.Writer
	silent bool
	err    error
}

func newPrintSink(w io.Writer, silent bool) *printSink {
	return &printSink{w: w, silent: silent}
}

func (p *printSink) Start() {}

func (p *printSink) HandleTriple(t *rdf.Triple) bool {
	return p.HandleQuad(t.InGraph(nil))
}

func (p *printSink) HandleQuad(q *rdf.Quad) bool {
	if p.silent {
		return true
	}
	if _, err := fmt.Fprintln(p.w, q.String()); err != nil {
		p.err = err
		return false
	}
	return true
}

func (p *printSink) End(bool) {}
