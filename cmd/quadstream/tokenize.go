package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/rdfio"
	"github.com/aleksaelezovic/quadstream/internal/token"
	"github.com/aleksaelezovic/quadstream/internal/tokenizer"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file",
	Short: "Print the tokens of an RDF document",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

// syntaxFor maps a content type onto the tokenizer syntax that reads it.
func syntaxFor(contentType string) (tokenizer.Syntax, bool) {
	switch contentType {
	case "application/trig":
		return tokenizer.TriG, false
	case "text/turtle":
		return tokenizer.Turtle, false
	case "application/n-quads":
		return tokenizer.NTriples, true
	default:
		return tokenizer.NTriples, false
	}
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	ct, _, err := rdfio.ContentTypeForFile(filePath)
	if err != nil {
		return err
	}
	syntax, nquads := syntaxFor(ct)

	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	tokens, err := parsing.OpenTokens(cmd.Context(), f, syntax, nquads, conf.ParserSettings(logger))
	if err != nil {
		return err
	}
	defer tokens.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for {
		tok, err := tokens.Dequeue()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d:%d\t%s\n", tok.Span.StartLine, tok.Span.StartCol, tok)
		if tok.Kind == token.EOF {
			return nil
		}
	}
}
