package testsuite

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/aleksaelezovic/quadstream/internal/parsing"
	"github.com/aleksaelezovic/quadstream/internal/rdfio"
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
)

// TestRunner runs W3C RDF syntax and evaluation tests
type TestRunner struct {
	settings parsing.Settings
	out      io.Writer
	stats    *TestStats
}

// TestStats tracks test execution statistics
type TestStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
	Errors  []TestError
}

// TestError represents a test failure
type TestError struct {
	TestName string
	Type     TestType
	Error    string
}

// TestResult represents the result of running a test
type TestResult int

const (
	TestResultPass TestResult = iota
	TestResultFail
	TestResultSkip
	TestResultError
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
)

// NewTestRunner creates a runner that parses with settings and reports to
// out. The base IRI of each document is taken from the manifest.
func NewTestRunner(settings parsing.Settings, out io.Writer) *TestRunner {
	return &TestRunner{settings: settings, out: out, stats: &TestStats{}}
}

// RunManifest runs all tests in a manifest file
func (r *TestRunner) RunManifest(ctx context.Context, manifestPath string) error {
	manifest, err := ParseManifest(ctx, manifestPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "\nRunning manifest: %s\n", manifestPath)
	fmt.Fprintf(r.out, "   Found %d tests\n\n", len(manifest.Tests))

	for i := range manifest.Tests {
		if err := ctx.Err(); err != nil {
			return err
		}
		test := &manifest.Tests[i]
		r.stats.Total++

		switch r.runTest(ctx, test) {
		case TestResultPass:
			r.stats.Passed++
			fmt.Fprintf(r.out, "  %s %s\n", passColor.Sprint("PASS"), test.Name)
		case TestResultFail:
			r.stats.Failed++
			fmt.Fprintf(r.out, "  %s %s\n", failColor.Sprint("FAIL"), test.Name)
		case TestResultSkip:
			r.stats.Skipped++
			fmt.Fprintf(r.out, "  %s %s (type: %s)\n", skipColor.Sprint("SKIP"), test.Name, test.Type)
		case TestResultError:
			r.stats.Failed++
			fmt.Fprintf(r.out, "  %s %s\n", failColor.Sprint("ERROR"), test.Name)
		}
	}

	r.printSummary()
	return nil
}

// runTest runs a single test case
func (r *TestRunner) runTest(ctx context.Context, test *TestCase) TestResult {
	switch test.Type {
	case TestTypeTurtleEval:
		return r.runRDFEvalTest(ctx, test, "text/turtle")
	case TestTypeTurtlePositiveSyntax:
		return r.runRDFPositiveSyntaxTest(ctx, test, "text/turtle")
	case TestTypeTurtleNegativeSyntax, TestTypeTurtleNegativeEval:
		return r.runRDFNegativeSyntaxTest(ctx, test, "text/turtle")
	case TestTypeNTriplesPositiveSyntax, TestTypeNTriplesPositiveC14N:
		return r.runRDFPositiveSyntaxTest(ctx, test, "application/n-triples")
	case TestTypeNTriplesNegativeSyntax:
		return r.runRDFNegativeSyntaxTest(ctx, test, "application/n-triples")
	case TestTypeNQuadsPositiveSyntax, TestTypeNQuadsPositiveC14N:
		return r.runRDFPositiveSyntaxTest(ctx, test, "application/n-quads")
	case TestTypeNQuadsNegativeSyntax:
		return r.runRDFNegativeSyntaxTest(ctx, test, "application/n-quads")
	case TestTypeTrigEval:
		return r.runRDFEvalTest(ctx, test, "application/trig")
	case TestTypeTrigPositiveSyntax:
		return r.runRDFPositiveSyntaxTest(ctx, test, "application/trig")
	case TestTypeTrigNegativeSyntax, TestTypeTrigNegativeEval:
		return r.runRDFNegativeSyntaxTest(ctx, test, "application/trig")
	default:
		return TestResultSkip
	}
}

// runRDFPositiveSyntaxTest verifies an RDF document parses successfully
func (r *TestRunner) runRDFPositiveSyntaxTest(ctx context.Context, test *TestCase, contentType string) TestResult {
	if test.Action == "" {
		r.recordError(test, "No action file specified")
		return TestResultError
	}
	if _, err := r.parseFile(ctx, test.Action, test.ActionIRI, contentType); err != nil {
		r.recordError(test, fmt.Sprintf("Parser error: %v", err))
		return TestResultFail
	}
	return TestResultPass
}

// runRDFNegativeSyntaxTest verifies an RDF document fails to parse
func (r *TestRunner) runRDFNegativeSyntaxTest(ctx context.Context, test *TestCase, contentType string) TestResult {
	if test.Action == "" {
		r.recordError(test, "No action file specified")
		return TestResultError
	}
	if _, err := r.parseFile(ctx, test.Action, test.ActionIRI, contentType); err == nil {
		r.recordError(test, "Data parsed successfully but should have failed")
		return TestResultFail
	}
	return TestResultPass
}

// runRDFEvalTest parses the action and compares it with the N-Quads result
func (r *TestRunner) runRDFEvalTest(ctx context.Context, test *TestCase, contentType string) TestResult {
	if test.Action == "" || test.Result == "" {
		r.recordError(test, "Action or result file missing")
		return TestResultError
	}

	actual, err := r.parseFile(ctx, test.Action, test.ActionIRI, contentType)
	if err != nil {
		r.recordError(test, fmt.Sprintf("Parser error: %v", err))
		return TestResultFail
	}
	expected, err := r.parseFile(ctx, test.Result, "", "application/n-quads")
	if err != nil {
		r.recordError(test, fmt.Sprintf("Failed to parse expected results: %v", err))
		return TestResultError
	}

	if !rdf.Isomorphic(expected, actual) {
		r.recordError(test, fmt.Sprintf("Quads mismatch: expected %d quads, got %d quads", len(expected), len(actual)))
		return TestResultFail
	}
	return TestResultPass
}

func (r *TestRunner) parseFile(ctx context.Context, path, base, contentType string) ([]*rdf.Quad, error) {
	settings := r.settings
	settings.BaseURI = base
	parser, err := rdfio.NewParser(contentType, settings)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) // #nosec G304 - test suite legitimately reads test data files
	if err != nil {
		return nil, err
	}
	defer f.Close()

	collector := rdf.NewQuadCollector()
	if err := parser.Parse(ctx, f, collector); err != nil {
		return nil, err
	}
	return collector.Quads(), nil
}

// recordError records a test error
func (r *TestRunner) recordError(test *TestCase, errMsg string) {
	r.stats.Errors = append(r.stats.Errors, TestError{
		TestName: test.Name,
		Type:     test.Type,
		Error:    errMsg,
	})
}

// printSummary prints test execution summary
func (r *TestRunner) printSummary() {
	fmt.Fprintln(r.out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(r.out, "TEST SUMMARY")
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
	fmt.Fprintf(r.out, "Total:   %d\n", r.stats.Total)
	if r.stats.Total > 0 {
		fmt.Fprintf(r.out, "Passed:  %d (%.1f%%)\n", r.stats.Passed,
			float64(r.stats.Passed)/float64(r.stats.Total)*100)
	}
	fmt.Fprintf(r.out, "Failed:  %d\n", r.stats.Failed)
	fmt.Fprintf(r.out, "Skipped: %d\n", r.stats.Skipped)

	if len(r.stats.Errors) > 0 {
		fmt.Fprintln(r.out, "\nERRORS:")
		for i, err := range r.stats.Errors {
			if i >= 10 {
				fmt.Fprintf(r.out, "   ... and %d more\n", len(r.stats.Errors)-10)
				break
			}
			fmt.Fprintf(r.out, "   - %s: %s\n", err.TestName, err.Error)
		}
	}
	fmt.Fprintln(r.out, strings.Repeat("=", 60))
}

// GetStats returns the current test statistics
func (r *TestRunner) GetStats() *TestStats {
	return r.stats
}
