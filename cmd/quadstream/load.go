package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aleksaelezovic/quadstream/internal/bulk"
	"github.com/aleksaelezovic/quadstream/internal/encoding"
	"github.com/aleksaelezovic/quadstream/internal/rdfio"
	"github.com/aleksaelezovic/quadstream/internal/storage"
	"github.com/aleksaelezovic/quadstream/pkg/store"
)

var loadCmd = &cobra.Command{
	Use:   "load [flags] file-or-dir...",
	Short: "Load RDF documents into a Badger quad store",
	Long:  `Load parses every listed file, and every RDF file found under listed directories, into the configured store using a pool of workers`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLoad,
}

func init() {
	loadCmd.Flags().String("path", "", "Badger directory (overrides storage.path)")
	loadCmd.Flags().Bool("in-memory", false, "use an in-memory store")
	loadCmd.Flags().Int("workers", 0, "number of parser workers (overrides loader.workers)")
	loadCmd.Flags().String("on-error", "", "what a failing file does to the job (skip|abort)")
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	keyColor  = color.New(color.Bold)
)

func runLoad(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("path") {
		conf.Storage.Path, _ = flags.GetString("path")
	}
	if flags.Changed("in-memory") {
		conf.Storage.InMemory, _ = flags.GetBool("in-memory")
	}
	if flags.Changed("workers") {
		conf.Loader.Workers, _ = flags.GetInt("workers")
	}
	if flags.Changed("on-error") {
		conf.Loader.OnError, _ = flags.GetString("on-error")
	}
	if err := conf.Valid(); err != nil {
		return err
	}

	fs := afero.NewOsFs()
	files, err := collectFiles(fs, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no RDF files found")
	}

	badgerStorage, err := storage.NewBadgerStorage(conf.Storage.Path, storage.Options{
		InMemory: conf.Storage.InMemory,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	tripleStore := store.NewTripleStore(badgerStorage, encoding.NewTermEncoder(), encoding.NewTermDecoder())
	defer tripleStore.Close()

	loader, err := bulk.NewLoader(tripleStore, conf.LoaderConfig(logger),
		bulk.WithLogger(logger),
		bulk.WithFs(fs),
		bulk.WithRegisterer(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	loader.Enqueue(files...)

	report, runErr := loader.Run(cmd.Context())
	if report != nil {
		printReport(report, tripleStore)
	}
	return runErr
}

// collectFiles expands directories into the RDF files below them. Plain
// file arguments are kept even when their extension is unknown so that the
// loader reports them.
func collectFiles(fs afero.Fs, args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := fs.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		var found []string
		err = afero.Walk(fs, arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			if _, _, err := rdfio.ContentTypeForFile(path); err == nil {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func printReport(report *bulk.Report, tripleStore *store.TripleStore) {
	w := os.Stderr
	fmt.Fprintf(w, "%s %s\n", keyColor.Sprint("job:"), report.JobID)
	fmt.Fprintf(w, "%s %d\n", keyColor.Sprint("files:"), report.Files)
	fmt.Fprintf(w, "%s %d\n", keyColor.Sprint("statements:"), report.Quads)
	if count, err := tripleStore.Count(); err == nil {
		fmt.Fprintf(w, "%s %d\n", keyColor.Sprint("distinct quads in store:"), count)
	} else {
		logger.Warn("failed to count quads", zap.Error(err))
	}
	fmt.Fprintf(w, "%s %s\n", keyColor.Sprint("took:"), report.Took)
	if len(report.Failures) == 0 {
		fmt.Fprintln(w, okColor.Sprint("all files loaded"))
		return
	}
	fmt.Fprintln(w, failColor.Sprintf("%d file(s) failed:", len(report.Failures)))
	for _, f := range report.Failures {
		fmt.Fprintf(w, "  %s\n", f.Error())
	}
}
