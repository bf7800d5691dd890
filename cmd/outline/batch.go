package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/translate"
	"github.com/spf13/cobra"
)

func batchCmd(g *globalFlags) *cobra.Command {
	var outDir string
	var concurrency int

	cmd := &cobra.Command{
		Use:   "batch <dir|file>...",
		Short: "Outline many documents; one failure never stops the rest",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, cfg, log, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer translate.Close(engine.Translator)
			if concurrency <= 0 {
				concurrency = cfg.BatchConcurrency
			}
			paths, err := collectFiles(args)
			if err != nil {
				return err
			}
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return err
				}
			}

			// Parse up front; parse failures count as failed documents.
			opts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
			results := make([]pipeline.DocResult, len(paths))
			var docs []pipeline.Document
			var slots []int
			for i, p := range paths {
				results[i].Name = filepath.Base(p)
				lines, err := readLines(p, opts)
				if err != nil {
					log.Error("document failed", "document", p, "error", err)
					results[i].Err = fmt.Errorf("document %q: %w", results[i].Name, err)
					continue
				}
				docs = append(docs, pipeline.Document{Name: results[i].Name, Lines: lines})
				slots = append(slots, i)
			}

			report := engine.RunBatch(cmd.Context(), docs, concurrency)
			for j, r := range report.Results {
				results[slots[j]] = r
			}

			names := outputNames(paths)
			succeeded, failed := 0, 0
			for i, r := range results {
				if r.Err != nil {
					failed++
					fmt.Fprintln(cmd.ErrOrStderr(), r.Err)
					continue
				}
				dst := filepath.Join(outDir, names[i])
				if err := writeOutline(cmd.OutOrStdout(), dst, r.Result.Outline); err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "document %q: write: %v\n", r.Name, err)
					continue
				}
				succeeded++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d succeeded, %d failed\n", succeeded, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(paths))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for <file>.outline.json files (default: current directory)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "documents processed at once (default: $BATCH_CONCURRENCY)")
	return cmd
}

// collectFiles expands directories to their supported files, sorted by
// name. Files named explicitly are kept even if unsupported so they show
// up as failures.
func collectFiles(args []string) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && parser.IsSupportedExtension(e.Name()) {
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// outputNames maps report.pdf to report.pdf.outline.json. Inputs that share
// a base name get -2, -3, ... before the suffix, in argument order.
func outputNames(paths []string) []string {
	out := make([]string, len(paths))
	seen := make(map[string]int, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		seen[base]++
		if n := seen[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}
		out[i] = base + ".outline.json"
	}
	return out
}
