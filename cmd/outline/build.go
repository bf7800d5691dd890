package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/export"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/translate"
	"github.com/spf13/cobra"
)

func buildCmd(g *globalFlags) *cobra.Command {
	var out string
	var predictions string

	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Write the outline of one document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			engine, cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			defer translate.Close(engine.Translator)
			name := filepath.Base(path)

			lines, err := readLines(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
			if err != nil {
				return fmt.Errorf("document %q: %w", name, err)
			}
			res, err := engine.Outline(cmd.Context(), name, lines)
			if err != nil {
				return fmt.Errorf("document %q: %w", name, err)
			}

			if err := writeOutline(cmd.OutOrStdout(), out, res.Outline); err != nil {
				return err
			}
			if predictions != "" {
				if err := writePredictions(predictions, res.Lines); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file for the outline JSON (default: stdout)")
	cmd.Flags().StringVar(&predictions, "predictions", "", "also write labeled lines to this .csv or .xlsx file")
	return cmd
}

func readLines(path string, opts parser.Options) ([]doctree.Line, error) {
	p, err := parser.ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.ParseLines(f, filepath.Base(path))
}

func writeOutline(stdout io.Writer, path string, o *doctree.Outline) error {
	if path == "" {
		return o.WriteJSON(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := o.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writePredictions(path string, lines []doctree.LabeledLine) error {
	var write func(io.Writer, []doctree.LabeledLine) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		write = export.WriteCSV
	case ".xlsx":
		write = export.WriteXLSX
	default:
		return fmt.Errorf("predictions file must end in .csv or .xlsx: %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, lines); err != nil {
		f.Close()
		return fmt.Errorf("write predictions: %w", err)
	}
	return f.Close()
}
