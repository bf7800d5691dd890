// Command outline infers heading outlines from documents on the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/spf13/cobra"
)

type globalFlags struct {
	model     string
	translate string
	target    string
	verbose   bool
}

func main() {
	var g globalFlags
	root := &cobra.Command{
		Use:           "outline",
		Short:         "Infer a hierarchical heading outline from documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.model, "model", "", "classifier artifact path (default: $MODEL_PATH)")
	root.PersistentFlags().StringVar(&g.translate, "translate", "", "heading translation provider: off|claude|gemini (default: $TRANSLATE_PROVIDER)")
	root.PersistentFlags().StringVar(&g.target, "target", "", "translation target language (default: $TRANSLATE_TARGET)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(buildCmd(&g), batchCmd(&g))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup applies flag overrides to the environment config and loads the
// engine. Logs go to stderr so stdout stays machine-readable.
func setup(cmd *cobra.Command, g *globalFlags) (*pipeline.Engine, config.Config, *slog.Logger, error) {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := config.Load()
	if g.model != "" {
		cfg.ModelPath = g.model
	}
	if g.translate != "" {
		cfg.TranslateProvider = g.translate
	}
	if g.target != "" {
		cfg.TranslateTarget = g.target
	}
	if err := cfg.Validate(); err != nil {
		return nil, cfg, nil, err
	}

	engine, _, err := pipeline.NewEngine(cmd.Context(), cfg, log)
	if err != nil {
		return nil, cfg, nil, err
	}
	return engine, cfg, log, nil
}
