package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/classifier"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/translate"
)

// NewEngine loads the classifier artifact and the configured translator.
// The returned stats are nil when translation is off.
func NewEngine(ctx context.Context, cfg config.Config, log *slog.Logger) (*Engine, *translate.Stats, error) {
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("classifier loaded", "path", cfg.ModelPath, "version", model.Version(), "classes", model.Classes())

	var stats *translate.Stats
	if p := cfg.TranslateProvider; p != "" && p != "off" {
		stats = translate.NewStats(time.Hour)
	}
	tr, err := translate.New(ctx, cfg.Translate(), stats)
	if err != nil {
		return nil, nil, fmt.Errorf("translator: %w", err)
	}
	return &Engine{Classifier: model, Translator: tr, Log: log}, stats, nil
}
