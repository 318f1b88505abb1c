// Package ai exposes incident parsing as an opaque capability. Exactly
// one backend is active at a time, selected by name at startup; text
// analysis always degrades to the deterministic rule classifier when
// the backend is missing or fails.
package ai

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"roadwatch/internal/config"
	"roadwatch/internal/domain"
)

type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*domain.ParsedIncident, error)
	// AnalyzeVoice and AnalyzePhoto receive the raw payload already
	// fetched by the transport. A nil result with nil error means
	// "no incident detected".
	AnalyzeVoice(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error)
	AnalyzePhoto(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error)
}

// ConfigHolder publishes the current parser tuning to backends and is
// swapped atomically by the config watcher.
type ConfigHolder struct {
	v atomic.Value
}

func NewConfigHolder(cfg config.ParserConfig) *ConfigHolder {
	h := &ConfigHolder{}
	h.v.Store(cfg)
	return h
}

func (h *ConfigHolder) Get() config.ParserConfig  { return h.v.Load().(config.ParserConfig) }
func (h *ConfigHolder) Set(c config.ParserConfig) { h.v.Store(c) }

type factory func(cfg config.AIConfig, parser *ConfigHolder, logger *slog.Logger) Analyzer

var backends = map[string]factory{
	"rules": func(_ config.AIConfig, _ *ConfigHolder, _ *slog.Logger) Analyzer {
		return NewFallback()
	},
	"openai": func(cfg config.AIConfig, parser *ConfigHolder, logger *slog.Logger) Analyzer {
		return NewOpenAI(cfg, parser, logger)
	},
}

// New selects the configured backend and wraps it with the fallback
// policy: failed text analysis is rerouted to the rule classifier,
// failed voice/photo analysis surfaces as "no incident detected".
func New(cfg config.AIConfig, parser *ConfigHolder, logger *slog.Logger) (Analyzer, error) {
	name := cfg.Backend
	if name == "openai" && cfg.APIKey == "" {
		logger.Warn("ai backend has no api key, using rule classifier", slog.String("backend", name))
		name = "rules"
	}

	f, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown ai backend %q", name)
	}

	backend := f(cfg, parser, logger)
	if name == "rules" {
		return backend, nil
	}
	return &guarded{backend: backend, fallback: NewFallback(), logger: logger}, nil
}

// guarded applies the degradation contract around a real backend.
type guarded struct {
	backend  Analyzer
	fallback *Fallback
	logger   *slog.Logger
}

func (g *guarded) AnalyzeText(ctx context.Context, text string) (*domain.ParsedIncident, error) {
	parsed, err := g.backend.AnalyzeText(ctx, text)
	if err != nil {
		g.logger.Warn("ai text analysis failed, falling back to rules", slog.Any("error", err))
		return g.fallback.AnalyzeText(ctx, text)
	}
	if parsed == nil {
		return g.fallback.AnalyzeText(ctx, text)
	}
	return parsed, nil
}

func (g *guarded) AnalyzeVoice(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error) {
	parsed, err := g.backend.AnalyzeVoice(ctx, payload, mimeType)
	if err != nil {
		// no generic binary fallback: a failed voice analysis means
		// no incident was detected, not a guessed one
		g.logger.Warn("ai voice analysis failed", slog.Any("error", err))
		return nil, nil
	}
	return parsed, nil
}

func (g *guarded) AnalyzePhoto(ctx context.Context, payload []byte, mimeType string) (*domain.ParsedIncident, error) {
	parsed, err := g.backend.AnalyzePhoto(ctx, payload, mimeType)
	if err != nil {
		g.logger.Warn("ai photo analysis failed", slog.Any("error", err))
		return nil, nil
	}
	return parsed, nil
}
