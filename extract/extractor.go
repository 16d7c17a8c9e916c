// Package extract turns a document on disk into the canonical
// document.ExtractedDocument.
//
// An Extractor calls a primary Engine and, if that fails for any reason,
// a single fallback Engine on the same input. Whichever raw result came
// back is reshaped by a Normalizer.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

// Extractor runs the primary/fallback engine pair. It holds no per-request
// state; reuse across sequential requests is safe as long as the engines
// are.
type Extractor struct {
	primary    Engine
	fallback   Engine
	normalizer *Normalizer
	logger     *slog.Logger
	maxBytes   int64
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithFallback sets the engine tried after the primary fails.
func WithFallback(e Engine) Option {
	return func(x *Extractor) { x.fallback = e }
}

// WithNormalizer replaces the default Normalizer.
func WithNormalizer(n *Normalizer) Option {
	return func(x *Extractor) { x.normalizer = n }
}

// WithMaxFileSize rejects inputs larger than n bytes. n <= 0 means no limit.
func WithMaxFileSize(n int64) Option {
	return func(x *Extractor) { x.maxBytes = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}

// New returns an Extractor around primary.
func New(primary Engine, opts ...Option) *Extractor {
	x := &Extractor{primary: primary, logger: slog.Default()}
	for _, o := range opts {
		o(x)
	}
	if x.normalizer == nil {
		x.normalizer = NewNormalizer(OrphanSurface, x.logger)
	}
	return x
}

// Primary returns the primary engine's name.
func (x *Extractor) Primary() string { return x.primary.Name() }

// Fallback returns the fallback engine's name, or "" when none is set.
func (x *Extractor) Fallback() string {
	if x.fallback == nil {
		return ""
	}
	return x.fallback.Name()
}

// Extract analyses the file at path.
//
// A missing file fails with ErrNotFound and an oversized one with
// ErrTooLarge, both before any engine runs. A primary
// engine failure is logged and the fallback engine runs instead; a fallback
// failure (or a primary failure with no fallback configured) is returned as
// an *EngineError naming the engine that failed last.
func (x *Extractor) Extract(ctx context.Context, path string) (*document.ExtractedDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	if x.maxBytes > 0 && info.Size() > x.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, info.Size(), x.maxBytes)
	}

	start := time.Now()
	engine := x.primary
	raw, err := x.analyze(ctx, engine, path)
	if err != nil {
		if x.fallback == nil {
			x.logger.Error("extraction failed", "engine", engine.Name(), "path", path, "error", err)
			return nil, &EngineError{Engine: engine.Name(), Err: err}
		}
		x.logger.Warn("primary engine failed, falling back",
			"engine", engine.Name(),
			"fallback", x.fallback.Name(),
			"path", path,
			"error", err,
		)
		engine = x.fallback
		raw, err = x.analyze(ctx, engine, path)
		if err != nil {
			x.logger.Error("fallback engine failed", "engine", engine.Name(), "path", path, "error", err)
			return nil, &EngineError{Engine: engine.Name(), Err: err}
		}
	}

	doc := x.normalizer.Normalize(path, engine.Name(), raw)
	x.logger.Info("document extracted",
		"engine", engine.Name(),
		"path", path,
		"pages", doc.PageCount,
		"items", doc.ItemCount(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// analyze calls e and treats a content-free result as a failure.
func (x *Extractor) analyze(ctx context.Context, e Engine, path string) (*RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := e.Analyze(ctx, path)
	if err != nil {
		return nil, err
	}
	if raw.Empty() {
		return nil, ErrEmptyResult
	}
	return raw, nil
}
