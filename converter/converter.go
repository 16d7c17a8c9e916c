// Package converter holds the concrete extraction engines and the format
// readers they share.
//
// Three engines are registered: layout (page geometry → page tree),
// partition (flat element sequence, fast or hi_res) and ocr (text layer
// with Tesseract for scanned pages). New wires the configured primary and
// fallback pair into an extract.Extractor.
package converter

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/config"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

// New builds the Extractor described by cfg. Engines are constructed once
// here and reused for every extraction.
func New(cfg *config.Config, logger *slog.Logger) (*extract.Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return newExtractor(cfg, execRunner{logger: logger}, logger)
}

func newExtractor(cfg *config.Config, runner Runner, logger *slog.Logger) (*extract.Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	policy, err := extract.ParseOrphanPolicy(cfg.Extract.OrphanPolicy)
	if err != nil {
		return nil, err
	}
	reg, err := newRegistry(cfg, runner, logger)
	if err != nil {
		return nil, err
	}

	primary, err := reg.Build(cfg.Extract.PrimaryEngine)
	if err != nil {
		return nil, err
	}
	opts := []extract.Option{
		extract.WithLogger(logger),
		extract.WithNormalizer(extract.NewNormalizer(policy, logger)),
		extract.WithMaxFileSize(cfg.MaxFileSizeBytes),
	}
	if cfg.HasFallback() {
		fallback, err := reg.Build(cfg.Extract.FallbackEngine)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extract.WithFallback(fallback))
	}
	return extract.New(primary, opts...), nil
}

// NewRegistry returns a registry holding the layout, partition and ocr
// engines configured from cfg.
func NewRegistry(cfg *config.Config, logger *slog.Logger) (*extract.Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return newRegistry(cfg, execRunner{logger: logger}, logger)
}

func newRegistry(cfg *config.Config, runner Runner, logger *slog.Logger) (*extract.Registry, error) {
	strategy, err := ParseStrategy(cfg.Extract.PartitionStrategy)
	if err != nil {
		return nil, err
	}
	rec := newRecognizer(cfg.OCR, runner)
	raster := &pdfRasterizer{bin: cfg.OCR.PdftoppmPath, dpi: cfg.OCR.DPI, runner: runner}

	reg := extract.NewRegistry()
	reg.Register(EngineLayout, func() (extract.Engine, error) {
		return NewLayoutEngine(rec, logger.With("engine", EngineLayout)), nil
	})
	reg.Register(EnginePartition, func() (extract.Engine, error) {
		return NewPartitionEngine(strategy, rec, raster, cfg.OCR.MaxPages, logger.With("engine", EnginePartition)), nil
	})
	reg.Register(EngineOCR, func() (extract.Engine, error) {
		return NewOCREngine(rec, raster, cfg.OCR.MaxPages, logger.With("engine", EngineOCR)), nil
	})
	return reg, nil
}

// OCRAvailable reports whether the configured Tesseract binary can be found.
func OCRAvailable(cfg *config.Config) bool {
	_, err := lookPath(cfg.OCR.TesseractPath)
	return err == nil
}

// Info returns a Markdown summary of engines, formats and configuration.
func Info(cfg *config.Config) string {
	fallback := cfg.Extract.FallbackEngine
	if !cfg.HasFallback() {
		fallback = config.NoFallback
	}
	ocr := "not found"
	if OCRAvailable(cfg) {
		ocr = "available (" + cfg.OCR.TesseractPath + ", lang " + cfg.OCR.Language + ")"
	}

	return fmt.Sprintf(`# Document Extraction Info

## Engines
- %s: page geometry (pdf, pptx, xlsx) → page tree
- %s: flat element sequence (%s)
- %s: text layer + Tesseract for scanned pages (pdf, images)

## Supported Formats
%s

## Configuration
- Primary engine: %s
- Fallback engine: %s
- Partition strategy: %s
- Orphan policy: %s
- Max file size: %d MB
- OCR: %s`,
		EngineLayout,
		EnginePartition, strings.Join(partitionFormats.extensions(), ", "),
		EngineOCR,
		"- "+strings.Join(SupportedFormats(), "\n- "),
		cfg.Extract.PrimaryEngine,
		fallback,
		cfg.Extract.PartitionStrategy,
		cfg.Extract.OrphanPolicy,
		cfg.MaxFileSizeMB(),
		ocr,
	)
}
