// Package config loads runtime configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// EnvMaxFileBytes is the environment variable name for the file size limit.
	EnvMaxFileBytes = "DOCEXTRACT_MAX_FILE_BYTES"

	EnvPrimaryEngine     = "DOCEXTRACT_PRIMARY_ENGINE"
	EnvFallbackEngine    = "DOCEXTRACT_FALLBACK_ENGINE"
	EnvPartitionStrategy = "DOCEXTRACT_PARTITION_STRATEGY"
	EnvOrphanPolicy      = "DOCEXTRACT_ORPHAN_POLICY"

	EnvTesseractPath = "TESSERACT_PATH"
	EnvTesseractLang = "TESSERACT_LANG"
	EnvTessdataDir   = "TESSDATA_PREFIX"
	EnvPdftoppmPath  = "PDFTOPPM_PATH"
	EnvOCRDPI        = "DOCEXTRACT_OCR_DPI"
	EnvOCRMaxPages   = "DOCEXTRACT_OCR_MAX_PAGES"

	EnvListenAddr = "DOCEXTRACT_LISTEN_ADDR"
	EnvUploadDir  = "DOCEXTRACT_UPLOAD_DIR"
	EnvStorePath  = "DOCEXTRACT_STORE_PATH"
	EnvLogLevel   = "DOCEXTRACT_LOG_LEVEL"
)

const (
	// DefaultMaxFileBytes is the default maximum accepted file size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20

	DefaultPrimaryEngine     = "layout"
	DefaultFallbackEngine    = "partition"
	DefaultPartitionStrategy = "hi_res"
	DefaultOrphanPolicy      = "surface"
	DefaultOCRDPI            = 300
	DefaultListenAddr        = ":8080"
	DefaultStorePath         = "docextract.db"

	// NoFallback disables the fallback engine.
	NoFallback = "none"
)

// KnownEngines lists the engine names Validate accepts.
var KnownEngines = []string{"layout", "ocr", "partition"}

// Config holds runtime configuration sourced from environment variables.
type Config struct {
	MaxFileSizeBytes int64
	LogLevel         string

	Extract ExtractConfig
	OCR     OCRConfig
	Server  ServerConfig
}

// ExtractConfig selects and tunes the engines.
type ExtractConfig struct {
	PrimaryEngine     string
	FallbackEngine    string // NoFallback or "" disables the fallback
	PartitionStrategy string // "fast" | "hi_res"
	OrphanPolicy      string // "surface" | "drop"
}

// OCRConfig configures Tesseract and the PDF rasteriser.
type OCRConfig struct {
	TesseractPath string
	Language      string
	TessdataDir   string
	PdftoppmPath  string
	DPI           int
	MaxPages      int // 0 = no limit
}

// ServerConfig configures the upload web server.
type ServerConfig struct {
	ListenAddr string
	UploadDir  string
	StorePath  string
}

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// HasFallback reports whether a fallback engine is configured.
func (c *Config) HasFallback() bool {
	fb := c.Extract.FallbackEngine
	return fb != "" && fb != NoFallback
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values.
func Load() *Config {
	return &Config{
		MaxFileSizeBytes: getEnvAsPositiveInt64(EnvMaxFileBytes, DefaultMaxFileBytes),
		LogLevel:         strings.ToLower(getEnv(EnvLogLevel, "info")),
		Extract: ExtractConfig{
			PrimaryEngine:     strings.ToLower(getEnv(EnvPrimaryEngine, DefaultPrimaryEngine)),
			FallbackEngine:    strings.ToLower(getEnv(EnvFallbackEngine, DefaultFallbackEngine)),
			PartitionStrategy: strings.ToLower(getEnv(EnvPartitionStrategy, DefaultPartitionStrategy)),
			OrphanPolicy:      strings.ToLower(getEnv(EnvOrphanPolicy, DefaultOrphanPolicy)),
		},
		OCR: OCRConfig{
			TesseractPath: getEnv(EnvTesseractPath, "tesseract"),
			Language:      getEnv(EnvTesseractLang, "eng"),
			TessdataDir:   getEnv(EnvTessdataDir, ""),
			PdftoppmPath:  getEnv(EnvPdftoppmPath, "pdftoppm"),
			DPI:           getEnvAsPositiveInt(EnvOCRDPI, DefaultOCRDPI),
			MaxPages:      getEnvAsNonNegativeInt(EnvOCRMaxPages, 0),
		},
		Server: ServerConfig{
			ListenAddr: getEnv(EnvListenAddr, DefaultListenAddr),
			UploadDir:  getEnv(EnvUploadDir, filepath.Join(os.TempDir(), "docextract-uploads")),
			StorePath:  getEnv(EnvStorePath, DefaultStorePath),
		},
	}
}

// Validate rejects settings the engines cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if !isKnownEngine(c.Extract.PrimaryEngine) {
		errs = append(errs, fmt.Errorf("%s: unknown engine %q (known: %s)",
			EnvPrimaryEngine, c.Extract.PrimaryEngine, strings.Join(KnownEngines, ", ")))
	}
	if c.HasFallback() {
		if !isKnownEngine(c.Extract.FallbackEngine) {
			errs = append(errs, fmt.Errorf("%s: unknown engine %q (known: %s, %s)",
				EnvFallbackEngine, c.Extract.FallbackEngine, strings.Join(KnownEngines, ", "), NoFallback))
		} else if c.Extract.FallbackEngine == c.Extract.PrimaryEngine {
			errs = append(errs, fmt.Errorf("%s: fallback engine must differ from primary %q",
				EnvFallbackEngine, c.Extract.PrimaryEngine))
		}
	}
	switch c.Extract.PartitionStrategy {
	case "fast", "hi_res":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown strategy %q (expected fast or hi_res)",
			EnvPartitionStrategy, c.Extract.PartitionStrategy))
	}
	switch c.Extract.OrphanPolicy {
	case "surface", "drop":
	default:
		errs = append(errs, fmt.Errorf("%s: unknown policy %q (expected surface or drop)",
			EnvOrphanPolicy, c.Extract.OrphanPolicy))
	}
	if c.OCR.DPI <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %d", EnvOCRDPI, c.OCR.DPI))
	}
	if c.MaxFileSizeBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive, got %d", EnvMaxFileBytes, c.MaxFileSizeBytes))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
	}
	return errors.Join(errs...)
}

// Logger builds a text slog.Logger writing to w at the configured level.
// An unparseable level falls back to info.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func isKnownEngine(name string) bool {
	for _, e := range KnownEngines {
		if e == name {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsPositiveInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvAsPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvAsNonNegativeInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return defaultValue
}
