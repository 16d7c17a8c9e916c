// Command docextract extracts one document, saves the result as JSON and
// prints a short summary.
//
// Usage:
//
//	docextract [-o out.json] [-markdown] [-engine layout] [-fallback partition] <file>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/docextract/config"
	"github.com/Cortexa-LLC/mcp/src/docextract/converter"
	"github.com/Cortexa-LLC/mcp/src/docextract/document"
	"github.com/Cortexa-LLC/mcp/src/docextract/extract"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run is main without the process exit, returning the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("docextract", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "", "output JSON path (default <file>_extracted.json next to the input)")
	markdown := fs.Bool("markdown", false, "also write <output>.md rendered as Markdown")
	primary := fs.String("engine", cfg.Extract.PrimaryEngine, "primary engine: "+strings.Join(config.KnownEngines, ", "))
	fallback := fs.String("fallback", cfg.Extract.FallbackEngine, `fallback engine, or "none"`)
	strategy := fs.String("strategy", cfg.Extract.PartitionStrategy, "partition strategy: fast or hi_res")
	info := fs.Bool("info", false, "print engines, formats and configuration, then exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: docextract [flags] <file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg.Extract.PrimaryEngine = *primary
	cfg.Extract.FallbackEngine = *fallback
	cfg.Extract.PartitionStrategy = *strategy
	logger := cfg.Logger(stderr)

	if *info {
		fmt.Fprint(stdout, converter.Info(cfg))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)

	x, err := converter.New(cfg, logger)
	if err != nil {
		logger.Error("build extractor", "error", err)
		return 1
	}

	doc, err := x.Extract(ctx, path)
	if err != nil {
		logger.Error("extraction failed", "path", path, "error", err)
		if errors.Is(err, extract.ErrNotFound) {
			return 2
		}
		return 1
	}

	if *out == "" {
		*out = defaultOutput(path)
	}
	if err := document.WriteJSON(*out, doc); err != nil {
		logger.Error("save json", "error", err)
		return 1
	}
	if *markdown {
		mdPath := strings.TrimSuffix(*out, filepath.Ext(*out)) + ".md"
		if err := os.WriteFile(mdPath, []byte(document.RenderMarkdown(doc)), 0o644); err != nil {
			logger.Error("save markdown", "error", err)
			return 1
		}
	}

	printSummary(stdout, doc, *out)
	return 0
}

func defaultOutput(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_extracted.json"
}

func printSummary(w io.Writer, doc *document.ExtractedDocument, out string) {
	fmt.Fprintf(w, "Extracted %s with %s engine\n", doc.SourcePath, doc.Engine)
	fmt.Fprintf(w, "Pages: %d\n", doc.PageCount)
	fmt.Fprintf(w, "Items: %d\n", doc.ItemCount())
	counts := doc.CountByKind()
	for _, k := range document.Kinds {
		if n := counts[k]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", k, n)
		}
	}
	fmt.Fprintf(w, "Saved to %s\n", out)
}
