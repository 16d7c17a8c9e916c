package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Cortexa-LLC/mcp/src/docextract/config"
	"github.com/Cortexa-LLC/mcp/src/docextract/converter"
	"github.com/Cortexa-LLC/mcp/src/docextract/document"
)

// Server identity constants.
const (
	serverName    = "docextract"
	serverVersion = "0.1.0"
)

// MCP tool parameter key constants, shared between schema definitions and
// argument extraction.
const (
	argPath       = "path"
	argOutputPath = "output_path"
)

// extractor is the part of *extract.Extractor the tools need.
type extractor interface {
	Extract(ctx context.Context, path string) (*document.ExtractedDocument, error)
}

func main() {
	cfg := config.Load()
	// stdout carries the MCP protocol.
	logger := cfg.Logger(os.Stderr)

	x, err := converter.New(cfg, logger)
	if err != nil {
		logger.Error("build extractor", "error", err)
		os.Exit(1)
	}

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, x, func() string { return converter.Info(cfg) })

	logger.Info("serving MCP over stdio", "primary", x.Primary(), "fallback", x.Fallback())
	if err := server.ServeStdio(s); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// registerTools binds MCP tool definitions to their handlers.
func registerTools(s *server.MCPServer, x extractor, info func() string) {
	s.AddTool(
		mcp.NewTool("extract_document",
			mcp.WithDescription("Extract a document into page-grouped, classified content items and return it as JSON. "+
				"Each page lists items of type title, text, table, list_item, header, footer or unknown. "+
				"Supported formats: "+strings.Join(converter.SupportedFormats(), ", ")+"."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the document to extract"),
			),
			mcp.WithString(argOutputPath,
				mcp.Description("Optional path; when set the JSON is also written there"),
			),
		),
		extractDocumentHandler(x),
	)

	s.AddTool(
		mcp.NewTool("extract_to_markdown",
			mcp.WithDescription("Extract a document and render the result as Markdown, one section per page."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the document to extract"),
			),
		),
		extractMarkdownHandler(x),
	)

	s.AddTool(
		mcp.NewTool("get_extraction_info",
			mcp.WithDescription("Return the available engines, supported file formats and active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(info()), nil
		},
	)
}

func extractDocumentHandler(x extractor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, errRes := extractArg(ctx, x, req)
		if errRes != nil {
			return errRes, nil
		}
		data, err := document.Marshal(doc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if out, _ := req.Params.Arguments[argOutputPath].(string); out != "" {
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("write %s: %v", out, err)), nil
			}
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func extractMarkdownHandler(x extractor) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, errRes := extractArg(ctx, x, req)
		if errRes != nil {
			return errRes, nil
		}
		return mcp.NewToolResultText(document.RenderMarkdown(doc)), nil
	}
}

// extractArg validates the path argument and runs the extractor. A non-nil
// result is a tool error to hand back to the client as is.
func extractArg(ctx context.Context, x extractor, req mcp.CallToolRequest) (*document.ExtractedDocument, *mcp.CallToolResult) {
	path, ok := req.Params.Arguments[argPath].(string)
	if !ok || path == "" {
		return nil, mcp.NewToolResultError(argPath + " is required")
	}
	if !filepath.IsAbs(path) {
		return nil, mcp.NewToolResultError(argPath + " must be absolute")
	}
	doc, err := x.Extract(ctx, path)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return doc, nil
}
