// Package mcpserver provides an MCP (Model Context Protocol) server for
// seesoft. Agents render thumbnails, look up hit regions, and annotate
// source files through tools instead of spawning the CLI.
package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/annotate"
	"github.com/phobologic/seesoft/internal/document"
	"github.com/phobologic/seesoft/internal/geometry"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/palette"
	"github.com/phobologic/seesoft/internal/render"
	"github.com/phobologic/seesoft/internal/toon"
)

// Server wraps the MCP server with seesoft-specific functionality.
type Server struct {
	mcpServer *server.MCPServer
	renderer  render.Renderer
	view      Views
	colors    map[string]string
	log       *zap.Logger
	tools     map[string]bool
}

// Views holds the display bounds used to size thumbnails.
type Views struct {
	Full  geometry.Bounds
	Small geometry.Bounds
}

// Config holds server configuration.
type Config struct {
	Version  string
	Renderer render.Renderer
	Views    Views
	Colors   map[string]string // Palette overrides applied to a requested palette
	Tools    []string          // Which tools to expose (empty = all)
	Logger   *zap.Logger
}

// AllTools lists all available tools.
var AllTools = []string{"seesoft_render", "seesoft_hits", "seesoft_annotate"}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	if cfg.Views.Full.MaxWidth == 0 {
		cfg.Views.Full = geometry.FullBounds
	}
	if cfg.Views.Small.MaxWidth == 0 {
		cfg.Views.Small = geometry.SmallBounds
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		mcpServer: server.NewMCPServer("seesoft", version, server.WithToolCapabilities(false)),
		renderer:  cfg.Renderer,
		view:      cfg.Views,
		colors:    cfg.Colors,
		log:       log,
		tools:     make(map[string]bool),
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}
	for _, name := range toolsToRegister {
		if err := s.registerTool(name); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", name, err)
		}
		s.tools[name] = true
	}

	return s, nil
}

func (s *Server) registerTool(name string) error {
	switch name {
	case "seesoft_render":
		return s.registerRenderTool()
	case "seesoft_hits":
		return s.registerHitsTool()
	case "seesoft_annotate":
		return s.registerAnnotateTool()
	default:
		return fmt.Errorf("unknown tool: %s", name)
	}
}

// ServeStdio starts the server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ListTools returns the registered tool names, sorted.
func (s *Server) ListTools() []string {
	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

func (s *Server) registerRenderTool() error {
	tool := mcp.NewTool("seesoft_render",
		mcp.WithDescription("Render an annotation document as a SeeSoft thumbnail PNG. Returns the image and its display size."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Path or URL of the annotation document (JSON)"),
		),
		mcp.WithString("palette",
			mcp.Description("Palette name: "+strings.Join(palette.Names(), ", ")),
		),
		mcp.WithBoolean("comments",
			mcp.Description("Draw text outside any annotation as comment (default: from config)"),
		),
		mcp.WithBoolean("small",
			mcp.Description("Size for the compact file list instead of the full view"),
		),
		mcp.WithString("width",
			mcp.Description("Requested display width: pixels or an expression such as 80vh"),
		),
		mcp.WithString("height",
			mcp.Description("Requested display height: pixels or an expression such as 50%"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleRender)
	return nil
}

func (s *Server) registerHitsTool() error {
	tool := mcp.NewTool("seesoft_hits",
		mcp.WithDescription("List the thumbnail hit regions of an annotation document in TOON format: pixel centers, scroll offsets, and inline anchors."),
		mcp.WithString("document",
			mcp.Required(),
			mcp.Description("Path or URL of the annotation document (JSON)"),
		),
		mcp.WithBoolean("runs",
			mcp.Description("Include the colored run table"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleHits)
	return nil
}

func (s *Server) registerAnnotateTool() error {
	tool := mcp.NewTool("seesoft_annotate",
		mcp.WithDescription("Produce an annotation document (JSON) for a source file by parsing it."),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Path or URL of the source file"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleAnnotate)
	return nil
}

func (s *Server) handleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, ok := args["document"].(string)
	if !ok || ref == "" {
		return mcp.NewToolResultError("document parameter is required"), nil
	}

	r := s.renderer
	if name, ok := args["palette"].(string); ok && name != "" {
		p, err := palette.Named(name)
		if err == nil {
			p, err = p.WithOverrides(s.colors)
		}
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r.Options.Palette = p
	}
	if c, ok := args["comments"].(bool); ok {
		r.Options.Comments = c
	}
	small, _ := args["small"].(bool)
	if small {
		r.Options.NoHits = true
	}

	out, err := r.Document(s.context(ctx), ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	reqW, _ := args["width"].(string)
	reqH, _ := args["height"].(string)
	bounds := s.view.Full
	if small {
		bounds = s.view.Small
	}
	w, h := out.Fit(geometry.ParseDimension(reqW), geometry.ParseDimension(reqH), bounds)

	summary := fmt.Sprintf("image: %dx%d\ndisplay: %sx%s\ncoverage: %.4f\nruns: %d",
		out.Grid.ImageWidth(), out.Grid.ImageHeight(), w, h, out.Coverage, len(out.Runs))
	return mcp.NewToolResultImage(summary, base64.StdEncoding.EncodeToString(out.PNG), "image/png"), nil
}

func (s *Server) handleHits(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, ok := args["document"].(string)
	if !ok || ref == "" {
		return mcp.NewToolResultError("document parameter is required"), nil
	}

	r := s.renderer
	r.Options.NoHits = false
	out, err := r.Document(s.context(ctx), ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := &toon.Report{Path: ref, Grid: out.Grid, Hits: out.Hits}
	if withRuns, _ := args["runs"].(bool); withRuns {
		report.Runs = out.Runs
	}
	return mcp.NewToolResultText(toon.Encode(report)), nil
}

func (s *Server) handleAnnotate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	ref, ok := args["source"].(string)
	if !ok || ref == "" {
		return mcp.NewToolResultError("source parameter is required"), nil
	}

	doc, err := annotate.New().Document(s.context(ctx), ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := document.Encode(doc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) context(ctx context.Context) context.Context {
	return logger.NewContext(ctx, s.log)
}
