package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/seesoft/internal/mcpserver"
)

func newMCPCmd(a *app) *cobra.Command {
	var (
		tools     string
		listTools bool
	)
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve seesoft tools over MCP (stdio transport)",
		Long: `Start an MCP (Model Context Protocol) server on stdin/stdout.

Available tools:
  seesoft_render    Render a document to a PNG thumbnail
  seesoft_hits      Hit regions of a document as TOON
  seesoft_annotate  Annotation document for a source file

Render flags set the defaults every tool call starts from.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listTools {
				for _, t := range mcpserver.AllTools {
					_, _ = fmt.Fprintln(a.stdout, t)
				}
				return nil
			}

			var names []string
			if tools != "" {
				for _, t := range strings.Split(tools, ",") {
					t = strings.TrimSpace(t)
					if t == "" {
						continue
					}
					// Allow shorthand (render -> seesoft_render)
					if !strings.HasPrefix(t, "seesoft_") {
						t = "seesoft_" + t
					}
					names = append(names, t)
				}
			}

			r, done, err := a.renderer(f)
			if err != nil {
				return err
			}
			defer done()

			s, err := mcpserver.New(mcpserver.Config{
				Version:  version,
				Renderer: *r,
				Views:    mcpserver.Views{Full: a.cfg.View.Full, Small: a.cfg.View.Small},
				Colors:   a.cfg.Render.Colors,
				Tools:    names,
				Logger:   a.log,
			})
			if err != nil {
				return err
			}
			return s.ServeStdio()
		},
	}
	f.register(cmd.Flags())
	cmd.Flags().StringVar(&tools, "tools", "", "comma-separated tools to expose (default: all)")
	cmd.Flags().BoolVar(&listTools, "list-tools", false, "list available tools and exit")
	return cmd
}
