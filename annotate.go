package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phobologic/seesoft/internal/annotate"
	"github.com/phobologic/seesoft/internal/document"
	"github.com/phobologic/seesoft/internal/logger"
	"github.com/phobologic/seesoft/internal/model"
)

func newAnnotateCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "annotate SOURCE",
		Short: "Produce an annotation document for a source file",
		Long: `Produce an annotation document for a source file (a path or http(s) URL).

Go, Python, Ruby, Lua, JavaScript, and Rust are parsed with tree-sitter and
annotated structurally. Any other language chroma can lex gets a flat
annotation from its tokens.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			start := time.Now()

			doc, err := annotate.New().Document(ctx, args[0])
			if err != nil {
				return err
			}
			logger.L(ctx).Debug("annotated",
				zap.String("source", args[0]),
				zap.Int("nodes", model.CountNodes(doc.Nodes)),
				zap.Duration("took", time.Since(start)))

			data, err := document.Encode(doc)
			if err != nil {
				return err
			}
			if output == "" {
				output = "-"
			}
			if err := a.writeOutput(output, data); err != nil {
				return err
			}
			if output != "-" {
				_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "document output path (default: stdout)")
	return cmd
}
