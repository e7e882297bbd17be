package main

import (
	"github.com/spf13/cobra"

	"github.com/phobologic/seesoft/internal/inline"
)

func newViewCmd(a *app) *cobra.Command {
	f := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "view DOC",
		Short: "Print the colored inline view of a document to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, done, err := a.renderer(f)
			if err != nil {
				return err
			}
			defer done()

			out, err := r.Document(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return inline.WriteANSI(a.stdout, out.Tokens)
		},
	}
	f.register(cmd.Flags())
	return cmd
}
