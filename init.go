package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/seesoft/internal/config"
)

// sentinels delimit a generated block inside a user-owned file.
type sentinels struct {
	start, end string
}

var agentMarkers = sentinels{
	start: "<!-- seesoft:agents:start -->",
	end:   "<!-- seesoft:agents:end -->",
}

type initOptions struct {
	agents   string
	dryRun   bool
	noConfig bool
}

func newInitCmd(a *app) *cobra.Command {
	o := &initOptions{}
	cmd := &cobra.Command{
		Use:   "init [DIR]",
		Short: "Write a default .seesoft/config.yaml",
		Long: `Write a default .seesoft/config.yaml in DIR (default: the working directory).

With --agents FILE, also write a seesoft usage section to FILE (for example
CLAUDE.md). The section is wrapped in sentinel comments so it can be updated
in place on later runs without touching surrounding content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return a.runInit(dir, o)
		},
	}
	cmd.Flags().StringVar(&o.agents, "agents", "", "also write a usage section to this file")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print what would be written without modifying any file")
	cmd.Flags().BoolVar(&o.noConfig, "no-config", false, "skip writing the config file")
	return cmd
}

func (a *app) runInit(dir string, o *initOptions) error {
	section := generateSection()

	// --dry-run with no target: just print the section itself.
	if o.dryRun && o.agents == "" {
		_, _ = fmt.Fprintln(a.stdout, section)
		return nil
	}

	if !o.noConfig && !o.dryRun {
		path, err := config.SaveDefault(dir)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", path)
	}

	if o.agents == "" {
		return nil
	}

	existing, _ := os.ReadFile(o.agents)
	updated := agentMarkers.apply(string(existing), section)

	if o.dryRun {
		_, _ = fmt.Fprint(a.stdout, updated)
		return nil
	}

	if err := os.WriteFile(o.agents, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", o.agents, err)
	}

	_, _ = fmt.Fprintf(a.stderr, "wrote seesoft section to %s\n", o.agents)
	return nil
}

// generateSection returns the sentinel-wrapped seesoft usage block.
func generateSection() string {
	body := `## seesoft: code thumbnails

Run ` + "`seesoft`" + ` via the Bash tool to get a one-glance picture of how a source
file is structured: which regions are imports, variables, functions, and
exported interface, and how much is left as comment or uncategorized text.

**Availability:** Check with ` + "`seesoft --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
seesoft annotate path/to/file.go -o file.json   # annotate a source file
seesoft render file.json                        # write file.png
seesoft render file.json --small --width 80vh   # compact view, CSS width
seesoft render file.json --hits -               # hit regions as TOON
seesoft batch src/ --sources -o thumbs/ -n 20   # thumbnails of the 20 most structured files
` + "```" + `

**Reading the output:** each hit row maps a thumbnail pixel to an inline
anchor (` + "`#code-<anchor>`" + ` in the HTML from ` + "`--html`" + `). The ` + "`coverage`" + `
column of ` + "`seesoft batch`" + ` is the share of non-blank characters inside an
annotation; low coverage usually means comments or unparsed code.

**All flags:** ` + "`seesoft --help`"

	return agentMarkers.start + "\n" + body + "\n" + agentMarkers.end
}

// apply inserts section into content, replacing an existing sentinel block if
// present or appending if not.
func (s sentinels) apply(content, section string) string {
	start := strings.Index(content, s.start)
	end := strings.Index(content, s.end)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(s.end):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
