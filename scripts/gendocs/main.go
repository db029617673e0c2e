// Package main generates the markdown CLI reference from the cobra command tree.
//
// Usage:
//
//	go run ./scripts/gendocs -outdir=docs/cli
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leapdb/internal/cli"
	"github.com/leapstack-labs/leapdb/internal/cli/config"
	"github.com/leapstack-labs/leapdb/internal/cli/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const generatedMarker = "<!-- Code generated by scripts/gendocs. DO NOT EDIT. -->"

var outDirFlag = flag.String("outdir", "", "output directory (default: docs/cli under the project root)")

func main() {
	flag.Parse()

	outDir := *outDirFlag
	if outDir == "" {
		root, err := findProjectRoot()
		if err != nil {
			log.Fatalf("failed to find project root: %v", err)
		}
		outDir = filepath.Join(root, "docs", "cli")
	}

	if err := generate(cli.NewRootCmd(), outDir); err != nil {
		log.Fatalf("failed to generate CLI docs: %v", err)
	}
	log.Println("Done!")
}

func generate(rootCmd *cobra.Command, outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := writePage(filepath.Join(outDir, "index.md"), indexPage(rootCmd)); err != nil {
		return err
	}
	for _, cmd := range visibleCommands(rootCmd) {
		if err := writePage(filepath.Join(outDir, cmd.Name()+".md"), commandPage(cmd)); err != nil {
			return err
		}
		log.Printf("  generated %s.md", cmd.Name())
	}
	return nil
}

func writePage(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func visibleCommands(rootCmd *cobra.Command) []*cobra.Command {
	var cmds []*cobra.Command
	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

type page struct {
	sb strings.Builder
}

func (p *page) line(s string) {
	p.sb.WriteString(s)
	p.sb.WriteString("\n\n")
}

func (p *page) table(header []string, rows [][]string) {
	t := table.NewWriter()
	h := make(table.Row, len(header))
	for i, v := range header {
		h[i] = v
	}
	t.AppendHeader(h)
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		t.AppendRow(r)
	}
	p.line(t.RenderMarkdown())
}

func (p *page) String() string { return p.sb.String() }

func indexPage(rootCmd *cobra.Command) string {
	var p page
	p.line(generatedMarker)
	p.line(output.FormatHeader(1, "CLI Reference"))
	p.line(rootCmd.Long)

	p.line(output.FormatHeader(2, "Commands"))
	var rows [][]string
	for _, cmd := range visibleCommands(rootCmd) {
		rows = append(rows, []string{fmt.Sprintf("[`%s`](%s.md)", cmd.Name(), cmd.Name()), cmd.Short})
	}
	p.table([]string{"Command", "Description"}, rows)

	p.line(output.FormatHeader(2, "Global Options"))
	p.table(flagHeader, flagRows(rootCmd.PersistentFlags()))

	p.line(output.FormatHeader(2, "Environment Variables"))
	p.line(fmt.Sprintf("Every configuration key can be set with a `%s` variable. "+
		"A double underscore separates nesting levels, so `%sCONNECTIONS__DEV__PASSWORD` "+
		"sets `connections.dev.password`. Flags take precedence over environment variables.",
		config.EnvPrefix, config.EnvPrefix))

	p.line(output.FormatHeader(2, "Exit Codes"))
	p.table([]string{"Code", "Meaning"}, [][]string{
		{"`0`", "Success"},
		{"`1`", "Error (details on stderr)"},
	})
	return p.String()
}

func commandPage(cmd *cobra.Command) string {
	var p page
	p.line(generatedMarker)
	p.line(output.FormatHeader(1, cmd.Name()))
	if cmd.Long != "" {
		p.line(cmd.Long)
	} else {
		p.line(cmd.Short)
	}

	p.line(output.FormatHeader(2, "Usage"))
	p.line(output.FormatCodeBlock("bash", cmd.UseLine()))

	if cmd.HasLocalFlags() {
		p.line(output.FormatHeader(2, "Options"))
		p.table(flagHeader, flagRows(cmd.LocalFlags()))
	}
	if cmd.Example != "" {
		p.line(output.FormatHeader(2, "Examples"))
		p.line(output.FormatCodeBlock("bash", dedent(cmd.Example)))
	}
	return p.String()
}

var flagHeader = []string{"Option", "Short", "Default", "Description"}

func flagRows(flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short := ""
		if f.Shorthand != "" {
			short = "`-" + f.Shorthand + "`"
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = "`" + def + "`"
		}
		rows = append(rows, []string{"`--" + f.Name + "`", short, def, f.Usage})
	})
	return rows
}

// dedent removes the indentation shared by all non-blank lines.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == -1 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return strings.TrimSpace(s)
	}
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
