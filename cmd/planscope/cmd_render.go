package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mquispe/planscope/internal/report"
)

var renderOut string

var renderCmd = &cobra.Command{
	Use:   "render <party-slug-a> <party-slug-b>",
	Short: "Render the comparison as markdown, HTML, or PDF",
	Long: `Builds the comparison for two party slugs and writes a report. The
output format follows the -o extension: .md, .html, or .pdf. Without -o the
markdown is printed to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output file (.md, .html, or .pdf)")
}

func runRender(cmd *cobra.Command, args []string) error {
	cmp, err := loadComparison(cmd, args[0], args[1])
	if err != nil {
		return err
	}
	if cmp == nil {
		return fmt.Errorf("no comparison available for %s vs %s", args[0], args[1])
	}

	markdown := report.BuildMarkdown(cmp)

	if renderOut == "" {
		fmt.Print(markdown)
		return nil
	}

	switch strings.ToLower(filepath.Ext(renderOut)) {
	case ".md":
		return os.WriteFile(renderOut, []byte(markdown), 0o644)
	case ".html":
		html, err := report.RenderHTML(markdown)
		if err != nil {
			return err
		}
		return os.WriteFile(renderOut, []byte(html), 0o644)
	case ".pdf":
		pdf, err := report.NewPDFRenderer().Render(cmd.Context(), markdown)
		if err != nil {
			return err
		}
		return os.WriteFile(renderOut, pdf, 0o644)
	default:
		return fmt.Errorf("unsupported output extension %q: use .md, .html, or .pdf", filepath.Ext(renderOut))
	}
}
