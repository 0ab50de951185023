package sink

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"retainsim/domain/policy"
	"retainsim/internal/errors"
)

// topColumns is the subset shown in console and report summaries
var topColumns = []string{
	"target_pct", "discount", "n_target", "delta_profit_expectation",
	"delta_profit_ci_lo", "delta_profit_ci_hi", "treat_roi",
}

func topRow(r policy.SimulationResult) []string {
	return []string{
		FormatFloat(r.TargetPct),
		FormatFloat(r.Discount),
		fmt.Sprintf("%d", r.NTarget),
		formatMoney(r.DeltaProfitExpectation),
		formatMoney(r.DeltaProfitCILo),
		formatMoney(r.DeltaProfitCIHi),
		formatRatio(r.TreatROI),
	}
}

func formatMoney(v float64) string {
	if policy.IsUndefined(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatRatio(v float64) string {
	if policy.IsUndefined(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}

func head(results []policy.SimulationResult, n int) []policy.SimulationResult {
	if n < 0 || n > len(results) {
		n = len(results)
	}
	return results[:n]
}

// WriteTop prints the first n ranked results as an aligned table
func WriteTop(w io.Writer, results []policy.SimulationResult, n int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(topColumns, "\t")+"\t")
	for _, r := range head(results, n) {
		fmt.Fprintln(tw, strings.Join(topRow(r), "\t")+"\t")
	}
	return tw.Flush()
}

// Markdown renders the run summary and the top n results as a Markdown document
func Markdown(manifest policy.RunManifest, results []policy.SimulationResult, n int) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Retention offer simulation\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", manifest.RunID)
	fmt.Fprintf(&b, "- Fingerprint: `%s`\n", manifest.Fingerprint.Short())
	fmt.Fprintf(&b, "- Customers: %d\n", manifest.Customers)
	fmt.Fprintf(&b, "- Policies evaluated: %d\n", len(results))
	fmt.Fprintf(&b, "- Margin %s, beta %s, %d trials, seed %d\n\n",
		FormatFloat(manifest.Params.Margin), FormatFloat(manifest.Params.Beta),
		manifest.Params.Trials, manifest.Params.Seed)

	top := head(results, n)
	fmt.Fprintf(&b, "## Top %d policies\n\n", len(top))
	fmt.Fprintf(&b, "| %s |\n", strings.Join(topColumns, " | "))
	fmt.Fprintf(&b, "|%s\n", strings.Repeat(" ---: |", len(topColumns)))
	for _, r := range top {
		fmt.Fprintf(&b, "| %s |\n", strings.Join(topRow(r), " | "))
	}
	return b.Bytes()
}

// HTML renders the Markdown summary as a complete HTML page
func HTML(manifest policy.RunManifest, results []policy.SimulationResult, n int) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: "Retention offer simulation",
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(Markdown(manifest, results, n), p, renderer)
}

// WriteReport writes the summary to path as HTML for .html/.htm and Markdown otherwise
func WriteReport(path string, manifest policy.RunManifest, results []policy.SimulationResult, n int) error {
	var body []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		body = HTML(manifest, results, n)
	default:
		body = Markdown(manifest, results, n)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write report %s", path)
	}
	return nil
}
