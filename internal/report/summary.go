package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/gwdetchar/gwsummary/internal/tabs"
)

// writeSummary records the run as a Markdown file next to the HTML, so
// the output tree is self-describing without a browser.
func (w *Writer) writeSummary() error {
	f, err := os.Create(filepath.Join(w.outDir, "summary.md"))
	if err != nil {
		return fmt.Errorf("create run summary: %w", err)
	}
	defer f.Close()

	md := markdown.NewMarkdown(f)
	md.H1("Summary report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Interferometer", w.info.IFO},
			{"Span", w.info.Span.String()},
			{"Mode", w.info.Mode},
			{"Generated", w.now().Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")

	md.H2("Tabs")
	md.PlainText("")
	var lines []string
	for _, root := range w.roots {
		root.Walk(func(n *tabs.Node) {
			figures := 0
			for _, p := range n.Tab.Plots() {
				if p.Href != "" {
					figures++
				}
			}
			lines = append(lines, n.Tab.Name()+" ("+strconv.Itoa(figures)+" figures)")
		})
	}
	md.BulletList(lines...)
	md.PlainText("")

	if len(w.info.ConfigFiles) > 0 {
		md.H2("Configuration files")
		md.PlainText("")
		md.BulletList(w.info.ConfigFiles...)
		md.PlainText("")
	}
	return md.Build()
}
