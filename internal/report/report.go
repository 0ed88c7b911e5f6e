// Package report writes the static HTML summary tree: one page per
// tab, an About page, an error page wired up through .htaccess, and a
// Markdown run summary.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/tabs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// htaccess maps the HTTP error statuses onto the generated error page.
const htaccess = `ErrorDocument 404 /error.html
ErrorDocument 403 /error.html
`

// Info describes the run a report covers.
type Info struct {
	IFO         string
	Span        gpstime.Span
	Mode        string
	GPSMode     bool
	ConfigFiles []string
}

// Writer renders the report tree for one run. It implements
// tabs.ReportWriter.
type Writer struct {
	outDir string
	info   Info
	roots  []*tabs.Node
	nodes  map[tabs.Tab]*tabs.Node
	logger *slog.Logger

	// now is stubbed in tests for stable output.
	now func() time.Time
}

// New builds a writer over a processed tab hierarchy.
func New(outDir string, info Info, roots []*tabs.Node, logger *slog.Logger) *Writer {
	w := &Writer{
		outDir: outDir,
		info:   info,
		roots:  roots,
		nodes:  make(map[tabs.Tab]*tabs.Node),
		logger: logger,
		now:    time.Now,
	}
	for _, root := range roots {
		root.Walk(func(n *tabs.Node) { w.nodes[n.Tab] = n })
	}
	return w
}

// WriteAll writes every tab page plus the shared pages. The first
// top-level tab doubles as the front page.
func (w *Writer) WriteAll() error {
	for _, root := range w.roots {
		var err error
		root.Walk(func(n *tabs.Node) {
			if err == nil {
				err = n.Tab.WriteReport(w)
			}
		})
		if err != nil {
			return err
		}
	}

	if len(w.roots) > 0 {
		if err := w.writePage(w.roots[0], ""); err != nil {
			return err
		}
	}
	if err := w.writeAbout(); err != nil {
		return err
	}
	if err := w.writeErrorPage(); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.outDir, ".htaccess"), []byte(htaccess), 0600); err != nil {
		return fmt.Errorf("write .htaccess: %w", err)
	}
	return w.writeSummary()
}

// WriteTabPage renders one tab's page into its directory.
func (w *Writer) WriteTabPage(t tabs.Tab) error {
	node, ok := w.nodes[t]
	if !ok {
		return fmt.Errorf("tab %q is not part of the report hierarchy", t.Name())
	}
	return w.writePage(node, node.Dir())
}

type navItem struct {
	Name     string
	Href     string
	Active   bool
	Children []navItem
}

type figure struct {
	Href    string
	Caption string
}

type figureRow struct {
	// Width is the bootstrap column width, 12 divided by the number of
	// figures on the row.
	Width   int
	Figures []figure
}

type channelInfo struct {
	Name       string
	SampleRate string
	Type       string
}

type pageData struct {
	Title     string
	IFO       string
	Span      gpstime.Span
	Generated time.Time
	RelRoot   string
	Nav       []navItem
	Rows      []figureRow
	Channels  []channelInfo
}

func (w *Writer) writePage(node *tabs.Node, dir string) error {
	relRoot := ""
	if dir != "" {
		relRoot = strings.Repeat("../", strings.Count(dir, "/")+1)
	}
	data := pageData{
		Title:     node.Tab.Name(),
		IFO:       w.info.IFO,
		Span:      w.info.Span,
		Generated: w.now(),
		RelRoot:   relRoot,
		Nav:       w.buildNav(node),
		Rows:      buildRows(node.Tab),
		Channels:  w.channelTable(node.Tab),
	}

	pageDir := filepath.Join(w.outDir, filepath.FromSlash(dir))
	if err := os.MkdirAll(pageDir, 0750); err != nil {
		return fmt.Errorf("create page directory: %w", err)
	}
	f, err := os.Create(filepath.Join(pageDir, "index.html"))
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer f.Close()

	if err := pageTemplates.ExecuteTemplate(f, "page", data); err != nil {
		return fmt.Errorf("render page %q: %w", node.Tab.Name(), err)
	}
	w.logger.Debug("wrote page", "tab", node.Tab.Name(), "dir", pageDir)
	return nil
}

// buildNav lists the top-level tabs with their children, marking the
// current tab and its ancestors active.
func (w *Writer) buildNav(current *tabs.Node) []navItem {
	active := make(map[*tabs.Node]bool)
	for n := current; n != nil; n = n.Parent {
		active[n] = true
	}
	items := make([]navItem, 0, len(w.roots))
	for _, root := range w.roots {
		item := navItem{
			Name:   root.Tab.Name(),
			Href:   root.Dir() + "/index.html",
			Active: active[root],
		}
		for _, child := range root.Children {
			item.Children = append(item.Children, navItem{
				Name:   child.Tab.Name(),
				Href:   child.Dir() + "/index.html",
				Active: active[child],
			})
		}
		items = append(items, item)
	}
	return items
}

// buildRows arranges the tab's figures into rows per its layout. The
// last layout value repeats for any remaining figures.
func buildRows(t tabs.Tab) []figureRow {
	plots := t.Plots()
	layout := t.Layout()
	if len(layout) == 0 {
		layout = []int{2}
	}

	var rows []figureRow
	i, row := 0, 0
	for i < len(plots) {
		perRow := layout[min(row, len(layout)-1)]
		fr := figureRow{Width: 12 / perRow}
		for j := 0; j < perRow && i < len(plots); j++ {
			p := plots[i]
			if p.Href != "" {
				fr.Figures = append(fr.Figures, figure{
					Href:    p.Href,
					Caption: strings.Join(p.Sources, ", "),
				})
			}
			i++
		}
		if len(fr.Figures) > 0 {
			rows = append(rows, fr)
		}
		row++
	}
	return rows
}

// channelTable describes the tab's channels for the information table.
func (w *Writer) channelTable(t tabs.Tab) []channelInfo {
	var out []channelInfo
	for _, name := range t.Requires().Channels {
		info := channelInfo{Name: name, SampleRate: "-", Type: model.TrendTypeRaw}
		if ch, err := model.ParseChannel(name, w.info.GPSMode); err == nil {
			if ch.Type != "" {
				info.Type = ch.Type
			}
			if ch.SampleRate > 0 {
				info.SampleRate = strings.TrimRight(strings.TrimRight(
					fmt.Sprintf("%.4f", ch.SampleRate), "0"), ".")
			}
		}
		out = append(out, info)
	}
	return out
}

type aboutData struct {
	IFO         string
	Span        gpstime.Span
	Mode        string
	Generated   time.Time
	ConfigFiles []string
}

func (w *Writer) writeAbout() error {
	dir := filepath.Join(w.outDir, "about")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create about directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "index.html"))
	if err != nil {
		return fmt.Errorf("create about page: %w", err)
	}
	defer f.Close()
	return pageTemplates.ExecuteTemplate(f, "about", aboutData{
		IFO:         w.info.IFO,
		Span:        w.info.Span,
		Mode:        w.info.Mode,
		Generated:   w.now(),
		ConfigFiles: w.info.ConfigFiles,
	})
}

func (w *Writer) writeErrorPage() error {
	f, err := os.Create(filepath.Join(w.outDir, "error.html"))
	if err != nil {
		return fmt.Errorf("create error page: %w", err)
	}
	defer f.Close()
	return pageTemplates.ExecuteTemplate(f, "error", aboutData{
		IFO:  w.info.IFO,
		Span: w.info.Span,
	})
}
