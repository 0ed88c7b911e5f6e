package report

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/gwdetchar/gwsummary/internal/gpstime"
	"github.com/gwdetchar/gwsummary/internal/model"
	"github.com/gwdetchar/gwsummary/internal/tabs"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTab is a minimal tab for report tests.
type fakeTab struct {
	name     string
	parent   string
	plots    []*tabs.Plot
	channels []string
}

func (f *fakeTab) Name() string          { return f.name }
func (f *fakeTab) ParentName() string    { return f.parent }
func (f *fakeTab) States() []model.State { return []model.State{{Name: model.AllState}} }
func (f *fakeTab) Layout() []int         { return []int{2} }
func (f *fakeTab) Plots() []*tabs.Plot   { return f.plots }
func (f *fakeTab) Requires() tabs.Requirement {
	return tabs.Requirement{Channels: f.channels}
}
func (f *fakeTab) AssignHrefs(*tabs.Deps)                    {}
func (f *fakeTab) Process(context.Context, *tabs.Deps) error { return nil }
func (f *fakeTab) WriteReport(rw tabs.ReportWriter) error    { return rw.WriteTabPage(f) }
func (f *fakeTab) Path() string {
	return strings.ReplaceAll(strings.ToLower(f.name), " ", "_")
}

func testWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	roots := tabs.BuildHierarchy([]tabs.Tab{
		&fakeTab{
			name: "Summary",
			plots: []*tabs.Plot{
				{Index: 0, Sources: []string{"L1:GDS-CALIB_STRAIN"}, Href: "plots/strain.png"},
				{Index: 1, Sources: []string{"L1:LSC-MICH_IN1_DQ"}, Href: "plots/mich.png"},
			},
			channels: []string{"L1:GDS-CALIB_STRAIN", "L1:SUS-ETMX_POS.mean,m-trend"},
		},
		&fakeTab{name: "Calibration", parent: "Detector"},
	})
	w := New(dir, Info{
		IFO:         "L1",
		Span:        gpstime.Span{Start: 1187000000, End: 1187086400},
		Mode:        "day",
		ConfigFiles: []string{"l1summary.ini"},
	}, roots, discard())
	w.now = func() time.Time { return time.Date(2017, 8, 17, 12, 0, 0, 0, time.UTC) }
	return w, dir
}

func parsePage(t *testing.T, path string) *html.Node {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open page: %v", err)
	}
	defer f.Close()
	doc, err := html.Parse(f)
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	return doc
}

// collect walks the document gathering data for assertions.
func collect(n *html.Node, tag string, out *[]*html.Node) {
	if n.Type == html.ElementNode && n.Data == tag {
		*out = append(*out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, tag, out)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func TestWriteAll(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, path := range []string{
		"index.html",
		"summary/index.html",
		"detector/index.html",
		"detector/calibration/index.html",
		"about/index.html",
		"error.html",
		".htaccess",
		"summary.md",
	} {
		if _, err := os.Stat(filepath.Join(dir, path)); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}
}

func TestTabPageContent(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := parsePage(t, filepath.Join(dir, "summary", "index.html"))

	var titles []*html.Node
	collect(doc, "title", &titles)
	if len(titles) != 1 || !strings.Contains(text(titles[0]), "Summary") {
		t.Error("page title should name the tab")
	}

	var imgs []*html.Node
	collect(doc, "img", &imgs)
	if len(imgs) != 2 {
		t.Fatalf("got %d figures, want 2", len(imgs))
	}
	if src := attr(imgs[0], "src"); src != "../plots/strain.png" {
		t.Errorf("figure src = %q", src)
	}

	var tables []*html.Node
	collect(doc, "table", &tables)
	if len(tables) != 1 {
		t.Fatalf("got %d tables", len(tables))
	}
	if body := text(tables[0]); !strings.Contains(body, "m-trend") {
		t.Error("channel table should show the trend type")
	}
}

func TestNavigationLinks(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := parsePage(t, filepath.Join(dir, "detector", "calibration", "index.html"))

	var links []*html.Node
	collect(doc, "a", &links)
	found := false
	for _, a := range links {
		if attr(a, "href") == "../../summary/index.html" {
			found = true
		}
	}
	if !found {
		t.Error("nested page should link back to the summary tab through the root")
	}
}

func TestFrontPageIsFirstTab(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := parsePage(t, filepath.Join(dir, "index.html"))
	var imgs []*html.Node
	collect(doc, "img", &imgs)
	if len(imgs) != 2 {
		t.Fatalf("front page should mirror the first tab, got %d figures", len(imgs))
	}
	if src := attr(imgs[0], "src"); src != "plots/strain.png" {
		t.Errorf("front page figure src = %q", src)
	}
}

func TestHtaccess(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, ".htaccess"))
	if err != nil {
		t.Fatalf("read .htaccess: %v", err)
	}
	for _, status := range []string{"404", "403"} {
		if !strings.Contains(string(b), "ErrorDocument "+status+" /error.html") {
			t.Errorf(".htaccess missing %s mapping", status)
		}
	}
}

func TestRunSummary(t *testing.T) {
	t.Parallel()

	w, dir := testWriter(t)
	if err := w.WriteAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "summary.md"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	s := string(b)
	for _, want := range []string{"Summary report", "L1", "day", "Calibration"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
