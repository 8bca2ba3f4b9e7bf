package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPlot Format = "plot"
)

// ParseFormat validates a report format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatPlot:
		return FormatPlot, nil
	}
	return "", fmt.Errorf("unknown report format %q, expected csv or plot", s)
}

// openFile is swapped in tests.
var openFile = browser.OpenFile

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script type="module">
import mermaid from "https://cdn.jsdelivr.net/npm/mermaid@11/dist/mermaid.esm.min.mjs";
mermaid.initialize({ startOnLoad: true });
</script>
</head>
<body>
<h1>{{.Title}}</h1>
<pre class="mermaid">
{{.Diagram}}</pre>
</body>
</html>
`))

// HTMLPage renders a self-contained page that draws the diagram in the browser.
func HTMLPage(title, diagram string) (string, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct{ Title, Diagram string }{title, diagram})
	if err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}
	return buf.String(), nil
}

// WriteTo writes a report to path, or to stdout when path is empty or "-".
func WriteTo(path string, stdout io.Writer, render func(io.Writer) error) error {
	if path == "" || path == "-" {
		return render(stdout)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Report written")
	return nil
}

// WriteChart writes a diagram as an HTML page when path ends in .html or .htm, and as
// Markdown otherwise.
func WriteChart(path string, stdout io.Writer, title, diagram string) error {
	if diagram == "" {
		return fmt.Errorf("nothing to plot")
	}

	content := Markdown(diagram)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		page, err := HTMLPage(title, diagram)
		if err != nil {
			return err
		}
		content = page
	}

	return WriteTo(path, stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	})
}

// Open shows a written report in the default browser.
func Open(path string) error {
	if path == "" || path == "-" {
		return fmt.Errorf("cannot open a report written to stdout")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := openFile(abs); err != nil {
		return fmt.Errorf("failed to open %s: %w", abs, err)
	}
	return nil
}
