// Package export renders the merchandising catalog to PDF via headless
// Chrome.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"
)

var ErrPDFDependencyMissing = errors.New("pdf dependency missing")

type CatalogRow struct {
	Order    int
	Name     string
	Featured bool
	Active   bool
}

type CatalogSection struct {
	Title string
	Rows  []CatalogRow
}

type CatalogDocument struct {
	GeneratedAt time.Time
	Sections    []CatalogSection
}

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// CatalogPDF renders the document to HTML and converts it with Chrome.
func (s *Service) CatalogPDF(ctx context.Context, doc CatalogDocument) ([]byte, error) {
	html, err := renderCatalogHTML(doc)
	if err != nil {
		return nil, fmt.Errorf("render catalog: %w", err)
	}
	return htmlToPDF(ctx, html)
}

var catalogTemplate = template.Must(template.New("catalog").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: -apple-system, "Helvetica Neue", Arial, sans-serif; color: #1a1a2e; margin: 0; }
  h1 { font-size: 22px; margin-bottom: 4px; }
  .generated { color: #6b7280; font-size: 11px; margin-bottom: 24px; }
  h2 { font-size: 15px; border-bottom: 2px solid #4f46e5; padding-bottom: 4px; margin-top: 28px; }
  table { width: 100%; border-collapse: collapse; font-size: 12px; }
  th { text-align: left; color: #6b7280; font-weight: 600; padding: 6px 8px; }
  td { padding: 6px 8px; border-top: 1px solid #e5e7eb; }
  .order { width: 36px; color: #9ca3af; }
  .badge { display: inline-block; font-size: 10px; padding: 1px 6px; border-radius: 8px; margin-left: 6px; }
  .featured { background: #fef3c7; color: #92400e; }
  .inactive { background: #fee2e2; color: #991b1b; }
  .empty { color: #9ca3af; font-style: italic; padding: 8px; }
</style>
</head>
<body>
<h1>StepAI Service Catalog</h1>
<div class="generated">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}</div>
{{range .Sections}}
<h2>{{.Title}}</h2>
{{if .Rows}}
<table>
<tr><th class="order">#</th><th>Service</th></tr>
{{range .Rows}}
<tr>
  <td class="order">{{.Order}}</td>
  <td>{{.Name}}{{if .Featured}}<span class="badge featured">featured</span>{{end}}{{if not .Active}}<span class="badge inactive">inactive</span>{{end}}</td>
</tr>
{{end}}
</table>
{{else}}
<div class="empty">No services listed.</div>
{{end}}
{{end}}
</body>
</html>`))

func renderCatalogHTML(doc CatalogDocument) (string, error) {
	var buf bytes.Buffer
	if err := catalogTemplate.Execute(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}
