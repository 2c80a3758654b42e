// Package report renders analytics reports as downloadable documents.
package report

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts json (the default for ""), html and pdf.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatHTML, FormatPDF:
		return f, nil
	}
	return "", apperrors.InvalidInput(fmt.Sprintf("invalid export format %q, want json, html or pdf", s))
}

// Document is everything an exported report shows.
type Document struct {
	Business        domain.BusinessFilter `json:"-"`
	BusinessName    string                `json:"business_name,omitempty"`
	Range           domain.DateRange      `json:"range"`
	GeneratedAt     time.Time             `json:"generated_at"`
	Report          analytics.Report      `json:"report"`
	Recommendations *recommend.Result     `json:"recommendations,omitempty"`
}

func (d Document) title() string {
	if d.BusinessName != "" {
		return d.BusinessName + " review report"
	}
	if d.Business.IsAll() {
		return "All businesses review report"
	}
	return "Business " + d.Business.ID() + " review report"
}

// File is a rendered export.
type File struct {
	ContentType string
	Filename    string
	Body        []byte
}

// PDFRenderer converts an HTML document to PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte) ([]byte, error)
}

// Exporter renders Documents. PDF output needs a PDFRenderer.
type Exporter struct {
	tmpl *template.Template
	pdf  PDFRenderer
}

// NewExporter parses the report template. pdf may be nil, which disables
// the pdf format.
func NewExporter(pdf PDFRenderer) (*Exporter, error) {
	tmpl, err := template.New("report.html.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/report.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse report template: %w", err)
	}
	return &Exporter{tmpl: tmpl, pdf: pdf}, nil
}

// PDFEnabled reports whether the pdf format is available.
func (e *Exporter) PDFEnabled() bool {
	return e.pdf != nil
}

// Export renders doc in format.
func (e *Exporter) Export(ctx context.Context, format Format, doc Document) (*File, error) {
	name := filename(doc)
	switch format {
	case FormatJSON, "":
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal report: %w", err)
		}
		return &File{ContentType: "application/json", Filename: name + ".json", Body: body}, nil
	case FormatHTML:
		body, err := e.HTML(doc)
		if err != nil {
			return nil, err
		}
		return &File{ContentType: "text/html; charset=utf-8", Filename: name + ".html", Body: body}, nil
	case FormatPDF:
		if e.pdf == nil {
			return nil, apperrors.NotImplemented("pdf export is not configured")
		}
		page, err := e.HTML(doc)
		if err != nil {
			return nil, err
		}
		body, err := e.pdf.RenderPDF(ctx, page)
		if err != nil {
			return nil, apperrors.Unavailable("pdf renderer", err)
		}
		return &File{ContentType: "application/pdf", Filename: name + ".pdf", Body: body}, nil
	}
	return nil, apperrors.InvalidInput(fmt.Sprintf("invalid export format %q", format))
}

// HTML renders doc with the report template.
func (e *Exporter) HTML(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, view{Document: doc, Title: doc.title()}); err != nil {
		return nil, fmt.Errorf("render report template: %w", err)
	}
	return buf.Bytes(), nil
}

type view struct {
	Document
	Title string
}

func filename(doc Document) string {
	date := doc.GeneratedAt
	if date.IsZero() {
		date = time.Now()
	}
	return fmt.Sprintf("stargazer-%s-%s", doc.Business.String(), date.UTC().Format("20060102"))
}

var funcs = template.FuncMap{
	"stars": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"ratio": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.UTC().Format("2006-01-02")
	},
	"value": func(p *float64) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *p)
	},
	"inc": func(i int) int { return i + 1 },
}
