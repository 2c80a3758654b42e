package report

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/recommend"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func sampleDocument() Document {
	reviews := []domain.Review{
		{ID: "r1", BusinessID: "b1", Stars: 5, PublishedAt: at(2024, 1, 5), Sentiment: domain.SentimentPositive, MainThemes: "coffee", StaffMentioned: "Ana"},
		{ID: "r2", BusinessID: "b1", Stars: 5, PublishedAt: at(2024, 2, 5), Sentiment: domain.SentimentPositive, MainThemes: "coffee"},
		{ID: "r3", BusinessID: "b1", Stars: 1, PublishedAt: at(2024, 3, 5), Sentiment: domain.SentimentNegative, MainThemes: "service"},
	}
	rep := analytics.NewEngine(analytics.DefaultParams()).Analyze(reviews, analytics.DefaultOptions())
	return Document{
		Business:     domain.ForBusiness("b1"),
		BusinessName: `Cafe <script>alert("x")</script>`,
		Range:        domain.DateRange{From: at(2024, 1, 1), To: at(2024, 4, 1)},
		GeneratedAt:  at(2024, 4, 2),
		Report:       rep,
		Recommendations: &recommend.Result{
			Source:   recommend.SourceFallback,
			Reason:   "no recommendation provider configured",
			Recommendations: recommend.Recommendations{
				Actions: []recommend.Action{{Title: "Respond to more reviews", Priority: recommend.PriorityHigh}},
			},
		},
	}
}

type fakePDF struct {
	got []byte
	err error
}

func (f *fakePDF) RenderPDF(_ context.Context, html []byte) ([]byte, error) {
	f.got = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 fake"), nil
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "json": FormatJSON, "HTML": FormatHTML, " pdf ": FormatPDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("xlsx")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestExport_JSON(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)

	f, err := e.Export(context.Background(), FormatJSON, sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, "application/json", f.ContentType)
	assert.Equal(t, "stargazer-b1-20240402.json", f.Filename)

	var decoded struct {
		Report struct {
			Summary analytics.Stats `json:"summary"`
		} `json:"report"`
		Recommendations *recommend.Result `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(f.Body, &decoded))
	assert.Equal(t, 3, decoded.Report.Summary.Count)
	require.NotNil(t, decoded.Recommendations)
	assert.Equal(t, recommend.SourceFallback, decoded.Recommendations.Source)
}

func TestExport_HTML(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)

	doc := sampleDocument()
	f, err := e.Export(context.Background(), FormatHTML, doc)
	require.NoError(t, err)
	assert.Equal(t, "stargazer-b1-20240402.html", f.Filename)

	html := string(f.Body)
	assert.Contains(t, html, "2024-01-01 to 2024-04-01")
	assert.Contains(t, html, "3.67")
	assert.Contains(t, html, "<th>Rolling</th>")
	assert.Contains(t, html, "Respond to more reviews")
	assert.Contains(t, html, "coffee")
	assert.Contains(t, html, "Ana")
	assert.NotContains(t, html, "<script>", "business name must be escaped")
	require.NotEmpty(t, doc.Report.Risks)
	assert.Contains(t, html, "risk-"+string(doc.Report.Risks[0].Severity))
}

func TestExport_HTML_AllBusinessesWithoutRecommendations(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)

	body, err := e.HTML(Document{Report: analytics.NewEngine(analytics.DefaultParams()).Analyze(nil, analytics.AnalyzeOptions{})})
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "All businesses review report")
	assert.Contains(t, html, "No risks detected.")
	assert.Contains(t, html, "open to open")
	assert.False(t, strings.Contains(html, "<h2>Recommendations</h2>"))
}

func TestExport_PDFDisabled(t *testing.T) {
	e, err := NewExporter(nil)
	require.NoError(t, err)
	assert.False(t, e.PDFEnabled())

	_, err = e.Export(context.Background(), FormatPDF, sampleDocument())
	assert.ErrorIs(t, err, apperrors.ErrNotImplemented)
}

func TestExport_PDF(t *testing.T) {
	pdf := &fakePDF{}
	e, err := NewExporter(pdf)
	require.NoError(t, err)

	f, err := e.Export(context.Background(), FormatPDF, sampleDocument())
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", f.ContentType)
	assert.Equal(t, "stargazer-b1-20240402.pdf", f.Filename)
	assert.Contains(t, string(pdf.got), "<!DOCTYPE html>")
}

func TestExport_PDFRendererFailure(t *testing.T) {
	e, err := NewExporter(&fakePDF{err: errors.New("chrome gone")})
	require.NoError(t, err)

	_, err = e.Export(context.Background(), FormatPDF, sampleDocument())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
}

func TestChromePDF_UnreachableBrowser(t *testing.T) {
	r := NewChromePDF("ws://127.0.0.1:1/devtools/browser/none", 2*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := r.RenderPDF(context.Background(), []byte("<html><body>x</body></html>"))
	assert.Error(t, err)
}
