package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/analytics"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/service"
	apperrors "github.com/Arthurkhan/star-gazer-analysis-sub004/pkg/errors"
)

const (
	defaultSnapshotLimit = 20
	maxSnapshotLimit     = 100
)

// businessFilter reads business_id; absent means all businesses.
func businessFilter(r *http.Request) (domain.BusinessFilter, error) {
	v := strings.TrimSpace(r.URL.Query().Get("business_id"))
	if v == "" {
		return domain.AllBusinesses, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return domain.AllBusinesses, apperrors.InvalidInput(fmt.Sprintf("business_id must be a UUID, got %q", v))
	}
	return domain.ForBusiness(id.String()), nil
}

// parseTime accepts RFC 3339 timestamps and YYYY-MM-DD dates. A bare date
// used as an upper bound covers the whole day.
func parseTime(name, value string, upper bool) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput(fmt.Sprintf("%s must be an RFC 3339 timestamp or YYYY-MM-DD date, got %q", name, value))
	}
	if upper {
		t = t.AddDate(0, 0, 1)
	}
	return t, nil
}

// parseQuery reads business_id, from and to.
func parseQuery(r *http.Request) (service.Query, error) {
	q := r.URL.Query()
	from, err := parseTime("from", q.Get("from"), false)
	if err != nil {
		return service.Query{}, err
	}
	to, err := parseTime("to", q.Get("to"), true)
	if err != nil {
		return service.Query{}, err
	}
	business, err := businessFilter(r)
	if err != nil {
		return service.Query{}, err
	}
	query := service.Query{
		Business: business,
		Range:    domain.DateRange{From: from, To: to},
	}
	if err := query.Range.Validate(); err != nil {
		return service.Query{}, apperrors.InvalidInput(err.Error())
	}
	return query, nil
}

func parseGranularity(r *http.Request) (analytics.Granularity, error) {
	v := r.URL.Query().Get("granularity")
	if v == "" {
		return analytics.DefaultGranularity, nil
	}
	g, err := analytics.ParseGranularity(v)
	if err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}
	return g, nil
}

func parseMetric(r *http.Request) (analytics.Metric, error) {
	v := r.URL.Query().Get("metric")
	if v == "" {
		return analytics.MetricRating, nil
	}
	m, err := analytics.ParseMetric(v)
	if err != nil {
		return "", apperrors.InvalidInput(err.Error())
	}
	return m, nil
}

// parseInt reads an integer parameter, returning def when absent.
func parseInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidInput(fmt.Sprintf("%s must be an integer, got %q", name, v))
	}
	return n, nil
}

func parseBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
