package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// Granularity selects the calendar period reviews are bucketed by.
type Granularity string

const (
	Hour      Granularity = "hour"
	DayOfWeek Granularity = "dayOfWeek"
	Week      Granularity = "week"
	Month     Granularity = "month"
	Season    Granularity = "season"
	Year      Granularity = "year"
)

// Granularities lists every supported granularity.
func Granularities() []Granularity {
	return []Granularity{Hour, DayOfWeek, Week, Month, Season, Year}
}

// ParseGranularity accepts the canonical names case-insensitively, plus
// "day_of_week" and "weekday".
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour":
		return Hour, nil
	case "dayofweek", "day_of_week", "weekday":
		return DayOfWeek, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	case "season":
		return Season, nil
	case "year":
		return Year, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidGranularity, s)
}

// Chronological reports whether labels of g form a time line (week, month,
// year) rather than a repeating cycle.
func (g Granularity) Chronological() bool {
	return g == Week || g == Month || g == Year
}

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var seasonNames = [4]string{"Spring", "Summer", "Fall", "Winter"}

// SeasonOf maps a month to its meteorological season.
func SeasonOf(m time.Month) string {
	// Shift so March is 0: Spring 0-2, Summer 3-5, Fall 6-8, Winter 9-11.
	return seasonNames[((int(m)-int(time.March))+12)%12/3]
}

// PeriodLabel returns the bucket label of t for g.
func PeriodLabel(t time.Time, g Granularity) string {
	switch g {
	case Hour:
		return fmt.Sprintf("%02d:00", t.Hour())
	case DayOfWeek:
		return weekdayNames[t.Weekday()]
	case Week:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", y, w)
	case Season:
		return SeasonOf(t.Month())
	case Year:
		return strconv.Itoa(t.Year())
	default:
		return t.Format("2006-01")
	}
}

// Bucket is one period with its member reviews and their Stats.
type Bucket struct {
	Label   string          `json:"label"`
	Stats   Stats           `json:"stats"`
	Reviews []domain.Review `json:"-"`
}

// Grouping is the result of Group: buckets in calendar order for cyclic
// granularities and chronological order otherwise.
type Grouping struct {
	Granularity Granularity `json:"granularity"`
	Buckets     []Bucket    `json:"buckets"`
	Undated     int         `json:"undated"`
}

// Map returns the label to reviews view of the grouping.
func (g Grouping) Map() map[string][]domain.Review {
	m := make(map[string][]domain.Review, len(g.Buckets))
	for _, b := range g.Buckets {
		m[b.Label] = b.Reviews
	}
	return m
}

// Labels returns bucket labels in order.
func (g Grouping) Labels() []string {
	out := make([]string, len(g.Buckets))
	for i, b := range g.Buckets {
		out[i] = b.Label
	}
	return out
}

// Bucket returns the bucket labelled label.
func (g Grouping) Bucket(label string) (Bucket, bool) {
	for _, b := range g.Buckets {
		if b.Label == label {
			return b, true
		}
	}
	return Bucket{}, false
}

// Group buckets reviews by g using each review's own time location. Reviews
// without a date are counted in Undated and left out of every bucket.
// DayOfWeek always yields all 7 weekdays and Season all 4 seasons, empty ones
// included; other granularities yield only populated periods (see
// Continuous).
func Group(reviews []domain.Review, g Granularity) Grouping {
	members := make(map[string][]domain.Review)
	undated := 0
	for _, r := range reviews {
		if !r.HasDate() {
			undated++
			continue
		}
		label := PeriodLabel(r.PublishedAt, g)
		members[label] = append(members[label], r)
	}

	var labels []string
	switch g {
	case DayOfWeek:
		labels = weekdayNames[:]
	case Season:
		labels = seasonNames[:]
	default:
		labels = make([]string, 0, len(members))
		for l := range members {
			labels = append(labels, l)
		}
		// Every label format sorts chronologically as a string.
		sort.Strings(labels)
	}

	buckets := make([]Bucket, 0, len(labels))
	for _, l := range labels {
		rs := members[l]
		buckets = append(buckets, Bucket{Label: l, Stats: Aggregate(rs), Reviews: rs})
	}

	return Grouping{Granularity: g, Buckets: buckets, Undated: undated}
}

// NextLabel returns the label n periods after label. Week, month and year
// labels are advanced on the calendar; anything else becomes "label+n".
func NextLabel(label string, g Granularity, n int) string {
	if next, ok := stepLabel(label, g, n); ok {
		return next
	}
	return fmt.Sprintf("%s+%d", label, n)
}

func stepLabel(label string, g Granularity, n int) (string, bool) {
	switch g {
	case Month:
		if t, err := time.Parse("2006-01", label); err == nil {
			return t.AddDate(0, n, 0).Format("2006-01"), true
		}
	case Year:
		if y, err := strconv.Atoi(label); err == nil {
			return strconv.Itoa(y + n), true
		}
	case Week:
		if monday, ok := isoWeekStart(label); ok {
			return PeriodLabel(monday.AddDate(0, 0, 7*n), Week), true
		}
	}
	return "", false
}

// Continuous fills the calendar gaps between the first and last bucket of a
// chronological grouping with empty buckets, so bucket i is always i periods
// after the first. Cyclic groupings are returned unchanged.
func (g Grouping) Continuous() Grouping {
	if !g.Granularity.Chronological() || len(g.Buckets) < 2 {
		return g
	}

	out := make([]Bucket, 0, len(g.Buckets))
	for _, b := range g.Buckets {
		if n := len(out); n > 0 {
			label, ok := stepLabel(out[n-1].Label, g.Granularity, 1)
			for ok && label < b.Label {
				out = append(out, Bucket{Label: label, Stats: Aggregate(nil)})
				label, ok = stepLabel(label, g.Granularity, 1)
			}
		}
		out = append(out, b)
	}
	g.Buckets = out
	return g
}

// isoWeekStart returns the Monday of an ISO "YYYY-Www" label.
func isoWeekStart(label string) (time.Time, bool) {
	yearPart, weekPart, ok := strings.Cut(label, "-W")
	if !ok {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(yearPart)
	week, err2 := strconv.Atoi(weekPart)
	if err1 != nil || err2 != nil || week < 1 || week > 53 {
		return time.Time{}, false
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, 7*(week-1)), true
}
