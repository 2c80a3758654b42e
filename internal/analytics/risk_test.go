package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

func findRisk(risks []RiskIndicator, kind RiskKind) (RiskIndicator, bool) {
	for _, r := range risks {
		if r.Kind == kind {
			return r, true
		}
	}
	return RiskIndicator{}, false
}

func TestDetectRisks_TooFewPeriods(t *testing.T) {
	th := DefaultParams().Risk
	got := DetectRisks(nil, nil, time.Time{}, th)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, DetectRisks([]Bucket{bucket("2024-01", 10, 5, 100)}, nil, time.Time{}, th))
}

func TestDetectRisks_RatingBoundary(t *testing.T) {
	th := DefaultParams().Risk

	got := DetectRisks([]Bucket{bucket("2024-01", 10, 4.3, 80), bucket("2024-02", 10, 4.0, 80)}, nil, time.Time{}, th)
	r, ok := findRisk(got, RiskRatingDecline)
	require.True(t, ok, "a 0.3 drop must trigger")
	assert.Equal(t, SeverityHigh, r.Severity)
	assert.InDelta(t, 30, r.Probability, 1e-6)

	got = DetectRisks([]Bucket{bucket("2024-01", 10, 4.29, 80), bucket("2024-02", 10, 4.0, 80)}, nil, time.Time{}, th)
	_, ok = findRisk(got, RiskRatingDecline)
	assert.False(t, ok, "a 0.29 drop must not trigger")
}

func TestDetectRisks_RatingCritical(t *testing.T) {
	got := DetectRisks([]Bucket{bucket("2024-01", 10, 4.6, 80), bucket("2024-02", 10, 4.0, 80)}, nil, time.Time{}, DefaultParams().Risk)
	r, ok := findRisk(got, RiskRatingDecline)
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, r.Severity)
	assert.InDelta(t, 60, r.Probability, 1e-6)
}

func TestDetectRisks_Volume(t *testing.T) {
	th := DefaultParams().Risk

	got := DetectRisks([]Bucket{bucket("2024-01", 10, 4, 80), bucket("2024-02", 8, 4, 80)}, nil, time.Time{}, th)
	r, ok := findRisk(got, RiskVolumeDrop)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, r.Severity)
	assert.InDelta(t, 20, r.Probability, 1e-6)

	got = DetectRisks([]Bucket{bucket("2024-01", 10, 4, 80), bucket("2024-02", 6, 4, 80)}, nil, time.Time{}, th)
	r, ok = findRisk(got, RiskVolumeDrop)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, r.Severity)

	got = DetectRisks([]Bucket{bucket("2024-01", 100, 4, 80), bucket("2024-02", 1, 4, 80)}, nil, time.Time{}, th)
	r, _ = findRisk(got, RiskVolumeDrop)
	assert.Equal(t, 85.0, r.Probability)

	got = DetectRisks([]Bucket{bucket("2024-01", 10, 4, 80), bucket("2024-02", 9, 4, 80)}, nil, time.Time{}, th)
	_, ok = findRisk(got, RiskVolumeDrop)
	assert.False(t, ok)
}

func TestDetectRisks_Sentiment(t *testing.T) {
	th := DefaultParams().Risk

	got := DetectRisks([]Bucket{bucket("2024-01", 10, 4, 80), bucket("2024-02", 10, 4, 65)}, nil, time.Time{}, th)
	r, ok := findRisk(got, RiskSentimentShift)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, r.Severity)
	assert.InDelta(t, 30, r.Probability, 1e-6)

	got = DetectRisks([]Bucket{bucket("2024-01", 10, 4, 80), bucket("2024-02", 10, 4, 50)}, nil, time.Time{}, th)
	r, ok = findRisk(got, RiskSentimentShift)
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, r.Severity)
	assert.InDelta(t, 60, r.Probability, 1e-6)
}

func TestDetectRisks_UsesLastWindow(t *testing.T) {
	periods := []Bucket{
		bucket("2024-01", 10, 5, 100),
		bucket("2024-02", 10, 4.5, 90),
		bucket("2024-03", 10, 4.5, 90),
		bucket("2024-04", 10, 4.5, 90),
	}
	assert.Empty(t, DetectRisks(periods, nil, time.Time{}, DefaultParams().Risk))
}

func TestDetectRisks_SkipsEmptyEndpoints(t *testing.T) {
	periods := []Bucket{bucket("Sunday", 0, 0, 0), bucket("Monday", 10, 4, 80)}
	assert.Empty(t, DetectRisks(periods, nil, time.Time{}, DefaultParams().Risk))
}

func TestDetectRisks_SortedByProbability(t *testing.T) {
	periods := []Bucket{bucket("2024-01", 10, 4.6, 90), bucket("2024-02", 5, 4.0, 50)}
	got := DetectRisks(periods, nil, time.Time{}, DefaultParams().Risk)
	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Probability, got[i].Probability)
	}
	// rating 60, volume 50, sentiment 80
	assert.Equal(t, RiskSentimentShift, got[0].Kind)
	assert.Equal(t, RiskRatingDecline, got[1].Kind)
	assert.Equal(t, RiskVolumeDrop, got[2].Kind)
}

func TestSeasonalRisk(t *testing.T) {
	th := DefaultParams().Risk
	history := []domain.Review{
		review("a", 5, at(2023, time.January, 5, 0)),
		review("b", 5, at(2023, time.February, 5, 0)),
		review("c", 2, at(2023, time.December, 5, 0)),
		review("d", 2, at(2024, time.December, 5, 0)),
		review("e", 5, at(2024, time.June, 5, 0)),
		review("f", 1, time.Time{}),
	}

	// overall 19/5 = 3.8, December 2.0
	r, ok := seasonalRisk(history, at(2025, time.December, 1, 0), th)
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, r.Severity)
	assert.InDelta(t, 70, r.Probability, 1e-6)
	assert.Contains(t, r.Description, "December")

	_, ok = seasonalRisk(history, at(2025, time.January, 1, 0), th)
	assert.False(t, ok, "January is above average")

	_, ok = seasonalRisk(history, at(2025, time.March, 1, 0), th)
	assert.False(t, ok, "no March history")

	_, ok = seasonalRisk(history, time.Time{}, th)
	assert.False(t, ok)
}

func TestSeasonalRisk_SmallDeficitIgnored(t *testing.T) {
	history := []domain.Review{
		review("a", 4, at(2023, time.January, 5, 0)),
		review("b", 4, at(2023, time.February, 5, 0)),
		review("c", 3, at(2023, time.March, 5, 0)),
	}
	// overall 3.67, March 3.0: deficit 0.67 > 0.6
	_, ok := seasonalRisk(history, at(2024, time.March, 1, 0), DefaultParams().Risk)
	assert.True(t, ok)

	history[2].Stars = 4
	history = append(history, review("d", 3, at(2023, time.March, 20, 0)))
	// overall 3.75, March 3.5: deficit 0.25
	_, ok = seasonalRisk(history, at(2024, time.March, 1, 0), DefaultParams().Risk)
	assert.False(t, ok)
}
