package analytics

import (
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/Arthurkhan/star-gazer-analysis-sub004/internal/domain"
)

// ClusterBucket is one labelled bucket of a clustering dimension.
type ClusterBucket struct {
	Label     string   `json:"label"`
	Stats     Stats    `json:"stats"`
	ReviewIDs []string `json:"review_ids"`
}

// Clusters partitions reviews along five independent dimensions. Empty
// clusters are omitted.
type Clusters struct {
	Sentiment []ClusterBucket `json:"sentiment"`
	Themes    []ClusterBucket `json:"themes"`
	Stars     []ClusterBucket `json:"stars"`
	Length    []ClusterBucket `json:"length"`
	Response  []ClusterBucket `json:"response"`
}

const (
	LengthVeryShort = "very-short"
	LengthShort     = "short"
	LengthMedium    = "medium"
	LengthLong      = "long"
	LengthVeryLong  = "very-long"

	Responded  = "responded"
	Unanswered = "unanswered"
)

// LengthBucket classifies text by character count.
func LengthBucket(text string) string {
	switch n := utf8.RuneCountInString(text); {
	case n < 50:
		return LengthVeryShort
	case n < 150:
		return LengthShort
	case n < 300:
		return LengthMedium
	case n < 500:
		return LengthLong
	default:
		return LengthVeryLong
	}
}

type clusterSet struct {
	order   []string
	members map[string][]domain.Review
}

func newClusterSet(order ...string) *clusterSet {
	return &clusterSet{order: order, members: make(map[string][]domain.Review)}
}

func (s *clusterSet) add(label string, r domain.Review) {
	if _, ok := s.members[label]; !ok && !contains(s.order, label) {
		s.order = append(s.order, label)
	}
	s.members[label] = append(s.members[label], r)
}

func (s *clusterSet) clusters() []ClusterBucket {
	out := make([]ClusterBucket, 0, len(s.members))
	for _, label := range s.order {
		rs := s.members[label]
		if len(rs) == 0 {
			continue
		}
		ids := make([]string, len(rs))
		for i, r := range rs {
			ids[i] = r.ID
		}
		out = append(out, ClusterBucket{Label: label, Stats: Aggregate(rs), ReviewIDs: ids})
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Cluster groups reviews by sentiment, theme, star value, text length and
// response status. Reviews without sentiment are left out of the sentiment
// dimension only; a review joins each of its distinct themes once. Themes
// are ordered by size then name, stars from 5 down.
func Cluster(reviews []domain.Review) Clusters {
	sentiment := newClusterSet(string(domain.SentimentPositive), string(domain.SentimentNeutral), string(domain.SentimentNegative))
	themes := newClusterSet()
	stars := newClusterSet("5", "4", "3", "2", "1")
	length := newClusterSet(LengthVeryShort, LengthShort, LengthMedium, LengthLong, LengthVeryLong)
	response := newClusterSet(Responded, Unanswered)

	for _, r := range reviews {
		if r.Sentiment.Valid() {
			sentiment.add(string(r.Sentiment), r)
		}

		seen := make(map[string]struct{})
		for _, theme := range r.Themes() {
			if _, dup := seen[theme]; dup {
				continue
			}
			seen[theme] = struct{}{}
			themes.add(theme, r)
		}

		stars.add(strconv.Itoa(r.Stars), r)
		length.add(LengthBucket(r.Text), r)
		if r.Responded() {
			response.add(Responded, r)
		} else {
			response.add(Unanswered, r)
		}
	}

	themeClusters := themes.clusters()
	sort.SliceStable(themeClusters, func(i, j int) bool {
		if themeClusters[i].Stats.Count != themeClusters[j].Stats.Count {
			return themeClusters[i].Stats.Count > themeClusters[j].Stats.Count
		}
		return themeClusters[i].Label < themeClusters[j].Label
	})

	return Clusters{
		Sentiment: sentiment.clusters(),
		Themes:    themeClusters,
		Stars:     stars.clusters(),
		Length:    length.clusters(),
		Response:  response.clusters(),
	}
}
