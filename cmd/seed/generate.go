package main

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	handler "github.com/Arthurkhan/star-gazer-analysis-sub004/internal/handler/http"
)

// profile shapes a business's rating curve over the seeded months.
type profile string

const (
	profileSteady    profile = "steady"
	profileDeclining profile = "declining"
	profileImproving profile = "improving"
)

var profiles = []profile{profileSteady, profileDeclining, profileImproving}

type businessDef struct {
	Name     string
	Category string
	Location string
}

var businesses = []businessDef{
	{"Cafe Luna", "cafe", "Lisbon"},
	{"Bakery Sol", "bakery", "Porto"},
	{"Trattoria Verde", "restaurant", "Milan"},
	{"Noodle House Kai", "restaurant", "Osaka"},
	{"Brasserie du Parc", "restaurant", "Lyon"},
	{"Green Bowl", "cafe", "Berlin"},
	{"Taqueria Azul", "restaurant", "Austin"},
	{"Tea Room Hana", "cafe", "Kyoto"},
}

var (
	themes = []string{"coffee", "service", "price", "ambience", "cleanliness", "food quality", "wait time", "location"}
	staff  = []string{"Ana", "Marco", "Yuki", "Sam", "Lea"}

	positiveTexts = []string{
		"Lovely spot, the staff were warm and quick.",
		"Best pastry in the neighbourhood. Will be back!",
		"Great value and a cosy atmosphere.",
		"Everything was fresh and the service was friendly.",
	}
	neutralTexts = []string{
		"Decent, nothing special.",
		"Food was fine but it took a while.",
		"Okay for a quick bite.",
	}
	negativeTexts = []string{
		"Waited forty minutes and the order was wrong.",
		"Tables were dirty and nobody came to help.",
		"Overpriced for what you get.",
		"Cold food, rude service. Not coming back.",
	}
	responses = []string{
		"Thank you for the kind words!",
		"We're sorry to hear this and have shared it with the team.",
		"Thanks for visiting, hope to see you again.",
	}
)

// businessAt returns the i-th seeded business, suffixing a round number once
// the name list is exhausted.
func businessAt(i int) handler.CreateBusinessRequest {
	def := businesses[i%len(businesses)]
	name := def.Name
	if round := i / len(businesses); round > 0 {
		name = fmt.Sprintf("%s %d", def.Name, round+1)
	}
	return handler.CreateBusinessRequest{Name: name, Category: def.Category, Location: def.Location}
}

// meanStars is the expected rating at progress p in [0, 1].
func meanStars(pr profile, p float64) float64 {
	switch pr {
	case profileDeclining:
		return 4.6 - 2.6*p
	case profileImproving:
		return 2.4 + 2.2*p
	default:
		return 4.1
	}
}

func clampStars(v float64) int {
	switch {
	case v < 1:
		return 1
	case v > 5:
		return 5
	}
	return int(v + 0.5)
}

func sentimentFor(stars int) string {
	switch {
	case stars >= 4:
		return "positive"
	case stars == 3:
		return "neutral"
	}
	return "negative"
}

func pick(rng *rand.Rand, list []string) string {
	return list[rng.Intn(len(list))]
}

func pickSome(rng *rand.Rand, list []string, max int) string {
	n := 1 + rng.Intn(max)
	perm := rng.Perm(len(list))
	out := make([]string, 0, n)
	for _, idx := range perm[:n] {
		out = append(out, list[idx])
	}
	return strings.Join(out, ", ")
}

// generateReviews spreads n reviews uniformly over the months before end,
// shaping stars with pr. External IDs are stable for a given business index
// so re-running the seed only inserts what is missing.
func generateReviews(rng *rand.Rand, business int, pr profile, n, months int, end time.Time) []handler.ReviewRequest {
	start := end.AddDate(0, -months, 0)
	span := end.Sub(start)

	out := make([]handler.ReviewRequest, n)
	for i := range out {
		offset := time.Duration(rng.Int63n(int64(span)))
		published := start.Add(offset).Truncate(time.Minute)
		progress := float64(offset) / float64(span)
		stars := clampStars(meanStars(pr, progress) + rng.NormFloat64()*0.8)

		var text string
		switch sentimentFor(stars) {
		case "positive":
			text = pick(rng, positiveTexts)
		case "neutral":
			text = pick(rng, neutralTexts)
		default:
			text = pick(rng, negativeTexts)
		}

		r := handler.ReviewRequest{
			ExternalID:  fmt.Sprintf("seed-%d-%05d", business, i),
			Stars:       stars,
			Sentiment:   sentimentFor(stars),
			PublishedAt: published.UTC().Format(time.RFC3339),
			MainThemes:  pickSome(rng, themes, 3),
		}
		// A share of reviews are star-only, undated or answered.
		if rng.Float64() < 0.8 {
			r.Text = text
		}
		if rng.Float64() < 0.03 {
			r.PublishedAt = ""
		}
		if rng.Float64() < 0.35 {
			r.OwnerResponseText = pick(rng, responses)
		}
		if rng.Float64() < 0.25 {
			r.StaffMentioned = pickSome(rng, staff, 2)
		}
		out[i] = r
	}
	return out
}

// batches splits reviews into chunks the ingest endpoint accepts.
func batches(reviews []handler.ReviewRequest, size int) [][]handler.ReviewRequest {
	var out [][]handler.ReviewRequest
	for len(reviews) > size {
		out = append(out, reviews[:size])
		reviews = reviews[size:]
	}
	if len(reviews) > 0 {
		out = append(out, reviews)
	}
	return out
}
