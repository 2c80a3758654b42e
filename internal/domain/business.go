package domain

import "time"

// Business is a reviewed location.
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BusinessFilter selects one business or all of them. The zero value is
// AllBusinesses.
type BusinessFilter struct {
	id string
}

// AllBusinesses is the canonical "no filter" value.
var AllBusinesses = BusinessFilter{}

// ForBusiness restricts queries to id. An empty id yields AllBusinesses.
func ForBusiness(id string) BusinessFilter {
	return BusinessFilter{id: id}
}

// IsAll reports whether the filter matches every business.
func (f BusinessFilter) IsAll() bool {
	return f.id == ""
}

// ID returns the selected business ID, or "" for AllBusinesses.
func (f BusinessFilter) ID() string {
	return f.id
}

// Matches reports whether a review for businessID passes the filter.
func (f BusinessFilter) Matches(businessID string) bool {
	return f.IsAll() || f.id == businessID
}

// String returns "all" or the business ID, for logs and cache keys.
func (f BusinessFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	return f.id
}
