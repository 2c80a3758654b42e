package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query   string
		page    int
		perPage int
		offset  int
	}{
		{"", 1, 20, 0},
		{"?page=3&per_page=50", 3, 50, 100},
		{"?page=0&per_page=0", 1, 20, 0},
		{"?page=-2&per_page=500", 1, 20, 0},
		{"?page=abc&per_page=xyz", 1, 20, 0},
		{"?page=2&per_page=100", 2, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/v1/reviews"+tt.query, nil))
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.perPage, p.PerPage)
			assert.Equal(t, tt.offset, p.Offset())
		})
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult([]string{"a", "b"}, 25, Params{Page: 1, PerPage: 10})
	assert.Equal(t, 3, r.TotalPages)
	assert.True(t, r.HasNext)
	assert.False(t, r.HasPrev)

	r = NewResult([]string{"x"}, 21, Params{Page: 3, PerPage: 10})
	assert.False(t, r.HasNext)
	assert.True(t, r.HasPrev)
}

func TestNewResult_Empty(t *testing.T) {
	r := NewResult[int](nil, 0, DefaultParams())
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
	assert.Equal(t, 0, r.TotalPages)
	assert.False(t, r.HasNext)
}
