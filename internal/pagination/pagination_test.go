package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{"defaults", "", Params{Page: 1, PerPage: 5}},
		{"explicit", "?page=3&per_page=10", Params{Page: 3, PerPage: 10}},
		{"capped", "?per_page=1000", Params{Page: 1, PerPage: MaxPerPage}},
		{"garbage", "?page=abc&per_page=-4", Params{Page: 1, PerPage: 5}},
		{"zero page", "?page=0", Params{Page: 1, PerPage: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/doctors"+tt.query, nil)
			assert.Equal(t, tt.want, FromRequest(r, 5))
		})
	}
}

func TestNewResponse(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	resp := NewResponse(items, Params{Page: 2, PerPage: 3})
	assert.Equal(t, []int{4, 5, 6}, resp.Data)
	assert.Equal(t, 7, resp.Total)
	assert.Equal(t, 3, resp.LastPage)

	last := NewResponse(items, Params{Page: 3, PerPage: 3})
	assert.Equal(t, []int{7}, last.Data)

	past := NewResponse(items, Params{Page: 9, PerPage: 3})
	assert.Equal(t, []int{}, past.Data)

	empty := NewResponse([]string(nil), Params{Page: 1, PerPage: 5})
	assert.Equal(t, []string{}, empty.Data)
	assert.Equal(t, 1, empty.LastPage)
}
