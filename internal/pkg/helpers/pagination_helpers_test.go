package helpers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPageBoundaries(t *testing.T) {
	all := make([]int, 45)
	for i := range all {
		all[i] = i
	}

	slice := func(page, size int) []int {
		offset, limit := CalculateOffsetLimit(page, size)
		start := int(offset)
		if start > len(all) {
			start = len(all)
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		return all[start:end]
	}

	tests := []struct {
		page     int
		wantLen  int
		wantNext bool
	}{
		{page: 1, wantLen: 20, wantNext: true},
		{page: 2, wantLen: 20, wantNext: true},
		{page: 3, wantLen: 5, wantNext: false},
		{page: 4, wantLen: 0, wantNext: false},
	}

	for _, tt := range tests {
		p := NewPage(slice(tt.page, 20), int64(len(all)), tt.page, 20)
		assert.Len(t, p.Items, tt.wantLen, "page %d", tt.page)
		assert.Equal(t, tt.wantNext, p.HasNext, "page %d", tt.page)
	}
}

func TestNewPageNormalisesInput(t *testing.T) {
	p := NewPage[string](nil, 0, 0, 500)

	assert.NotNil(t, p.Items)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.Size)
	assert.False(t, p.HasNext)

	info := NewPaginationInfo(p)
	assert.Equal(t, 1, info.TotalPages)
}

func TestNewPaginationInfo(t *testing.T) {
	p := NewPage(make([]int, 5), 45, 3, 20)
	info := NewPaginationInfo(p)

	assert.Equal(t, 3, info.CurrentPage)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, int64(45), info.TotalItems)
	assert.False(t, info.HasNext)
}

func TestParsePaginationParams(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		query    string
		wantPage int
		wantSize int
	}{
		{"explicit", "page=3&size=5", 3, 5},
		{"invalid falls back to defaults", "page=-1&size=abc", DefaultPage, DefaultPageSize},
		{"missing", "", DefaultPage, DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/posts?"+tt.query, nil)

			page, size := ParsePaginationParams(c)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantSize, size)
		})
	}
}
