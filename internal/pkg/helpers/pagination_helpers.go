package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/models/dto"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultPage     = 1 // Pages are 1-based
)

// Page is one slice of an ordered result set. HasNext is derived from an
// independent count under the same filter.
type Page[T any] struct {
	Items   []T   `json:"items"`
	Total   int64 `json:"total"`
	Page    int   `json:"page"`
	Size    int   `json:"size"`
	HasNext bool  `json:"hasNext"`
}

// NewPage assembles a page. page and size go through the same normalisation
// as CalculateOffsetLimit so the offset used here matches the query.
func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	offset, limit := CalculateOffsetLimit(page, size)
	if page < 1 {
		page = DefaultPage
	}
	if items == nil {
		items = []T{}
	}

	return Page[T]{
		Items:   items,
		Total:   total,
		Page:    page,
		Size:    limit,
		HasNext: HasNext(total, offset, len(items)),
	}
}

// MapPage keeps the position of p but swaps in items derived from p.Items
func MapPage[T, U any](p Page[T], items []U) Page[U] {
	if items == nil {
		items = []U{}
	}
	return Page[U]{Items: items, Total: p.Total, Page: p.Page, Size: p.Size, HasNext: p.HasNext}
}

// HasNext reports whether more items exist past offset+returned
func HasNext(total int64, offset uint64, returned int) bool {
	return total > int64(offset)+int64(returned)
}

// CalculateOffsetLimit calculates the offset and limit for SQL queries based on 1-based page index.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 || size > MaxPageSize {
		limit = DefaultPageSize
	} else {
		limit = size
	}

	if page < 1 {
		page = DefaultPage
	}

	offset = uint64((page - 1) * limit)
	return offset, limit
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page should be the 1-based page number.
func NewPaginationInfo[T any](p Page[T]) dto.PaginationInfo {
	totalPages := 0
	if p.Total > 0 {
		totalPages = int(math.Ceil(float64(p.Total) / float64(p.Size)))
	} else if p.Page == 1 {
		totalPages = 1
	}

	return dto.PaginationInfo{
		CurrentPage: p.Page,
		TotalPages:  totalPages,
		PageSize:    p.Size,
		TotalItems:  p.Total,
		HasNext:     p.HasNext,
	}
}

// ParsePaginationParams extracts and validates pagination parameters from the request
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	size, err = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(DefaultPageSize)))
	if err != nil || size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}

	return page, size
}
