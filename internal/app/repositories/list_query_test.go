package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSortDirection(t *testing.T) {
	assert.Equal(t, SortOldest, ParseSortDirection("asc"))
	assert.Equal(t, SortNewest, ParseSortDirection("desc"))
	assert.Equal(t, SortNewest, ParseSortDirection(""))
	assert.Equal(t, SortNewest, ParseSortDirection("ASC; drop table users"))
}

func TestListQueryOrderByBreaksTiesOnID(t *testing.T) {
	assert.Equal(t, "created_at DESC, id DESC", ListQuery{}.orderBy())
	assert.Equal(t, "created_at DESC, id DESC", ListQuery{Sort: SortNewest}.orderBy())
	assert.Equal(t, "created_at ASC, id ASC", ListQuery{Sort: SortOldest}.orderBy())
}
