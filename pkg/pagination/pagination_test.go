package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ClampsOutOfRangeValues(t *testing.T) {
	p := &PaginationParams{Page: 0, PerPage: 500}
	p.Validate()

	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PerPage)
}

func TestNewPagination_ComputesPages(t *testing.T) {
	pag := NewPagination(2, 10, 25)

	assert.Equal(t, 3, pag.TotalPages)
	assert.True(t, pag.HasNext)
	assert.True(t, pag.HasPrev)
}

func TestPaginate_SecondPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	result := Paginate(items, &PaginationParams{Page: 2, PerPage: 2})

	assert.Equal(t, []int{3, 4}, result.Items)
	assert.Equal(t, int64(5), result.Pagination.Total)
	assert.Equal(t, 3, result.Pagination.TotalPages)
}

func TestPaginate_PastTheEndIsEmpty(t *testing.T) {
	result := Paginate([]string{"a"}, &PaginationParams{Page: 4, PerPage: 10})

	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.False(t, result.Pagination.HasNext)
}

func TestPaginate_NilParamsUsesDefaults(t *testing.T) {
	items := make([]int, 20)

	result := Paginate(items, nil)

	assert.Len(t, result.Items, 15)
	assert.Equal(t, 1, result.Pagination.CurrentPage)
}
