package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisiblePages(t *testing.T) {
	tests := []struct {
		name           string
		current, total int
		want           []int
	}{
		{"no pages", 1, 0, nil},
		{"single page", 1, 1, []int{1}},
		{"fits", 2, 5, []int{1, 2, 3, 4, 5}},
		{"near start", 1, 10, []int{1, 2, 3, 4, Ellipsis, 10}},
		{"third page", 3, 10, []int{1, 2, 3, 4, Ellipsis, 10}},
		{"middle", 5, 10, []int{1, Ellipsis, 4, 5, 6, Ellipsis, 10}},
		{"near end", 8, 10, []int{1, Ellipsis, 7, 8, 9, 10}},
		{"last", 500, 500, []int{1, Ellipsis, 497, 498, 499, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VisiblePages(tt.current, tt.total))
		})
	}
}
