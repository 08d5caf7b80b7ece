package ui

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowRectsFillsWidth(t *testing.T) {
	rects := RowRects([]float32{65, 65, 130}, 404, 30, 2)
	require.Len(t, rects, 3)
	assert.Equal(t, image.Rect(0, 0, 100, 30), rects[0])
	assert.Equal(t, image.Rect(102, 0, 202, 30), rects[1])
	assert.Equal(t, image.Rect(204, 0, 404, 30), rects[2])
}

func TestRowRectsLastKeyAbsorbsRounding(t *testing.T) {
	rects := RowRects([]float32{1, 1, 1}, 100, 10, 0)
	require.Len(t, rects, 3)
	assert.Equal(t, 100, rects[2].Max.X)
	for i := 1; i < len(rects); i++ {
		assert.Equal(t, rects[i-1].Max.X, rects[i].Min.X)
	}
}

func TestRowRectsDegenerate(t *testing.T) {
	assert.Nil(t, RowRects(nil, 100, 10, 2))
	assert.Nil(t, RowRects([]float32{65}, 0, 10, 2))

	rects := RowRects([]float32{65, 65}, 3, 10, 2)
	require.Len(t, rects, 2)
	for _, r := range rects {
		assert.GreaterOrEqual(t, r.Dx(), 1)
	}
}

func TestRowHeight(t *testing.T) {
	assert.Equal(t, 48, RowHeight(260, 5, 5))
	assert.Equal(t, 0, RowHeight(100, 0, 5))
	assert.Equal(t, 1, RowHeight(3, 5, 5))
}
