package travel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNavigation(t *testing.T) {
	pages := []int64{10, 20, 30}

	t.Run("Should describe a middle page", func(t *testing.T) {
		nav := ComputeNavigation(pages, 20)

		assert.True(t, nav.HasPrevious)
		assert.True(t, nav.HasNext)
		require.NotNil(t, nav.PreviousPageID)
		require.NotNil(t, nav.NextPageID)
		assert.Equal(t, int64(10), *nav.PreviousPageID)
		assert.Equal(t, int64(30), *nav.NextPageID)
		assert.Equal(t, 2, nav.CurrentIndex)
		assert.Equal(t, 3, nav.TotalPages)
	})

	t.Run("Should have no previous on the first page", func(t *testing.T) {
		nav := ComputeNavigation(pages, 10)

		assert.False(t, nav.HasPrevious)
		assert.Nil(t, nav.PreviousPageID)
		assert.Equal(t, 1, nav.CurrentIndex)
	})

	t.Run("Should have no next on the last page", func(t *testing.T) {
		nav := ComputeNavigation(pages, 30)

		assert.False(t, nav.HasNext)
		assert.Nil(t, nav.NextPageID)
		assert.Equal(t, 3, nav.CurrentIndex)
	})

	t.Run("Should point at the first page when the page is unknown", func(t *testing.T) {
		nav := ComputeNavigation(pages, 99)

		assert.False(t, nav.HasPrevious)
		assert.True(t, nav.HasNext)
		require.NotNil(t, nav.NextPageID)
		assert.Equal(t, int64(10), *nav.NextPageID)
		assert.Equal(t, 0, nav.CurrentIndex)
	})

	t.Run("Should handle a travel without pages", func(t *testing.T) {
		nav := ComputeNavigation(nil, 1)

		assert.False(t, nav.HasPrevious)
		assert.False(t, nav.HasNext)
		assert.Equal(t, 0, nav.TotalPages)
	})
}
