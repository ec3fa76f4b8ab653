package wishlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	base := NewSet(3, 1, 3)
	assert.Equal(t, []uint{1, 3}, base.IDs())

	assert.Equal(t, []uint{1, 2, 3}, base.Flip(2).IDs())
	assert.Equal(t, []uint{3}, base.Flip(1).IDs())
	assert.Equal(t, []uint{1, 3}, base.IDs(), "flip returns a copy")

	assert.Equal(t, []uint{1, 3}, base.With(3, true).IDs())
	assert.Equal(t, []uint{1}, base.With(3, false).IDs())

	var empty Set
	assert.False(t, empty.Has(1))
	assert.Equal(t, []uint{1}, empty.Flip(1).IDs())
}
