package dynamo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AllocAndFull(t *testing.T) {
	a := NewArena(2)

	p0, err := a.Alloc(1.5)
	require.NoError(t, err)
	p1, err := a.Alloc(-2)
	require.NoError(t, err)

	_, err = a.Alloc(3)
	assert.ErrorIs(t, err, ErrArenaFull)

	assert.Equal(t, []float64{1.5, -2}, a.Values())
	assert.Equal(t, 1.5, p0.Get(a.Values()))
	assert.Equal(t, -2.0, p1.Get(a.Values()))
}

func TestArena_ResetInvalidates(t *testing.T) {
	a := NewArena(4)
	p, err := a.Alloc(7)
	require.NoError(t, err)

	v, err := a.Get(p)
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	a.Reset()
	assert.False(t, a.Valid(p))
	_, err = a.Get(p)
	assert.ErrorIs(t, err, ErrStaleParam)
	assert.ErrorIs(t, a.Set(p, 1), ErrStaleParam)

	q, err := a.Alloc(9)
	require.NoError(t, err)
	assert.Equal(t, p.Index, q.Index)
	assert.True(t, a.Valid(q))
}

func TestParam_DerivativeSlot(t *testing.T) {
	a := NewArena(3)
	_, _ = a.Alloc(0)
	p, err := a.Alloc(0)
	require.NoError(t, err)

	xd := make([]float64, a.Len())
	p.SetD(xd, 4.25)
	assert.Equal(t, 4.25, p.D(xd))
	assert.Equal(t, []float64{0, 4.25}, xd)
}
