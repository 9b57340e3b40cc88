package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestSubIndex(t *testing.T) {
	t.Run("lower bound of first band", func(t *testing.T) {
		v, ok := SubIndex(0, coBreakpoints).Get()
		require.True(t, ok)
		assert.Equal(t, 0, v)
	})

	t.Run("upper bound of top CO band", func(t *testing.T) {
		v, ok := SubIndex(50.4, coBreakpoints).Get()
		require.True(t, ok)
		assert.Equal(t, 500, v)
	})

	t.Run("gap between bands is undefined", func(t *testing.T) {
		assert.False(t, SubIndex(4.45, coBreakpoints).Valid())
	})

	t.Run("above every band is undefined", func(t *testing.T) {
		assert.False(t, SubIndex(50.5, coBreakpoints).Valid())
		assert.False(t, SubIndex(201, o3Breakpoints).Valid())
	})

	t.Run("negative concentration is undefined", func(t *testing.T) {
		assert.False(t, SubIndex(-200, no2Breakpoints).Valid())
	})

	t.Run("interpolates inside a band", func(t *testing.T) {
		// 50/53 * 26.5 = 25
		v, ok := SubIndex(26.5, no2Breakpoints).Get()
		require.True(t, ok)
		assert.Equal(t, 25, v)
	})
}

func TestPollutantSubIndices(t *testing.T) {
	t.Run("CO 4.4 mg/m3 falls in the first band", func(t *testing.T) {
		v, ok := COSubIndex(4.4).Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 50)
		assert.Equal(t, 44, v)
	})

	t.Run("CO 50.4 mg/m3 falls in the top band", func(t *testing.T) {
		v, ok := COSubIndex(50.4).Get()
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 401)
		assert.LessOrEqual(t, v, 500)
		assert.Equal(t, 436, v)
	})

	t.Run("NO2 converts ug/m3 to ppb", func(t *testing.T) {
		v, ok := NO2SubIndex(100).Get()
		require.True(t, ok)
		assert.Equal(t, 49, v)
	})

	t.Run("O3 top of table", func(t *testing.T) {
		v, ok := O3SubIndex(400).Get()
		require.True(t, ok)
		assert.Equal(t, 300, v)
	})

	t.Run("O3 beyond table is undefined", func(t *testing.T) {
		assert.False(t, O3SubIndex(1000).Valid())
	})
}

func TestCompositeIndex(t *testing.T) {
	t.Run("maximum of defined sub-indices", func(t *testing.T) {
		idx := CompositeIndex(ptr(4.4), ptr(100), ptr(1000))
		v, ok := idx.Get()
		require.True(t, ok)
		assert.Equal(t, 49, v)
	})

	t.Run("absent readings are ignored", func(t *testing.T) {
		idx := CompositeIndex(nil, nil, ptr(100))
		v, ok := idx.Get()
		require.True(t, ok)
		// 50 ppb -> 50/54*50 = 46.3
		assert.Equal(t, 46, v)
	})

	t.Run("all absent is undefined", func(t *testing.T) {
		idx := CompositeIndex(nil, nil, nil)
		assert.False(t, idx.Valid())
		assert.Equal(t, -1, idx.Legacy())
		assert.Nil(t, idx.Float64Ptr())
	})

	t.Run("all out of range is undefined", func(t *testing.T) {
		idx := CompositeIndex(ptr(-200), ptr(-200), ptr(5000))
		assert.False(t, idx.Valid())
		assert.Equal(t, -1, idx.Legacy())
	})

	t.Run("defined index converts to a column value", func(t *testing.T) {
		idx := CompositeIndex(ptr(4.4), nil, nil)
		require.NotNil(t, idx.Float64Ptr())
		assert.InDelta(t, 44.0, *idx.Float64Ptr(), 0)
		assert.Equal(t, 44, idx.Legacy())
	})
}
