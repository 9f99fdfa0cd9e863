package extent

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/raster-extent/pkg/raster"
	"github.com/robert-malhotra/raster-extent/pkg/raster/rastertest"
)

func scenario() *rastertest.Dataset {
	return &rastertest.Dataset{
		Transform: raster.GeoTransform{100, 10, 0, 500, 0, -10},
		Width:     50,
		Height:    40,
	}
}

func TestComputeBounds(t *testing.T) {
	b, err := ComputeBounds(scenario())
	require.NoError(t, err)
	assert.Equal(t, Bounds{MinX: 100, MinY: 100, MaxX: 600, MaxY: 500}, b)
	assert.Equal(t, []float64{100, 100, 600, 500}, b.Slice())
	assert.Equal(t, orb.Bound{Min: orb.Point{100, 100}, Max: orb.Point{600, 500}}, b.Bound())
}

func TestComputeBounds_SignInvariant(t *testing.T) {
	for _, rx := range []float64{2.5, -2.5} {
		for _, ry := range []float64{0.5, -0.5} {
			ds := &rastertest.Dataset{
				Transform: raster.GeoTransform{-20, rx, 0, 10, 0, ry},
				Width:     8,
				Height:    6,
			}
			b, err := ComputeBounds(ds)
			require.NoError(t, err)
			assert.Equal(t, Bounds{MinX: -20, MinY: 7, MaxX: 0, MaxY: 10}, b, "rx=%v ry=%v", rx, ry)
			assert.LessOrEqual(t, b.MinX, b.MaxX)
			assert.LessOrEqual(t, b.MinY, b.MaxY)
		}
	}
}

func TestComputeRectangle(t *testing.T) {
	r, err := ComputeRectangle(scenario())
	require.NoError(t, err)

	want := Rectangle{{100, 500}, {600, 500}, {600, 100}, {100, 100}, {100, 500}}
	assert.Equal(t, want, r)
	assert.Equal(t, r[0], r[4], "ring must be closed")

	ring := r.Ring()
	require.Len(t, ring, 5)
	assert.True(t, ring.Closed())
	assert.Equal(t, orb.CW, ring.Orientation())

	poly := r.Geom()
	assert.Equal(t, 1, poly.NumLinearRings())
	assert.Equal(t, []float64{100, 500, 600, 500, 600, 100, 100, 100, 100, 500}, poly.FlatCoords())
}

func TestComputeSize(t *testing.T) {
	ds := scenario()
	assert.Equal(t, Size{Width: 50, Height: 40}, ComputeSize(ds))

	ds.Ungeoreferenced = true
	assert.Equal(t, Size{Width: 50, Height: 40}, ComputeSize(ds))
}

func TestMissingGeoreferencing(t *testing.T) {
	ds := &rastertest.Dataset{Width: 3, Height: 2, Ungeoreferenced: true}

	_, err := ComputeBounds(ds)
	assert.ErrorIs(t, err, raster.ErrMissingGeoreferencing)

	_, err = ComputeRectangle(ds)
	assert.ErrorIs(t, err, raster.ErrMissingGeoreferencing)

	for _, mode := range []Mode{ModeBounds, ModeExtent} {
		_, err := Compute(mode, ds)
		assert.ErrorIs(t, err, raster.ErrMissingGeoreferencing, mode.String())
	}

	rec, err := Compute(ModeSize, ds)
	require.NoError(t, err)
	assert.False(t, rec.Georeferenced)
	assert.Equal(t, Size{Width: 3, Height: 2}, rec.Size)
}

func TestCompute(t *testing.T) {
	ds := scenario()
	for _, mode := range []Mode{ModeBounds, ModeExtent, ModeSize} {
		t.Run(mode.String(), func(t *testing.T) {
			first, err := Compute(mode, ds)
			require.NoError(t, err)
			second, err := Compute(mode, ds)
			require.NoError(t, err)
			assert.Equal(t, first, second)

			assert.Equal(t, mode, first.Mode)
			assert.True(t, first.Georeferenced)
			assert.Equal(t, ds.Transform, first.Transform)
			assert.Equal(t, Bounds{MinX: 100, MinY: 100, MaxX: 600, MaxY: 500}, first.Bounds)
			assert.Equal(t, first.Rectangle[0], first.Rectangle[4])
			assert.Equal(t, Size{Width: 50, Height: 40}, first.Size)
		})
	}
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "bounds", ModeBounds.String())
	assert.Equal(t, "extent", ModeExtent.String())
	assert.Equal(t, "size", ModeSize.String())
	assert.Equal(t, "Mode(9)", Mode(9).String())
}
