// Package extent computes the spatial extent of a raster from its pixel
// dimensions and geotransform, and encodes the result as text, JSON, WKT or
// a STAC Item.
package extent

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geom"

	"github.com/robert-malhotra/raster-extent/pkg/raster"
)

// Raster is the metadata an extent is computed from. raster.Dataset
// satisfies it.
type Raster interface {
	GeoTransform() (raster.GeoTransform, error)
	RasterSize() (width, height int)
}

// Bounds is an axis-aligned bounding box in the raster's native CRS.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Slice returns the bounds as [xmin, ymin, xmax, ymax].
func (b Bounds) Slice() []float64 {
	return []float64{b.MinX, b.MinY, b.MaxX, b.MaxY}
}

// Bound converts b to an orb.Bound.
func (b Bounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Rectangle is a closed ring of the raster's corners, clockwise from the
// upper-left: UL, UR, LR, LL, UL.
type Rectangle [5]orb.Point

// Ring returns the rectangle as an orb.Ring.
func (r Rectangle) Ring() orb.Ring {
	return orb.Ring(r[:])
}

// Polygon returns a single-ring polygon.
func (r Rectangle) Polygon() orb.Polygon {
	return orb.Polygon{r.Ring()}
}

// Geom returns the rectangle as a go-geom polygon.
func (r Rectangle) Geom() *geom.Polygon {
	flat := make([]float64, 0, 2*len(r))
	for _, p := range r {
		flat = append(flat, p[0], p[1])
	}
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}

// Size is the raster's width and height in pixels.
type Size struct {
	Width, Height int
}

// ComputeBounds derives the bounding box from the origin, the absolute pixel
// resolutions and the pixel dimensions. The sign of the stored resolutions
// does not matter.
func ComputeBounds(r Raster) (Bounds, error) {
	gt, err := r.GeoTransform()
	if err != nil {
		return Bounds{}, err
	}
	w, h := r.RasterSize()
	return boundsOf(gt, w, h), nil
}

func boundsOf(gt raster.GeoTransform, w, h int) Bounds {
	xr := math.Abs(gt.PixelWidth())
	yr := math.Abs(gt.PixelHeight())
	ox, oy := gt.OriginX(), gt.OriginY()
	return Bounds{
		MinX: ox,
		MinY: oy - float64(h)*yr,
		MaxX: ox + float64(w)*xr,
		MaxY: oy,
	}
}

// ComputeRectangle returns the closed corner ring of the raster.
func ComputeRectangle(r Raster) (Rectangle, error) {
	b, err := ComputeBounds(r)
	if err != nil {
		return Rectangle{}, err
	}
	return rectangleOf(b), nil
}

func rectangleOf(b Bounds) Rectangle {
	ul := orb.Point{b.MinX, b.MaxY}
	return Rectangle{
		ul,
		{b.MaxX, b.MaxY},
		{b.MaxX, b.MinY},
		{b.MinX, b.MinY},
		ul,
	}
}

// ComputeSize returns the pixel dimensions unchanged.
func ComputeSize(r Raster) Size {
	w, h := r.RasterSize()
	return Size{Width: w, Height: h}
}

// Mode selects which representation of the extent is produced.
type Mode int

const (
	ModeBounds Mode = iota
	ModeExtent
	ModeSize
)

func (m Mode) String() string {
	switch m {
	case ModeBounds:
		return "bounds"
	case ModeExtent:
		return "extent"
	case ModeSize:
		return "size"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Record is the result of computing one mode over one raster. Size is always
// set. Bounds, Rectangle and Transform are set when Georeferenced is true,
// which Compute guarantees for every mode except ModeSize.
type Record struct {
	Mode          Mode
	Size          Size
	Georeferenced bool
	Transform     raster.GeoTransform
	Bounds        Bounds
	Rectangle     Rectangle
}

// Compute evaluates mode over r. Bounds and extent modes fail with the
// raster's error (ErrMissingGeoreferencing) when it has no geotransform;
// size mode never fails.
func Compute(mode Mode, r Raster) (Record, error) {
	rec := Record{Mode: mode, Size: ComputeSize(r)}

	gt, err := r.GeoTransform()
	if err != nil {
		if mode == ModeSize {
			return rec, nil
		}
		return Record{}, err
	}

	rec.Georeferenced = true
	rec.Transform = gt
	rec.Bounds = boundsOf(gt, rec.Size.Width, rec.Size.Height)
	rec.Rectangle = rectangleOf(rec.Bounds)
	return rec, nil
}
