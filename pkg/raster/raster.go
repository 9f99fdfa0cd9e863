// Package raster opens georeferenced raster files and exposes the metadata
// needed to describe their extent: pixel dimensions and the affine
// geotransform. Pixel data is never read.
//
// Format support is provided by drivers collected in a Registry. The default
// drivers understand GeoTIFF and world-file georeferenced images; building
// with the "godal" tag adds a GDAL-backed driver in front of them.
//
//	reg := raster.NewRegistry(raster.WithDrivers(raster.DefaultDrivers()...))
//	ds, err := reg.Open("scene.tif")
//	if err != nil {
//	    return err
//	}
//	defer ds.Close()
//	gt, err := ds.GeoTransform()
package raster

// GeoTransform is an affine mapping from pixel/line to georeferenced
// coordinates, laid out as
// [originX, pixelWidth, rowRotation, originY, colRotation, pixelHeight].
type GeoTransform [6]float64

// OriginX returns the X coordinate of the upper-left corner.
func (gt GeoTransform) OriginX() float64 { return gt[0] }

// OriginY returns the Y coordinate of the upper-left corner.
func (gt GeoTransform) OriginY() float64 { return gt[3] }

// PixelWidth returns the signed pixel size along the X axis.
func (gt GeoTransform) PixelWidth() float64 { return gt[1] }

// PixelHeight returns the signed pixel size along the Y axis. North-up
// rasters store a negative value.
func (gt GeoTransform) PixelHeight() float64 { return gt[5] }

// Dataset is an opened raster. It is owned by a single caller and must be
// closed once its metadata has been consumed.
type Dataset interface {
	// GeoTransform returns the dataset's affine transform, or an error
	// wrapping ErrMissingGeoreferencing when the raster has none.
	GeoTransform() (GeoTransform, error)
	// RasterSize returns the width and height in pixels.
	RasterSize() (width, height int)
	Close() error
}

// Driver opens one family of raster formats.
type Driver interface {
	Name() string
	// Open returns an error wrapping ErrUnsupportedFormat when the file is
	// not one the driver understands, so the registry can try the next one.
	Open(path string) (Dataset, error)
}

// dataset is the in-memory Dataset produced by the pure-Go drivers, which
// read everything they need at open time.
type dataset struct {
	width, height int
	gt            GeoTransform
	hasGT         bool
	// gtErr records why georeferencing was unusable, if known.
	gtErr error
}

func (d *dataset) GeoTransform() (GeoTransform, error) {
	if !d.hasGT {
		if d.gtErr != nil {
			return GeoTransform{}, d.gtErr
		}
		return GeoTransform{}, ErrMissingGeoreferencing
	}
	return d.gt, nil
}

// useWorldFile takes the dataset's georeferencing from a sidecar next to
// path. An unreadable sidecar leaves the dataset open without a transform.
func (d *dataset) useWorldFile(path string) {
	gt, ok, err := readWorldFileFor(path)
	if err != nil {
		d.gtErr = &GeoreferencingError{Err: err}
		return
	}
	d.gt, d.hasGT = gt, ok
}

func (d *dataset) RasterSize() (int, int) { return d.width, d.height }

func (d *dataset) Close() error { return nil }
