//go:build godal

package raster

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"
)

func init() {
	builtinDrivers = append([]Driver{GDALDriver{}}, builtinDrivers...)
}

var registerGDAL sync.Once

// GDALDriver opens anything the linked GDAL library can read, including its
// virtual file systems (/vsicurl/, /vsis3/, ...).
type GDALDriver struct{}

func (GDALDriver) Name() string { return "GDAL" }

func (GDALDriver) Open(path string) (Dataset, error) {
	registerGDAL.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: gdal: %v", ErrUnsupportedFormat, err)
	}
	return &gdalDataset{ds: ds}, nil
}

type gdalDataset struct {
	ds *godal.Dataset
}

func (g *gdalDataset) GeoTransform() (GeoTransform, error) {
	gt, err := g.ds.GeoTransform()
	if err != nil {
		return GeoTransform{}, &GeoreferencingError{Err: err}
	}
	return GeoTransform(gt), nil
}

func (g *gdalDataset) RasterSize() (int, int) {
	st := g.ds.Structure()
	return st.SizeX, st.SizeY
}

func (g *gdalDataset) Close() error {
	return g.ds.Close()
}
