package raster

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chai2010/tiff"
)

// GeoKey values used for the raster-space convention.
const (
	geoKeyRasterType   = 1025
	rasterPixelIsPoint = 2
)

const maxIFDEntries = 4096

// GeoTIFFDriver reads dimensions and georeferencing from the first image
// file directory of a classic or BigTIFF file. When the file carries no
// GeoTIFF model tags a world-file sidecar is consulted instead.
type GeoTIFFDriver struct{}

func (GeoTIFFDriver) Name() string { return "GTiff" }

func (GeoTIFFDriver) Open(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if !hasTIFFMagic(f) {
		return nil, fmt.Errorf("%w: not a TIFF file", ErrUnsupportedFormat)
	}
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	hdr, err := tiff.ReadHeader(f)
	if err != nil {
		return nil, fmt.Errorf("read tiff header: %w", err)
	}
	if err := checkFirstIFD(f, hdr, info.Size()); err != nil {
		return nil, err
	}
	dir, err := tiff.ReadIFD(f, hdr, hdr.FirstIFD)
	if err != nil {
		return nil, fmt.Errorf("read tiff directory: %w", err)
	}

	tags := dir.TagGetter()
	width, ok := tags.GetImageWidth()
	if !ok {
		return nil, errors.New("tiff: missing or invalid ImageWidth")
	}
	height, ok := tags.GetImageLength()
	if !ok {
		return nil, errors.New("tiff: missing or invalid ImageLength")
	}
	ds := &dataset{width: int(width), height: int(height)}

	if gt, ok := geoTransform(tags); ok {
		ds.gt, ds.hasGT = gt, true
		return ds, nil
	}
	ds.useWorldFile(path)
	return ds, nil
}

func hasTIFFMagic(r io.ReaderAt) bool {
	var magic [4]byte
	if _, err := r.ReadAt(magic[:], 0); err != nil {
		return false
	}
	switch string(magic[:]) {
	case "II*\x00", "MM\x00*", "II+\x00", "MM\x00+":
		return true
	}
	return false
}

// checkFirstIFD bounds the first directory before it is decoded. The entry
// count is capped and no field may declare more data than the file holds,
// since the decoder allocates whatever a field's count asks for.
func checkFirstIFD(r io.ReaderAt, hdr *tiff.Header, fileSize int64) error {
	order := hdr.ByteOrder
	countSize, entrySize := int64(2), int64(12)
	if hdr.IsBigTiff() {
		countSize, entrySize = 8, 20
	}

	buf := make([]byte, countSize)
	if _, err := r.ReadAt(buf, hdr.FirstIFD); err != nil {
		return fmt.Errorf("tiff: directory at %d: %w", hdr.FirstIFD, err)
	}
	var n uint64
	if hdr.IsBigTiff() {
		n = order.Uint64(buf)
	} else {
		n = uint64(order.Uint16(buf))
	}
	if n == 0 || n > maxIFDEntries {
		return fmt.Errorf("tiff: invalid directory entry count %d", n)
	}

	entries := make([]byte, int64(n)*entrySize)
	if _, err := r.ReadAt(entries, hdr.FirstIFD+countSize); err != nil {
		return fmt.Errorf("tiff: directory entries: %w", err)
	}
	for i := int64(0); i < int64(n); i++ {
		e := entries[i*entrySize:]
		tag := order.Uint16(e[0:2])
		typ := tiff.DataType(order.Uint16(e[2:4]))
		var count uint64
		if hdr.IsBigTiff() {
			count = order.Uint64(e[4:12])
		} else {
			count = uint64(order.Uint32(e[4:8]))
		}
		if size := typ.ByteSize(); size > 0 && count > uint64(fileSize)/uint64(size) {
			return fmt.Errorf("tiff: tag %d declares %d values, more than the file holds", tag, count)
		}
	}
	return nil
}

// geoTransform derives the affine transform from the GeoTIFF model tags. The
// second return value is false when the file carries none.
func geoTransform(tags tiff.TagGetter) (GeoTransform, bool) {
	var gt GeoTransform

	matrix, _ := tags.GetModelTransformationTag()
	tiepoints, _ := tags.GetModelTiepointTag()
	scale, _ := tags.GetModelPixelScaleTag()

	switch {
	case len(matrix) >= 16:
		gt = GeoTransform{matrix[3], matrix[0], matrix[1], matrix[7], matrix[4], matrix[5]}
	case len(tiepoints) >= 6 && len(scale) >= 2:
		i, j := tiepoints[0], tiepoints[1]
		x, y := tiepoints[3], tiepoints[4]
		sx, sy := scale[0], scale[1]
		gt = GeoTransform{x - i*sx, sx, 0, y + j*sy, 0, -sy}
	default:
		return gt, false
	}

	if pixelIsPoint(tags) {
		gt[0] -= (gt[1] + gt[2]) * 0.5
		gt[3] -= (gt[4] + gt[5]) * 0.5
	}
	return gt, true
}

// pixelIsPoint reports whether GTRasterTypeGeoKey says model coordinates
// refer to pixel centres rather than corners.
func pixelIsPoint(tags tiff.TagGetter) bool {
	keys, ok := tags.GetGeoKeyDirectoryTag()
	if !ok || len(keys) < 4 {
		return false
	}
	n := int(keys[3])
	for k := 0; k < n && 4+k*4+3 < len(keys); k++ {
		entry := keys[4+k*4 : 4+k*4+4]
		if entry[0] == geoKeyRasterType && entry[1] == 0 {
			return entry[3] == rasterPixelIsPoint
		}
	}
	return false
}
