// Package rastertest provides raster fixtures for tests: an in-memory Dataset
// and a writer for minimal GeoTIFF files.
package rastertest

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/robert-malhotra/raster-extent/pkg/raster"
)

// Dataset is an in-memory raster.Dataset.
type Dataset struct {
	Transform     raster.GeoTransform
	Width, Height int
	// Ungeoreferenced makes GeoTransform fail with ErrMissingGeoreferencing.
	Ungeoreferenced bool
	Closed          bool
}

func (d *Dataset) GeoTransform() (raster.GeoTransform, error) {
	if d.Ungeoreferenced {
		return raster.GeoTransform{}, raster.ErrMissingGeoreferencing
	}
	return d.Transform, nil
}

func (d *Dataset) RasterSize() (int, int) { return d.Width, d.Height }

func (d *Dataset) Close() error {
	d.Closed = true
	return nil
}

// Tag is a single TIFF field. Values must be []uint16, []uint32 or []float64.
type Tag struct {
	ID     uint16
	Values any
}

// GeoTIFF describes a file written by WriteGeoTIFF.
type GeoTIFF struct {
	Width, Height uint32
	// Tiepoint and PixelScale are written as ModelTiepointTag and
	// ModelPixelScaleTag when non-nil.
	Tiepoint   []float64
	PixelScale []float64
	// Transformation is written as ModelTransformationTag when non-nil.
	Transformation []float64
	// PixelIsPoint adds a GeoKeyDirectory with GTRasterTypeGeoKey=PixelIsPoint.
	PixelIsPoint bool
	BigEndian    bool
	BigTIFF      bool
}

// Tags returns the TIFF fields describing g, sorted by tag number.
func (g GeoTIFF) Tags() []Tag {
	tags := []Tag{
		{ID: 256, Values: []uint32{g.Width}},
		{ID: 257, Values: []uint32{g.Height}},
	}
	if g.PixelScale != nil {
		tags = append(tags, Tag{ID: 33550, Values: g.PixelScale})
	}
	if g.Tiepoint != nil {
		tags = append(tags, Tag{ID: 33922, Values: g.Tiepoint})
	}
	if g.Transformation != nil {
		tags = append(tags, Tag{ID: 34264, Values: g.Transformation})
	}
	if g.PixelIsPoint {
		tags = append(tags, Tag{ID: 34735, Values: []uint16{1, 1, 0, 1, 1025, 0, 1, 2}})
	}
	return tags
}

// WriteGeoTIFF writes g to dir/name and returns the full path.
func WriteGeoTIFF(t testing.TB, dir, name string, g GeoTIFF) string {
	t.Helper()
	var order binary.ByteOrder = binary.LittleEndian
	if g.BigEndian {
		order = binary.BigEndian
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, EncodeTIFF(order, g.BigTIFF, g.Tags()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// EncodeTIFF lays out a single-IFD TIFF holding tags and no image data.
func EncodeTIFF(order binary.ByteOrder, bigTIFF bool, tags []Tag) []byte {
	headerSize, countSize, entrySize, inline := 8, 2, 12, 4
	if bigTIFF {
		headerSize, countSize, entrySize, inline = 16, 8, 20, 8
	}
	ifdSize := countSize + len(tags)*entrySize + inline
	dataOffset := headerSize + ifdSize

	buf := make([]byte, dataOffset)
	if order == binary.LittleEndian {
		copy(buf, "II")
	} else {
		copy(buf, "MM")
	}
	if bigTIFF {
		order.PutUint16(buf[2:], 43)
		order.PutUint16(buf[4:], 8)
		order.PutUint64(buf[8:], uint64(headerSize))
	} else {
		order.PutUint16(buf[2:], 42)
		order.PutUint32(buf[4:], uint32(headerSize))
	}

	pos := headerSize
	if bigTIFF {
		order.PutUint64(buf[pos:], uint64(len(tags)))
	} else {
		order.PutUint16(buf[pos:], uint16(len(tags)))
	}
	pos += countSize

	for _, tag := range tags {
		typ, count, data := encodeValues(order, tag.Values)
		order.PutUint16(buf[pos:], tag.ID)
		order.PutUint16(buf[pos+2:], typ)
		valuePos := pos + 4
		if bigTIFF {
			order.PutUint64(buf[pos+4:], uint64(count))
			valuePos += 8
		} else {
			order.PutUint32(buf[pos+4:], uint32(count))
			valuePos += 4
		}
		if len(data) <= inline {
			copy(buf[valuePos:], data)
		} else {
			if bigTIFF {
				order.PutUint64(buf[valuePos:], uint64(len(buf)))
			} else {
				order.PutUint32(buf[valuePos:], uint32(len(buf)))
			}
			buf = append(buf, data...)
		}
		pos += entrySize
	}
	return buf
}

func encodeValues(order binary.ByteOrder, values any) (typ uint16, count int, data []byte) {
	switch v := values.(type) {
	case []uint16:
		data = make([]byte, 2*len(v))
		for i, x := range v {
			order.PutUint16(data[2*i:], x)
		}
		return 3, len(v), data
	case []uint32:
		data = make([]byte, 4*len(v))
		for i, x := range v {
			order.PutUint32(data[4*i:], x)
		}
		return 4, len(v), data
	case []float64:
		data = make([]byte, 8*len(v))
		for i, x := range v {
			order.PutUint64(data[8*i:], math.Float64bits(x))
		}
		return 12, len(v), data
	default:
		panic("rastertest: unsupported tag value type")
	}
}
