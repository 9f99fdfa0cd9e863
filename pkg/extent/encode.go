package extent

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	stac "github.com/planetlabs/go-stac"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// Format is an output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
	FormatWKT
	FormatSTAC
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatWKT:
		return "wkt"
	case FormatSTAC:
		return "stac"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

const stacVersion = "1.0.0"

// ErrNoEncoding is returned when a mode has no representation in the
// requested format, e.g. size as WKT.
var ErrNoEncoding = errors.New("extent: no encoding for mode")

// EncodeOptions controls Encode.
type EncodeOptions struct {
	Format Format
	// Indent is the JSON indent width. Negative means compact output.
	Indent int
	// Href is the raster's location, used for STAC ids and assets.
	Href string
}

// Supports reports whether mode can be written in format.
func Supports(mode Mode, format Format) bool {
	return !(mode == ModeSize && format == FormatWKT)
}

// Encode renders rec without a trailing newline. Extent mode has no text
// form and is written as JSON when FormatText is requested.
func Encode(rec Record, opts EncodeOptions) ([]byte, error) {
	if !Supports(rec.Mode, opts.Format) {
		return nil, fmt.Errorf("%w: %s as %s", ErrNoEncoding, rec.Mode, opts.Format)
	}

	format := opts.Format
	if rec.Mode == ModeExtent && format == FormatText {
		format = FormatJSON
	}

	switch format {
	case FormatText:
		return encodeText(rec), nil
	case FormatJSON:
		raw, err := json.Marshal(jsonValue(rec))
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		number := realNumber
		if rec.Mode == ModeSize {
			number = integerNumber
		}
		return layoutJSON(raw, opts.Indent, number)
	case FormatWKT:
		s, err := wkt.Marshal(rec.Rectangle.Geom())
		if err != nil {
			return nil, fmt.Errorf("encode wkt: %w", err)
		}
		return []byte(s), nil
	case FormatSTAC:
		return marshalJSON(newItem(rec, opts.Href), opts.Indent)
	default:
		return nil, fmt.Errorf("%w: unknown format %s", ErrNoEncoding, format)
	}
}

func encodeText(rec Record) []byte {
	if rec.Mode == ModeSize {
		return []byte(strconv.Itoa(rec.Size.Width) + " " + strconv.Itoa(rec.Size.Height))
	}
	parts := make([]string, 0, 4)
	for _, v := range rec.Bounds.Slice() {
		parts = append(parts, FormatFloat(v))
	}
	return []byte(strings.Join(parts, " "))
}

// FormatFloat writes v in the shortest decimal form that round-trips,
// keeping a fractional part on whole numbers so coordinates read as reals
// (600.0).
func FormatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".IN") {
		return s
	}
	return s + ".0"
}

func jsonValue(rec Record) any {
	switch rec.Mode {
	case ModeSize:
		return []int{rec.Size.Width, rec.Size.Height}
	case ModeExtent:
		return geojson.NewGeometry(rec.Rectangle.Polygon())
	default:
		return rec.Bounds.Slice()
	}
}

func marshalJSON(v any, indent int) ([]byte, error) {
	if indent < 0 {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", strings.Repeat(" ", indent))
}

// newItem describes the raster as a STAC Item carrying the projection
// extension's shape and transform.
func newItem(rec Record, href string) *stac.Item {
	proj := &projectionItem{Shape: []int{rec.Size.Height, rec.Size.Width}}
	item := &stac.Item{
		Version:    stacVersion,
		Id:         itemID(href),
		Properties: map[string]any{"datetime": nil},
		Links:      []*stac.Link{},
		Assets: map[string]*stac.Asset{
			"data": {Href: href, Roles: []string{"data"}},
		},
		Extensions: []stac.Extension{proj},
	}
	if rec.Georeferenced {
		item.Geometry = geojson.NewGeometry(rec.Rectangle.Polygon())
		item.Bbox = rec.Bounds.Slice()
		gt := rec.Transform
		proj.Transform = []float64{gt[1], gt[2], gt[0], gt[4], gt[5], gt[3]}
	}
	return item
}

func itemID(href string) string {
	base := filepath.Base(href)
	if id := strings.TrimSuffix(base, filepath.Ext(base)); id != "" {
		return id
	}
	return base
}
