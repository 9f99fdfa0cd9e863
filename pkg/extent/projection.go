package extent

import (
	"regexp"

	stac "github.com/planetlabs/go-stac"
)

const (
	projectionURI     = "https://stac-extensions.github.io/projection/v1.1.0/schema.json"
	projectionPattern = `https://stac-extensions.github.io/projection/v1\..*/schema.json`
)

func init() {
	stac.RegisterItemExtension(
		regexp.MustCompile(projectionPattern),
		func() stac.Extension {
			return &projectionItem{}
		},
	)
}

// projectionItem holds the STAC projection extension's item properties. The
// CRS is not read from the raster, so proj:epsg is always null.
type projectionItem struct {
	EPSG      *int      `json:"proj:epsg"`
	Shape     []int     `json:"proj:shape,omitempty"`
	Transform []float64 `json:"proj:transform,omitempty"`
}

var _ stac.Extension = (*projectionItem)(nil)

func (*projectionItem) URI() string {
	return projectionURI
}

func (e *projectionItem) Encode(itemMap map[string]any) error {
	return stac.EncodeExtendedItemProperties(e, itemMap)
}

func (e *projectionItem) Decode(itemMap map[string]any) error {
	return stac.DecodeExtendedItemProperties(e, itemMap)
}
