package extent

import (
	"encoding/json"
	"strings"
	"testing"

	stac "github.com/planetlabs/go-stac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/raster-extent/pkg/raster/rastertest"
)

const polygonJSON = `{"type": "Polygon", "coordinates": [[[100.0, 500.0], [600.0, 500.0], [600.0, 100.0], [100.0, 100.0], [100.0, 500.0]]]}`

func record(t *testing.T, mode Mode) Record {
	t.Helper()
	rec, err := Compute(mode, scenario())
	require.NoError(t, err)
	return rec
}

func TestEncode_Text(t *testing.T) {
	compact := EncodeOptions{Format: FormatText, Indent: -1}

	out, err := Encode(record(t, ModeBounds), compact)
	require.NoError(t, err)
	assert.Equal(t, "100.0 100.0 600.0 500.0", string(out))

	out, err = Encode(record(t, ModeSize), compact)
	require.NoError(t, err)
	assert.Equal(t, "50 40", string(out))

	t.Run("extent is always json", func(t *testing.T) {
		out, err := Encode(record(t, ModeExtent), compact)
		require.NoError(t, err)
		assert.Equal(t, polygonJSON, string(out))
	})
}

func TestEncode_JSON(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		indent int
		want   string
	}{
		{name: "bounds compact", mode: ModeBounds, indent: -1, want: `[100.0, 100.0, 600.0, 500.0]`},
		{name: "size compact", mode: ModeSize, indent: -1, want: `[50, 40]`},
		{name: "size indent 2", mode: ModeSize, indent: 2, want: "[\n  50,\n  40\n]"},
		{name: "size indent 0", mode: ModeSize, indent: 0, want: "[\n50,\n40\n]"},
		{name: "bounds indent 1", mode: ModeBounds, indent: 1, want: "[\n 100.0,\n 100.0,\n 600.0,\n 500.0\n]"},
		{name: "extent compact", mode: ModeExtent, indent: -1, want: polygonJSON},
		{
			name:   "extent indent 2",
			mode:   ModeExtent,
			indent: 2,
			want: `{
  "type": "Polygon",
  "coordinates": [
    [
      [
        100.0,
        500.0
      ],
      [
        600.0,
        500.0
      ],
      [
        600.0,
        100.0
      ],
      [
        100.0,
        100.0
      ],
      [
        100.0,
        500.0
      ]
    ]
  ]
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Encode(record(t, tt.mode), EncodeOptions{Format: FormatJSON, Indent: tt.indent})
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.True(t, json.Valid(out))
		})
	}

	t.Run("fractional coordinates", func(t *testing.T) {
		rec, err := Compute(ModeBounds, &rastertest.Dataset{
			Transform: [6]float64{-122.5, 0.25, 0, 37.75, 0, -0.25},
			Width:     2,
			Height:    3,
		})
		require.NoError(t, err)
		out, err := Encode(rec, EncodeOptions{Format: FormatJSON, Indent: -1})
		require.NoError(t, err)
		assert.Equal(t, "[-122.5, 37.0, -122.0, 37.75]", string(out))
	})
}

func TestLayoutJSON(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		indent int
		want   string
	}{
		{name: "empty containers", in: `{"a":[],"b":{}}`, indent: -1, want: `{"a": [], "b": {}}`},
		{name: "empty containers indented", in: `{"a":[],"b":{}}`, indent: 2, want: "{\n  \"a\": [],\n  \"b\": {}\n}"},
		{name: "scalars", in: `[true,false,null,"x, y"]`, indent: -1, want: `[true, false, null, "x, y"]`},
		{name: "nested objects", in: `{"a":{"b":1}}`, indent: -1, want: `{"a": {"b": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := layoutJSON([]byte(tt.in), tt.indent, integerNumber)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
		})
	}

	_, err := layoutJSON([]byte(`[1,`), -1, integerNumber)
	assert.Error(t, err)
}

func TestEncode_WKT(t *testing.T) {
	for _, mode := range []Mode{ModeBounds, ModeExtent} {
		out, err := Encode(record(t, mode), EncodeOptions{Format: FormatWKT, Indent: -1})
		require.NoError(t, err)
		s := string(out)
		assert.True(t, strings.HasPrefix(s, "POLYGON"), s)
		assert.Contains(t, s, "100 500")
		assert.Contains(t, s, "600 100")
	}

	_, err := Encode(record(t, ModeSize), EncodeOptions{Format: FormatWKT})
	assert.ErrorIs(t, err, ErrNoEncoding)
	assert.False(t, Supports(ModeSize, FormatWKT))
	assert.True(t, Supports(ModeSize, FormatSTAC))
}

func TestEncode_STAC(t *testing.T) {
	out, err := Encode(record(t, ModeBounds), EncodeOptions{Format: FormatSTAC, Indent: -1, Href: "/data/scene.tif"})
	require.NoError(t, err)

	var item map[string]any
	require.NoError(t, json.Unmarshal(out, &item))
	assert.Equal(t, "scene", item["id"])
	assert.Equal(t, "1.0.0", item["stac_version"])
	assert.Equal(t, []any{100.0, 100.0, 600.0, 500.0}, item["bbox"])

	geometry, ok := item["geometry"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Polygon", geometry["type"])

	props, ok := item["properties"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{40.0, 50.0}, props["proj:shape"])
	assert.Equal(t, []any{10.0, 0.0, 100.0, 0.0, -10.0, 500.0}, props["proj:transform"])
	assert.Contains(t, props, "proj:epsg")
	assert.Nil(t, props["proj:epsg"])
	assert.Contains(t, props, "datetime")
	assert.Equal(t, []any{projectionURI}, item["stac_extensions"])

	assets, ok := item["assets"].(map[string]any)
	require.True(t, ok)
	data, ok := assets["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/data/scene.tif", data["href"])

	t.Run("size without georeferencing", func(t *testing.T) {
		rec, err := Compute(ModeSize, &rastertest.Dataset{Width: 4, Height: 3, Ungeoreferenced: true})
		require.NoError(t, err)

		out, err := Encode(rec, EncodeOptions{Format: FormatSTAC, Indent: -1, Href: "plain.png"})
		require.NoError(t, err)

		var item map[string]any
		require.NoError(t, json.Unmarshal(out, &item))
		assert.Equal(t, "plain", item["id"])
		assert.Nil(t, item["geometry"])
		assert.Nil(t, item["bbox"])

		props, ok := item["properties"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, []any{3.0, 4.0}, props["proj:shape"])
		assert.NotContains(t, props, "proj:transform")
	})

	t.Run("decodes back through go-stac", func(t *testing.T) {
		var decoded stac.Item
		require.NoError(t, json.Unmarshal(out, &decoded))
		require.Len(t, decoded.Extensions, 1)
		proj, ok := decoded.Extensions[0].(*projectionItem)
		require.True(t, ok)
		assert.Equal(t, []int{40, 50}, proj.Shape)
		assert.Equal(t, []float64{10, 0, 100, 0, -10, 500}, proj.Transform)
	})
}

func TestFormatFloat(t *testing.T) {
	tests := map[float64]string{
		100:       "100.0",
		-3:        "-3.0",
		0:         "0.0",
		0.5:       "0.5",
		123456789: "123456789.0",
		1e-7:      "0.0000001",
		-122.4194: "-122.4194",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFloat(in), "%v", in)
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "text", FormatText.String())
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "wkt", FormatWKT.String())
	assert.Equal(t, "stac", FormatSTAC.String())
}
