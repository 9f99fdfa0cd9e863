package raster

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// WorldFileDriver opens any image whose header the registered image decoders
// understand and takes its georeferencing from a world-file sidecar. Images
// without a sidecar open fine but report ErrMissingGeoreferencing. TIFF files
// are claimed by GeoTIFFDriver, which consults the same sidecars.
type WorldFileDriver struct{}

func (WorldFileDriver) Name() string { return "WorldFile" }

func (WorldFileDriver) Open(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: unknown image format", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode image header: %w", err)
	}

	ds := &dataset{width: cfg.Width, height: cfg.Height}
	ds.useWorldFile(path)
	return ds, nil
}

// worldFileCandidates lists the sidecar names tried for path, in order:
// the three-letter convention (.tfw for .tif), the extension plus "w"
// (.tifw) and the generic .wld.
func worldFileCandidates(path string) []string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	ext = strings.TrimPrefix(ext, ".")

	var names []string
	if len(ext) >= 2 {
		names = append(names, "."+ext[:1]+ext[len(ext)-1:]+"w")
	}
	if ext != "" {
		names = append(names, "."+ext+"w")
	}
	names = append(names, ".wld")

	out := make([]string, 0, len(names)*2)
	for _, n := range names {
		out = append(out, base+strings.ToLower(n), base+strings.ToUpper(n))
	}
	return out
}

// readWorldFileFor looks for a sidecar next to path. The second return value
// is false when no sidecar exists.
func readWorldFileFor(path string) (GeoTransform, bool, error) {
	for _, candidate := range worldFileCandidates(path) {
		gt, err := readWorldFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return GeoTransform{}, false, err
		}
		return gt, true, nil
	}
	return GeoTransform{}, false, nil
}

// readWorldFile parses the six lines A, D, B, E, C, F of a world file. C and
// F address the centre of the upper-left pixel, so the origin is shifted by
// half a pixel to the corner.
func readWorldFile(path string) (GeoTransform, error) {
	f, err := os.Open(path)
	if err != nil {
		return GeoTransform{}, err
	}
	defer f.Close()

	var vals []float64
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(vals) < 6 {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return GeoTransform{}, fmt.Errorf("world file %s: line %d: %w", path, len(vals)+1, err)
		}
		vals = append(vals, v)
	}
	if err := sc.Err(); err != nil {
		return GeoTransform{}, fmt.Errorf("world file %s: %w", path, err)
	}
	if len(vals) < 6 {
		return GeoTransform{}, fmt.Errorf("world file %s: expected 6 values, got %d", path, len(vals))
	}

	a, d, b, e, c, f0 := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	return GeoTransform{c - a/2 - b/2, a, b, f0 - d/2 - e/2, d, e}, nil
}
