package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned by a driver that does not recognise a file.
	ErrUnsupportedFormat = errors.New("raster: unsupported format")
	// ErrMissingGeoreferencing indicates an opened raster has no usable geotransform.
	ErrMissingGeoreferencing = errors.New("raster: missing georeferencing")
	// ErrNoDrivers is returned when a registry has nothing registered.
	ErrNoDrivers = errors.New("raster: no drivers registered")
)

// OpenError reports that a path could not be opened as a raster.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("raster: cannot open %s", e.Path)
	}
	return fmt.Sprintf("raster: cannot open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// GeoreferencingError explains why an opened raster has no usable
// geotransform, e.g. an unreadable world file. It matches
// ErrMissingGeoreferencing under errors.Is.
type GeoreferencingError struct {
	Err error
}

func (e *GeoreferencingError) Error() string {
	return fmt.Sprintf("raster: unusable georeferencing: %v", e.Err)
}

func (e *GeoreferencingError) Is(target error) bool { return target == ErrMissingGeoreferencing }

func (e *GeoreferencingError) Unwrap() error { return e.Err }
