package raster

import (
	"errors"
	"io"
	"log/slog"
)

// Registry tries its drivers in registration order until one opens a path.
type Registry struct {
	drivers []Driver
	logger  *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithDrivers appends drivers to the registry.
func WithDrivers(drivers ...Driver) RegistryOption {
	return func(r *Registry) { r.drivers = append(r.drivers, drivers...) }
}

// WithLogger sets the logger used for driver selection events.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry configured by opts.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Drivers returns the registered driver names in lookup order.
func (r *Registry) Drivers() []string {
	names := make([]string, len(r.drivers))
	for i, d := range r.drivers {
		names[i] = d.Name()
	}
	return names
}

// Open opens path with the first driver that accepts it. Any failure is
// returned as an *OpenError.
func (r *Registry) Open(path string) (Dataset, error) {
	if len(r.drivers) == 0 {
		return nil, &OpenError{Path: path, Err: ErrNoDrivers}
	}
	for _, d := range r.drivers {
		ds, err := d.Open(path)
		if err == nil {
			r.logger.Debug("opened raster", "path", path, "driver", d.Name())
			return ds, nil
		}
		if errors.Is(err, ErrUnsupportedFormat) {
			r.logger.Debug("driver skipped", "path", path, "driver", d.Name())
			continue
		}
		return nil, &OpenError{Path: path, Err: err}
	}
	return nil, &OpenError{Path: path, Err: ErrUnsupportedFormat}
}

// builtinDrivers lists the drivers of the default registry. Optional drivers
// compiled in through build tags prepend themselves from init.
var builtinDrivers = []Driver{GeoTIFFDriver{}, WorldFileDriver{}}

// DefaultDrivers returns the drivers compiled into this binary in lookup order.
func DefaultDrivers() []Driver {
	return append([]Driver(nil), builtinDrivers...)
}
