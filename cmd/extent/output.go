package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/robert-malhotra/raster-extent/pkg/extent"
	"github.com/robert-malhotra/raster-extent/pkg/raster"
	"github.com/robert-malhotra/raster-extent/pkg/source"
)

// batch processes operands one at a time, in order. Only one dataset is
// open at any moment.
type batch struct {
	registry *raster.Registry
	resolver *source.Resolver
	logger   *slog.Logger
	mode     extent.Mode
	opts     extent.EncodeOptions
	stdout   io.Writer
	stderr   io.Writer
}

// outputError wraps a failed write to stdout, which ends the batch.
type outputError struct {
	err error
}

func (e *outputError) Error() string { return fmt.Sprintf("write output: %v", e.err) }

func (e *outputError) Unwrap() error { return e.err }

func (b *batch) run(ctx context.Context, operands []string) error {
	failed := 0
	for _, operand := range operands {
		err := b.process(ctx, operand)
		if err == nil {
			continue
		}
		var oerr *outputError
		if errors.As(err, &oerr) {
			return oerr
		}
		fmt.Fprintf(b.stderr, "Error: %s\n", describe(operand, err))
		failed++
	}

	if failed > 0 {
		b.logger.Info("batch finished with failures", "failed", failed, "total", len(operands))
		return fmt.Errorf("%w: %d of %d", errFilesFailed, failed, len(operands))
	}
	return nil
}

func (b *batch) process(ctx context.Context, operand string) error {
	local, err := b.resolver.Resolve(ctx, operand)
	if err != nil {
		return &raster.OpenError{Path: operand, Err: err}
	}
	defer local.Release()

	ds, err := b.registry.Open(local.Path)
	if err != nil {
		return err
	}
	defer ds.Close()

	rec, err := extent.Compute(b.mode, ds)
	if err != nil {
		return err
	}

	opts := b.opts
	opts.Href = operand
	out, err := extent.Encode(rec, opts)
	if err != nil {
		return err
	}

	if _, err := b.stdout.Write(append(out, '\n')); err != nil {
		return &outputError{err: err}
	}
	return nil
}

// describe renders a per-file failure for stderr.
func describe(operand string, err error) string {
	var (
		openErr *raster.OpenError
		geoErr  *raster.GeoreferencingError
	)
	switch {
	case errors.As(err, &openErr):
		return fmt.Sprintf("%s: cannot open: %v", operand, openErr.Err)
	case errors.As(err, &geoErr):
		return fmt.Sprintf("%s: raster has no georeferencing: %v", operand, geoErr.Err)
	case errors.Is(err, raster.ErrMissingGeoreferencing):
		return fmt.Sprintf("%s: raster has no georeferencing", operand)
	default:
		return fmt.Sprintf("%s: %v", operand, err)
	}
}
