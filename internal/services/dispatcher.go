package services

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"packscaler/internal/image"
)

type Transformer interface {
	Transform(path string, factor int, mode image.Mode) (image.Result, error)
}

// Dispatcher runs a Transformer over many files on a fixed-size pool.
type Dispatcher struct {
	transformer Transformer
	workers     int
	logger      logrus.FieldLogger
}

// NewDispatcher sizes the pool to the number of CPUs when workers is not positive.
func NewDispatcher(transformer Transformer, workers int, logger logrus.FieldLogger) *Dispatcher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		transformer: transformer,
		workers:     workers,
		logger:      logger,
	}
}

func (d *Dispatcher) Workers() int {
	return d.workers
}

type Outcome struct {
	Results  []image.Result
	Failures []*image.ImageError
}

// Dispatch transforms every path and waits for all of them. A failing
// file is recorded in the outcome and never stops the others. Once ctx
// is done no new file is started and the context error is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, root string, paths []string, factor int, mode image.Mode) (*Outcome, error) {
	results := make([]image.Result, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(d.workers)

	for i, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i], errs[i] = d.transformer.Transform(path, factor, mode)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &Outcome{}
	for i, err := range errs {
		if err == nil {
			out.Results = append(out.Results, results[i])
			continue
		}

		failure := &image.ImageError{Path: relative(root, paths[i]), Err: err}
		var ie *image.ImageError
		if errors.As(err, &ie) {
			failure.Err = ie.Err
		}
		d.logger.WithField("path", failure.Path).Warnf("skipping image: %v", failure.Err)
		out.Failures = append(out.Failures, failure)
	}
	return out, nil
}

func relative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
