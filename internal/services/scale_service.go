package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"packscaler/internal/archive"
	"packscaler/internal/files"
	"packscaler/internal/image"
)

var ErrInvalidTask = errors.New("invalid task")

// Task is one conversion request. It is not modified by a run.
type Task struct {
	Input       string
	Output      string
	Factor      int
	Mode        image.Mode
	PreviewPath string
}

// NewTask builds a task whose output sits next to the input.
func NewTask(input string, factor int, mode image.Mode) Task {
	return Task{
		Input:  input,
		Output: files.OutputPath(input, factor, mode.Past()),
		Factor: factor,
		Mode:   mode,
	}
}

func (t Task) Validate() error {
	switch {
	case t.Input == "":
		return fmt.Errorf("%w: no input archive", ErrInvalidTask)
	case t.Output == "":
		return fmt.Errorf("%w: no output archive", ErrInvalidTask)
	case !t.Mode.Valid():
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidTask, t.Mode)
	case !image.ValidFactor(t.Factor):
		return fmt.Errorf("%w: factor %d out of range [%d,%d]", ErrInvalidTask, t.Factor, image.MinFactor, image.MaxFactor)
	}
	return nil
}

// Report summarises a finished run.
type Report struct {
	Output      string
	Images      int
	Transformed int
	Failures    []*image.ImageError
	Preview     string
	Duration    time.Duration
}

func (r *Report) Warnings() int {
	return len(r.Failures)
}

type Previewer interface {
	Render(results []image.Result, caption, dest string) error
}

type ScaleService struct {
	tempDir    string
	dispatcher *Dispatcher
	previewer  Previewer
	logger     logrus.FieldLogger
}

// NewScaleService creates tempDir if needed. An empty tempDir uses the
// system temp directory. previewer may be nil.
func NewScaleService(dispatcher *Dispatcher, previewer Previewer, tempDir string, logger logrus.FieldLogger) (*ScaleService, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if tempDir != "" {
		if err := os.MkdirAll(tempDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create temp directory: %w", err)
		}
	}
	return &ScaleService{
		tempDir:    tempDir,
		dispatcher: dispatcher,
		previewer:  previewer,
		logger:     logger,
	}, nil
}

// Run processes task in a scratch directory that is removed afterwards,
// whether or not the run succeeded.
func (s *ScaleService) Run(ctx context.Context, task Task) (*Report, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	scratch, err := os.MkdirTemp(s.tempDir, "packscaler-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			s.logger.Warnf("failed to remove scratch directory %s: %v", scratch, err)
		}
	}()

	return s.Process(ctx, task, scratch)
}

// Process extracts task.Input into scratchDir, rewrites every image in
// it and packs the tree into task.Output. Image failures are collected
// in the report; archive failures are returned as *archive.ArchiveError.
func (s *ScaleService) Process(ctx context.Context, task Task, scratchDir string) (*Report, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	logger := s.logger.WithFields(logrus.Fields{
		"input":  task.Input,
		"mode":   task.Mode,
		"factor": task.Factor,
	})

	if err := archive.Extract(task.Input, scratchDir, logger); err != nil {
		return nil, err
	}

	paths, err := files.FindImages(scratchDir)
	if err != nil {
		return nil, err
	}
	logger.Infof("found %d images", len(paths))

	outcome, err := s.dispatcher.Dispatch(ctx, scratchDir, paths, task.Factor, task.Mode)
	if err != nil {
		return nil, fmt.Errorf("transform images: %w", err)
	}

	report := &Report{
		Output:      task.Output,
		Images:      len(paths),
		Transformed: len(outcome.Results),
		Failures:    outcome.Failures,
	}

	if task.PreviewPath != "" && s.previewer != nil {
		caption := fmt.Sprintf("%s %dx, %d images", task.Mode.Past(), task.Factor, report.Transformed)
		if err := s.previewer.Render(outcome.Results, caption, task.PreviewPath); err != nil {
			logger.Warnf("preview not rendered: %v", err)
		} else {
			report.Preview = task.PreviewPath
		}
	}

	if err := archive.Pack(scratchDir, task.Output); err != nil {
		return nil, err
	}

	report.Duration = time.Since(start)
	logger.WithField("output", task.Output).Infof("packed %d/%d images with %d warnings in %s",
		report.Transformed, report.Images, report.Warnings(), report.Duration.Round(time.Millisecond))
	return report, nil
}
