package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"packscaler/internal/image"
	"packscaler/internal/services"
	"packscaler/internal/watcher"
)

type WatchOptions struct {
	*RootOptions

	Mode   string
	Factor int
	OutDir string
	Settle time.Duration
}

func (o *WatchOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Mode, "mode", "m", "", "Scaling mode: upscale or downscale (default from config)")
	fs.IntVarP(&o.Factor, "factor", "f", 0, "Integer scale factor from 1 to 4 (default from config)")
	fs.StringVar(&o.OutDir, "out-dir", "", "Directory for results (default: next to each input)")
	fs.DurationVar(&o.Settle, "settle", 0, "Quiet period before a new archive is processed")
}

func NewWatchCmd(root *RootOptions) *cobra.Command {
	o := &WatchOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Rescale every texture pack dropped into a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := o.Config.Watch.Dir
			if len(args) == 1 {
				dir = args[0]
			}
			return o.Run(cmd.Context(), dir)
		},
	}
	o.BindFlags(cmd.Flags())
	return cmd
}

func (o *WatchOptions) complete() {
	w := o.Config.Watch
	if o.Mode == "" {
		o.Mode = w.Mode
	}
	if o.Factor == 0 {
		o.Factor = w.Factor
	}
	if o.OutDir == "" {
		o.OutDir = w.OutDir
	}
	if o.Settle == 0 {
		o.Settle = w.Settle
	}
}

func (o *WatchOptions) Run(ctx context.Context, dir string) error {
	if dir == "" {
		return errors.New("no directory to watch")
	}
	o.complete()

	mode, err := parseTaskFlags(o.Mode, o.Factor)
	if err != nil {
		return err
	}

	svc, err := NewScaleService(o.Config, o.Logger)
	if err != nil {
		return err
	}

	w, err := watcher.NewWatcher(dir, o.Settle, o.processFunc(svc, mode), o.Logger)
	if err != nil {
		return err
	}

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (o *WatchOptions) processFunc(svc *services.ScaleService, mode image.Mode) watcher.ProcessFunc {
	return func(ctx context.Context, path string) error {
		task := o.task(path, mode)
		report, err := svc.Run(ctx, task)
		if err != nil {
			return err
		}
		fmt.Fprintf(o.out(), "%s -> %s (%d/%d images)\n", path, report.Output, report.Transformed, report.Images)
		return nil
	}
}

func (o *WatchOptions) task(path string, mode image.Mode) services.Task {
	task := services.NewTask(path, o.Factor, mode)
	if o.OutDir != "" {
		task.Output = filepath.Join(o.OutDir, filepath.Base(task.Output))
	}
	return task
}
