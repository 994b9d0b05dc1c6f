package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"packscaler/internal/services"
)

type ScaleOptions struct {
	*RootOptions

	Mode    string
	Factor  int
	Output  string
	Preview string
}

func (o *ScaleOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Mode, "mode", "m", "upscale", "Scaling mode: upscale or downscale")
	fs.IntVarP(&o.Factor, "factor", "f", 2, "Integer scale factor from 1 to 4")
	fs.StringVarP(&o.Output, "output", "o", "", "Output archive (default: <input>_<factor>x_<mode>d.zip)")
	fs.StringVar(&o.Preview, "preview", "", "Also write a PNG contact sheet of the rescaled textures")
}

func NewScaleCmd(root *RootOptions) *cobra.Command {
	o := &ScaleOptions{RootOptions: root}

	cmd := &cobra.Command{
		Use:   "scale ARCHIVE",
		Short: "Rescale one texture pack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.Run(cmd, args[0])
		},
	}
	o.BindFlags(cmd.Flags())
	return cmd
}

func (o *ScaleOptions) Run(cmd *cobra.Command, input string) error {
	mode, err := parseTaskFlags(o.Mode, o.Factor)
	if err != nil {
		return err
	}

	svc, err := NewScaleService(o.Config, o.Logger)
	if err != nil {
		return err
	}

	task := services.NewTask(input, o.Factor, mode)
	if o.Output != "" {
		task.Output = o.Output
	}
	task.PreviewPath = o.Preview

	report, err := svc.Run(cmd.Context(), task)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out(), "Texture pack %s and saved to:\n%s\n", mode.Past(), report.Output)
	if n := report.Warnings(); n > 0 {
		fmt.Fprintf(o.out(), "%d of %d images could not be rescaled:\n", n, report.Images)
		for _, f := range report.Failures {
			fmt.Fprintf(o.out(), "  %s: %v\n", f.Path, f.Err)
		}
	}
	if report.Preview != "" {
		fmt.Fprintf(o.out(), "Preview: %s\n", report.Preview)
	}
	return nil
}
