package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	o := &RootOptions{}

	cmd := &cobra.Command{
		Use:               "packscaler",
		Short:             "Rescale every texture in a zip texture pack",
		SilenceUsage:      true,
		PersistentPreRunE: o.PreRun,
	}
	o.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewScaleCmd(o),
		NewWatchCmd(o),
		NewBotCmd(o),
	)
	return cmd
}
