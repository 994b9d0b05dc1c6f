package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"packscaler/internal/config"
)

type RootOptions struct {
	ConfigPath string
	LogLevel   string

	Out    io.Writer
	Config *config.Config
	Logger *logrus.Logger
}

func (o *RootOptions) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigPath, "config", "c", "", "Path to a YAML config file")
	fs.StringVar(&o.LogLevel, "log-level", "", "Log level (e.g. \"debug | info | warn | error\")")
}

// PreRun loads the configuration and sets up the logger shared by all commands.
func (o *RootOptions) PreRun(cmd *cobra.Command, _ []string) error {
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
	})

	cfg, err := config.Load(o.ConfigPath, logger)
	if err != nil {
		return err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log-level: %w", err)
	}
	logger.SetLevel(level)

	o.Config = cfg
	o.Logger = logger
	if o.Out == nil {
		o.Out = cmd.OutOrStdout()
	}
	return nil
}

func (o *RootOptions) out() io.Writer {
	if o.Out == nil {
		return os.Stdout
	}
	return o.Out
}
