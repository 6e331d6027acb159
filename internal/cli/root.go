// Package cli implements the pacer command-line front-end.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"example.com/pacer/internal/config"
	"example.com/pacer/internal/logging"
)

const version = "0.1.0"

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	var alerted alertedError
	if err != nil && !errors.As(err, &alerted) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}

// app carries state shared by every subcommand.
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func (a *app) clientConfig() config.ClientConfig {
	return config.ClientConfig{
		APIBase:  a.v.GetString("api-base"),
		Mode:     a.v.GetString("env"),
		Platform: a.v.GetString("platform"),
		DevHost:  a.v.GetString("dev-host"),
	}
}

func (a *app) timeout() time.Duration {
	return a.v.GetDuration("timeout")
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:           "pacer",
		Short:         "PACER - log your runs from the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("api-base", "", "runs API base address (overrides --env/--platform/--dev-host)")
	flags.String("env", config.ModeDevelopment, "deployment mode: development or production")
	flags.String("platform", "", "device platform used to pick the development host (android uses 10.0.2.2)")
	flags.String("dev-host", "", "development server host URI, e.g. 192.168.1.20:8081")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.Duration("timeout", 0, "per-command timeout (0 relies on transport defaults)")

	a.v.SetEnvPrefix("pacer")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	if err := a.v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("bind flags: %v", err))
	}

	cmd.AddCommand(newRunsCommand(a))
	return cmd
}
