package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"example.com/pacer/internal/config"
	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/runs"
	"example.com/pacer/internal/workflow"
)

const emptyListText = "No runs yet — add your first one above."

func newRunsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List and add runs",
	}
	cmd.AddCommand(newRunsListCommand(a), newRunsAddCommand(a))
	return cmd
}

func newRunsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show your runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			s := newScreen(a, cmd.OutOrStdout(), cmd.ErrOrStderr())
			defer s.close()

			if err := s.wf.Mount(ctx); err != nil {
				return err
			}
			s.render()
			return nil
		},
	}
}

func newRunsAddCommand(a *app) *cobra.Command {
	var form workflow.Form

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a run",
		Long: `Add a run and print the updated list.

Examples:
  pacer runs add --date 2024-02-01 --distance 10 --duration 50:00
  pacer runs add --date 2024-02-01 --distance 5.5 --duration 28:10 --notes "easy"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			s := newScreen(a, cmd.OutOrStdout(), cmd.ErrOrStderr())
			defer s.close()

			if err := s.wf.Mount(ctx); err != nil {
				return err
			}
			for field, value := range map[workflow.Field]string{
				workflow.FieldDate:     form.Date,
				workflow.FieldDistance: form.Distance,
				workflow.FieldDuration: form.Duration,
				workflow.FieldNotes:    form.Notes,
			} {
				if err := s.wf.SetField(field, value); err != nil {
					return err
				}
			}

			created, err := s.wf.Submit(ctx)
			if err != nil {
				if !errors.Is(err, workflow.ErrClosed) && !errors.Is(err, workflow.ErrSubmissionInFlight) {
					// The workflow already alerted the user.
					return alertedError{err: err}
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n\n", created.ID)
			s.render()
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Date, "date", "", "date of the run (YYYY-MM-DD)")
	flags.StringVar(&form.Distance, "distance", "", "distance in km")
	flags.StringVar(&form.Duration, "duration", "", "duration (mm:ss or hh:mm:ss)")
	flags.StringVar(&form.Notes, "notes", "", "optional notes")
	return cmd
}

func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if d := a.timeout(); d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}

// alertedError marks failures the user has already been shown.
type alertedError struct {
	err error
}

func (e alertedError) Error() string { return e.err.Error() }

func (e alertedError) Unwrap() error { return e.err }

// screen is the terminal rendition of the run-logging screen.
type screen struct {
	wf  *workflow.Workflow
	out io.Writer
	err io.Writer
}

func newScreen(a *app, out, errOut io.Writer) *screen {
	base := config.ResolveAPIBase(a.clientConfig())
	a.logger.Debug("resolved runs API", zap.String("base", base))

	s := &screen{out: out, err: errOut}
	s.wf = workflow.New(runs.NewClient(base),
		workflow.WithLogger(a.logger),
		workflow.WithNotifier(workflow.NotifierFunc(s.alert)),
	)
	return s
}

func (s *screen) alert(title, message string) {
	fmt.Fprintf(s.err, "%s: %s\n", title, message)
}

func (s *screen) render() {
	renderRuns(s.out, s.wf.Runs())
}

func (s *screen) close() {
	s.wf.Close()
}

func renderRuns(w io.Writer, list []domain.Run) {
	fmt.Fprintln(w, "Your Runs")
	if len(list) == 0 {
		fmt.Fprintln(w, emptyListText)
		return
	}
	for _, run := range list {
		fmt.Fprintf(w, "  %s\n", run.ID)
	}
}
