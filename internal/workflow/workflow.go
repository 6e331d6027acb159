// Package workflow drives the run-logging screen: it owns the run list and the
// pending form, inserts a provisional run before the remote confirms it, and
// reconciles the list once the create call settles.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"example.com/pacer/internal/domain"
)

var (
	// ErrSubmissionInFlight is returned while a create (or the initial load) is outstanding.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")
	// ErrClosed is returned once the workflow has been torn down.
	ErrClosed = errors.New("workflow closed")
)

const (
	alertValidation   = "Validation"
	alertError        = "Error"
	createFailureText = "Failed to create run. Please try again."
)

// RunService is the remote collection the workflow reads from and writes to.
type RunService interface {
	ListRuns(ctx context.Context) ([]domain.Run, error)
	CreateRun(ctx context.Context, run domain.Run) (domain.Run, error)
}

// Snapshot is a copy of the screen state handed to observers.
type Snapshot struct {
	Runs    []domain.Run
	Form    Form
	Loading bool
}

// entry pairs a run with the token of the submission that inserted it. Confirmed
// and fetched runs carry an empty token.
type entry struct {
	token string
	run   domain.Run
}

// Workflow is one instance of the run-logging screen.
type Workflow struct {
	client   RunService
	logger   *zap.Logger
	notifier Notifier
	observer func(Snapshot)
	newToken func() string

	lifetime context.Context
	teardown context.CancelFunc

	mu      sync.Mutex
	entries []entry
	form    Form
	loading bool
	mounted bool
	closed  bool
}

// New constructs a Workflow backed by client.
func New(client RunService, opts ...Option) *Workflow {
	lifetime, teardown := context.WithCancel(context.Background())
	w := &Workflow{
		client:   client,
		logger:   zap.NewNop(),
		notifier: NotifierFunc(func(string, string) {}),
		newToken: defaultToken,
		lifetime: lifetime,
		teardown: teardown,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Mount performs the one-time initial load. A failed load is logged and leaves
// the list empty; it is never reported to the user. While the load is in
// flight the loading flag is held, so submissions are refused rather than
// raced against the incoming list.
func (w *Workflow) Mount(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.mounted {
		w.mu.Unlock()
		return nil
	}
	if w.loading {
		w.mu.Unlock()
		return ErrSubmissionInFlight
	}
	w.mounted = true
	w.loading = true
	callCtx, done := w.track(ctx)
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)

	defer w.settle()
	defer done()

	fetched, err := w.client.ListRuns(callCtx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if err != nil {
		w.logger.Warn("failed to fetch runs", zap.Error(err))
		return nil
	}
	w.entries = mergeFetched(w.entries, fetched)
	return nil
}

// SetField updates one form input.
func (w *Workflow) SetField(field Field, value string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	updated, err := w.form.with(field, value)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.form = updated
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)
	return nil
}

// Submit validates the form, shows a provisional run at the head of the list,
// and asks the remote to create it. On success the provisional entry is
// replaced by the record the remote returned and the form is cleared. On
// failure the provisional entry is removed, the form is kept for a retry and
// the user is alerted. Failures are never retried.
func (w *Workflow) Submit(ctx context.Context) (domain.Run, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.Run{}, ErrClosed
	}
	if w.loading {
		w.mu.Unlock()
		return domain.Run{}, ErrSubmissionInFlight
	}

	form := w.form
	if err := form.Validate(); err != nil {
		w.mu.Unlock()
		var verr *ValidationError
		if errors.As(err, &verr) {
			w.notifier.Alert(alertValidation, verr.Message)
		}
		return domain.Run{}, err
	}

	token := w.newToken()
	optimistic := domain.Run{ID: form.DisplayID()}
	w.entries = append([]entry{{token: token, run: optimistic}}, w.entries...)
	w.loading = true
	callCtx, done := w.track(ctx)
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)

	defer w.settle()
	defer done()

	created, err := w.client.CreateRun(callCtx, optimistic)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return domain.Run{}, ErrClosed
	}
	w.entries = removeToken(w.entries, token)
	if err != nil {
		w.mu.Unlock()
		w.logger.Error("failed to create run", zap.String("run_id", optimistic.ID), zap.Error(err))
		w.notifier.Alert(alertError, createFailureText)
		return domain.Run{}, fmt.Errorf("create run: %w", err)
	}
	w.entries = append([]entry{{run: created}}, w.entries...)
	w.form = Form{}
	w.mu.Unlock()

	w.logger.Debug("run created", zap.String("run_id", created.ID))
	return created, nil
}

// Runs returns the current list, newest first.
func (w *Workflow) Runs() []domain.Run {
	w.mu.Lock()
	defer w.mu.Unlock()
	return runsOf(w.entries)
}

// Form returns the pending form.
func (w *Workflow) Form() Form {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.form
}

// Loading reports whether a remote call is outstanding.
func (w *Workflow) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// Snapshot returns a copy of the whole screen state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Close tears the screen down. Outstanding calls are cancelled and their
// results discarded; no state changes or observer callbacks happen afterwards.
func (w *Workflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.teardown()
}

// track derives a call context that ends when either the caller's context or
// the workflow's lifetime ends.
func (w *Workflow) track(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(w.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// settle clears the loading flag. It is deferred so it runs on every exit path.
func (w *Workflow) settle() {
	w.mu.Lock()
	w.loading = false
	if w.closed {
		w.mu.Unlock()
		return
	}
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.publish(snap)
}

func (w *Workflow) snapshotLocked() Snapshot {
	return Snapshot{
		Runs:    runsOf(w.entries),
		Form:    w.form,
		Loading: w.loading,
	}
}

func (w *Workflow) publish(snap Snapshot) {
	if w.observer != nil {
		w.observer(snap)
	}
}

func runsOf(entries []entry) []domain.Run {
	out := make([]domain.Run, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.run)
	}
	return out
}

// removeToken drops the single entry inserted under token.
func removeToken(entries []entry, token string) []entry {
	for i, e := range entries {
		if e.token == token {
			out := make([]entry, 0, len(entries)-1)
			out = append(out, entries[:i]...)
			return append(out, entries[i+1:]...)
		}
	}
	return entries
}

// mergeFetched places fetched runs behind any entries that already exist,
// skipping fetched runs whose identifier is already present.
func mergeFetched(existing []entry, fetched []domain.Run) []entry {
	seen := make(map[string]struct{}, len(existing))
	out := make([]entry, 0, len(existing)+len(fetched))
	for _, e := range existing {
		seen[e.run.ID] = struct{}{}
		out = append(out, e)
	}
	for _, run := range fetched {
		if _, dup := seen[run.ID]; dup {
			continue
		}
		out = append(out, entry{run: run})
	}
	return out
}
