package showdown

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SessionState is a read-only snapshot of a Session.
type SessionState struct {
	// Request is the most recently accepted request, nil before the first one.
	Request *ComparisonRequest

	// Results holds one entry per provider: placeholders while in flight, the
	// backend's results afterwards, empty after a failed comparison.
	Results []ProviderResult

	// ErrorMessage is the user-facing message of the last failure, "" if none.
	ErrorMessage string

	InFlight bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets a structured logger for the session.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithObserver registers a function called with a snapshot after every state change.
// Observers run outside the session lock and must not block for long.
func WithObserver(fn func(SessionState)) SessionOption {
	return func(s *Session) {
		s.observers = append(s.observers, fn)
	}
}

// WithRequestTimeout bounds each comparison. Zero, the default, means the
// session waits for the transport to finish or fail on its own.
func WithRequestTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = d
	}
}

// Session owns the lifecycle of comparison requests for one view: it
// validates, dispatches and tracks at most one request at a time.
type Session struct {
	comparer  Comparer
	logger    *slog.Logger
	observers []func(SessionState)
	timeout   time.Duration

	state SessionState

	// idle is closed whenever no request is in flight.
	idle chan struct{}

	mu sync.Mutex
}

// NewSession creates a Session that sends its requests through comparer.
func NewSession(comparer Comparer, opts ...SessionOption) *Session {
	idle := make(chan struct{})
	close(idle)

	s := &Session{
		comparer: comparer,
		logger:   slog.Default(),
		idle:     idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate validates the prompt and providers and dispatches a comparison.
//
// Validation failures, including a call made while another comparison is in
// flight, are returned as a *ValidationError. They set ErrorMessage and leave
// the previous results and the running request untouched.
//
// On success Generate returns immediately. The returned channel receives the
// terminal state once the comparison finishes and is then closed.
//
// The comparison is not cancelled when ctx is; ctx only carries values to the Comparer.
func (s *Session) Generate(ctx context.Context, prompt string, providers []Provider) (<-chan SessionState, error) {
	s.mu.Lock()

	if s.state.InFlight {
		err := invalid(ErrRequestInFlight, "")
		s.state.ErrorMessage = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Warn("comparison rejected", "reason", err.Error())
		s.notify(snap)
		return nil, err
	}

	req, err := NewComparisonRequest(prompt, providerIDs(providers))
	if err != nil {
		s.state.ErrorMessage = err.Error()
		snap := s.snapshotLocked()
		s.mu.Unlock()

		s.logger.Debug("comparison rejected", "reason", err.Error())
		s.notify(snap)
		return nil, err
	}

	ids := req.ProviderIDs()
	results := make([]ProviderResult, len(ids))
	for i, id := range ids {
		results[i] = PendingResult(id)
	}

	s.state = SessionState{
		Request:  req,
		Results:  results,
		InFlight: true,
	}
	s.idle = make(chan struct{})
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("comparison dispatched",
		"request_id", req.ID(),
		"providers", strings.Join(ids, ","),
		"prompt_length", len(req.Prompt()),
	)
	s.notify(snap)

	done := make(chan SessionState, 1)
	go s.dispatch(context.WithoutCancel(ctx), req, done)
	return done, nil
}

func (s *Session) dispatch(ctx context.Context, req *ComparisonRequest, done chan<- SessionState) {
	defer close(done)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := s.comparer.Compare(ctx, req)
	duration := time.Since(start)

	s.mu.Lock()
	if err != nil {
		s.state.Results = []ProviderResult{}
		s.state.ErrorMessage = failureMessage(err)
	} else {
		s.state.Results = append([]ProviderResult{}, results...)
		s.state.ErrorMessage = ""
	}
	s.state.InFlight = false
	close(s.idle)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("comparison failed",
			"request_id", req.ID(),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
	} else {
		failed := 0
		for _, r := range results {
			if r.Status == StatusError {
				failed++
			}
		}
		s.logger.Info("comparison completed",
			"request_id", req.ID(),
			"duration_ms", duration.Milliseconds(),
			"results", len(results),
			"failed", failed,
		)
	}

	s.notify(snap)
	done <- snap
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// CanGenerate reports whether a generate action should be enabled: the prompt
// is non-blank, enough providers are selected and nothing is in flight.
func (s *Session) CanGenerate(prompt string, selected int) bool {
	s.mu.Lock()
	inFlight := s.state.InFlight
	s.mu.Unlock()

	return !inFlight && strings.TrimSpace(prompt) != "" && selected >= MinProviders
}

// Wait blocks until no comparison is in flight or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) snapshotLocked() SessionState {
	snap := s.state
	if s.state.Results != nil {
		snap.Results = make([]ProviderResult, len(s.state.Results))
		copy(snap.Results, s.state.Results)
	}
	return snap
}

func (s *Session) notify(snap SessionState) {
	for _, fn := range s.observers {
		fn(snap)
	}
}
