package transition

import (
	"context"
	"strings"
	"sync"

	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/lifecycle"
)

// Phase is the orchestrator's position within one transition attempt.
type Phase string

const (
	PhaseIdle                 Phase = "idle"
	PhaseAwaitingReason       Phase = "awaiting_reason"
	PhaseAwaitingConfirmation Phase = "awaiting_confirmation"
	PhaseInFlight             Phase = "in_flight"
)

// Outcome classifies how a transition attempt ended.
type Outcome string

const (
	// OutcomeCompleted: the remote call succeeded and caches were flagged.
	OutcomeCompleted Outcome = "completed"
	// OutcomeCancelled: the user dismissed the prompt; no remote call fired.
	OutcomeCancelled Outcome = "cancelled"
	// OutcomeIgnored: another attempt was already underway for this record.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeFailed: the remote call failed; the error is retained.
	OutcomeFailed Outcome = "failed"
)

// Result reports one attempt. Projection is set only on completion.
type Result struct {
	Outcome    Outcome
	Operation  string
	Projection *claims.Projection
}

// Orchestrator turns "move this record to status X" into exactly one remote
// call, collecting a reason first when the lifecycle tables demand one and
// flagging cached views stale on success. One orchestrator serves one record
// surface (a detail page or edit form); attempts are independent and no
// transition history is kept.
type Orchestrator struct {
	svc         Service
	prompter    Prompter
	invalidator Invalidator
	logger      claims.Logger

	mu          sync.Mutex
	busy        bool
	phase       Phase
	reasonDraft string
	lastErr     *claims.DisplayError
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator logger.
func WithLogger(logger claims.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = claims.NormalizeLogger(logger)
	}
}

// WithInvalidator wires the view cache flagged on committed transitions.
func WithInvalidator(inv Invalidator) Option {
	return func(o *Orchestrator) {
		if inv != nil {
			o.invalidator = inv
		}
	}
}

// New constructs an orchestrator bound to the given remote service and
// prompt surface.
func New(svc Service, prompter Prompter, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		svc:         svc,
		prompter:    prompter,
		invalidator: NopInvalidator{},
		logger:      claims.NormalizeLogger(nil),
		phase:       PhaseIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Phase returns the current attempt phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// IsTransitioning reports whether a remote transition call is outstanding.
func (o *Orchestrator) IsTransitioning() bool {
	return o.Phase() == PhaseInFlight
}

// LastError returns the retained display error from the most recent failed
// attempt, nil after a success or ClearError.
func (o *Orchestrator) LastError() *claims.DisplayError {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// ClearError drops the retained display error.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = nil
}

// ReasonDraft returns the reason text preserved from a failed attempt.
func (o *Orchestrator) ReasonDraft() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reasonDraft
}

// RequestTransition drives one transition attempt end to end: legality
// check, reason or confirmation prompt, exactly one remote dispatch, cache
// reconciliation. A second call while an attempt is underway is a no-op
// reported as OutcomeIgnored.
func (o *Orchestrator) RequestTransition(ctx context.Context, record *claims.Claim, target claims.Status) (*Result, error) {
	if record == nil {
		return nil, claims.CloneError(claims.ErrInvalidTransition, "record is required", nil, nil)
	}

	op, err := OperationFor(record.Status, target)
	if err != nil {
		return nil, err
	}

	if !o.acquire() {
		o.logger.Debug("transition already underway, ignoring request claim=%s target=%s", record.ID, target)
		return &Result{Outcome: OutcomeIgnored, Operation: op}, nil
	}
	defer o.release()

	logger := claims.LoggerWithFields(o.logger.WithContext(ctx), map[string]any{
		"claim_id":  record.ID,
		"from":      record.Status,
		"target":    target,
		"operation": op,
	})

	prompt := Prompt{
		ClaimID:        record.ID,
		From:           record.Status,
		To:             target,
		Operation:      op,
		ReasonRequired: lifecycle.IsReasonRequired(record.Status, target),
		Draft:          o.ReasonDraft(),
	}

	reason, ok, err := o.collectInput(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if !ok {
		logger.Debug("transition prompt dismissed")
		o.setPhase(PhaseIdle)
		return &Result{Outcome: OutcomeCancelled, Operation: op}, nil
	}

	o.setPhase(PhaseInFlight)
	projection, err := o.dispatch(ctx, record, target, reason)
	o.setPhase(PhaseIdle)

	if err != nil {
		logger.Warn("transition failed: %v", err)
		o.mu.Lock()
		// Keep the reason text so the reason prompt can reopen pre-filled.
		if prompt.ReasonRequired {
			o.reasonDraft = reason
		}
		o.lastErr = claims.Display(err)
		o.mu.Unlock()
		return &Result{Outcome: OutcomeFailed, Operation: op}, err
	}

	logger.Info("transition committed status=%s", projection.Status)
	o.mu.Lock()
	o.reasonDraft = ""
	o.lastErr = nil
	o.mu.Unlock()

	// The cached projections are flagged, never rewritten: the fetching
	// layer refetches before the next read.
	o.invalidator.InvalidateDetail(record.ID)
	o.invalidator.InvalidateLists(record.ID)

	return &Result{Outcome: OutcomeCompleted, Operation: op, Projection: projection}, nil
}

// collectInput runs the blocking prompt interaction. Reason prompts loop
// until the text is non-empty or the user cancels.
func (o *Orchestrator) collectInput(ctx context.Context, prompt Prompt) (string, bool, error) {
	if prompt.ReasonRequired {
		o.setPhase(PhaseAwaitingReason)
		for {
			reason, ok, err := o.prompter.Reason(ctx, prompt)
			if err != nil {
				o.setPhase(PhaseIdle)
				return "", false, err
			}
			if !ok {
				return "", false, nil
			}
			if text := strings.TrimSpace(reason); text != "" {
				return text, true, nil
			}
			prompt.Draft = ""
		}
	}

	o.setPhase(PhaseAwaitingConfirmation)
	ok, err := o.prompter.Confirm(ctx, prompt)
	if err != nil {
		o.setPhase(PhaseIdle)
		return "", false, err
	}
	return "", ok, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, record *claims.Claim, target claims.Status, reason string) (*claims.Projection, error) {
	switch target {
	case claims.StatusInReview:
		return o.svc.StartReview(ctx, record.ID)
	case claims.StatusSubmitted:
		if record.Status == claims.StatusPendingInfo {
			return o.svc.ResubmitWithInfo(ctx, record.ID, reason)
		}
		return o.svc.Submit(ctx, record.ID)
	case claims.StatusPendingInfo:
		return o.svc.RequestInfo(ctx, record.ID, reason)
	case claims.StatusReturned:
		return o.svc.Return(ctx, record.ID, reason)
	case claims.StatusSettled:
		return o.svc.Settle(ctx, record.ID)
	case claims.StatusCancelled:
		return o.svc.Cancel(ctx, record.ID, reason)
	}
	return nil, claims.CloneError(claims.ErrInvalidTransition, "", nil, map[string]any{
		claims.MetaFromStatus:   record.Status,
		claims.MetaTargetStatus: target,
	})
}

// acquire claims the single attempt slot. The guard spans the whole attempt
// including the prompt, which is strictly stronger than guarding only the
// in-flight call and keeps double dispatch impossible.
func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return false
	}
	o.busy = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.busy = false
	o.phase = PhaseIdle
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phase = p
}
