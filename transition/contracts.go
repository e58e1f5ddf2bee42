package transition

import (
	"context"

	claims "github.com/goliatone/go-claims"
)

// Service is the remote collaborator executing transitions. One method per
// named operation; reason parameters exist exactly where the lifecycle
// tables can demand one. The backend is the authoritative enforcer — the
// orchestrator never second-guesses its responses.
type Service interface {
	StartReview(ctx context.Context, claimID string) (*claims.Projection, error)
	Submit(ctx context.Context, claimID string) (*claims.Projection, error)
	ResubmitWithInfo(ctx context.Context, claimID, reason string) (*claims.Projection, error)
	RequestInfo(ctx context.Context, claimID, reason string) (*claims.Projection, error)
	Return(ctx context.Context, claimID, reason string) (*claims.Projection, error)
	Settle(ctx context.Context, claimID string) (*claims.Projection, error)
	Cancel(ctx context.Context, claimID, reason string) (*claims.Projection, error)
}

// Prompt carries everything a prompt surface needs to render.
type Prompt struct {
	ClaimID        string
	From           claims.Status
	To             claims.Status
	Operation      string
	ReasonRequired bool
	// Draft is the previously entered reason, preserved across a failed
	// attempt so the user can correct instead of retyping.
	Draft string
}

// Prompter collects user confirmation. Both calls block until the user
// answers or the context is done; returning ok=false cancels the attempt
// without any remote call.
type Prompter interface {
	// Confirm asks for a lightweight yes/no on transitions without a reason.
	Confirm(ctx context.Context, p Prompt) (ok bool, err error)
	// Reason collects a free-text justification. Implementations may return
	// empty text; the orchestrator re-prompts until it is non-empty or the
	// user cancels.
	Reason(ctx context.Context, p Prompt) (reason string, ok bool, err error)
}

// Invalidator marks cached views stale after a committed transition. The
// orchestrator never mutates cached data, it only flags it for refetch.
type Invalidator interface {
	InvalidateDetail(claimID string)
	InvalidateLists(claimID string)
}

// NopInvalidator satisfies Invalidator for callers without a view cache.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateDetail(string) {}
func (NopInvalidator) InvalidateLists(string)  {}
