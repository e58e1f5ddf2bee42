package transition

import (
	claims "github.com/goliatone/go-claims"
	"github.com/goliatone/go-claims/lifecycle"
)

// Remote operation names, one per non-idle target status. SUBMITTED is
// disambiguated by the current status: a claim coming back from
// PENDING_INFO resubmits with the extra information instead of plain
// submitting.
const (
	OpStartReview      = "claims.start_review"
	OpSubmit           = "claims.submit"
	OpResubmitWithInfo = "claims.resubmit_with_info"
	OpRequestInfo      = "claims.request_info"
	OpReturn           = "claims.return"
	OpSettle           = "claims.settle"
	OpCancel           = "claims.cancel"
)

// OperationFor resolves the remote operation a from→to move dispatches.
// Pairs outside the transition table resolve to an invalid-transition error
// and must never reach the wire.
func OperationFor(from, to claims.Status) (string, error) {
	if !lifecycle.CanTransition(from, to) {
		return "", claims.CloneError(claims.ErrInvalidTransition, "", nil, map[string]any{
			claims.MetaFromStatus:   from,
			claims.MetaTargetStatus: to,
		})
	}
	switch to {
	case claims.StatusInReview:
		return OpStartReview, nil
	case claims.StatusSubmitted:
		if from == claims.StatusPendingInfo {
			return OpResubmitWithInfo, nil
		}
		return OpSubmit, nil
	case claims.StatusPendingInfo:
		return OpRequestInfo, nil
	case claims.StatusReturned:
		return OpReturn, nil
	case claims.StatusSettled:
		return OpSettle, nil
	case claims.StatusCancelled:
		return OpCancel, nil
	}
	return "", claims.CloneError(claims.ErrInvalidTransition, "", nil, map[string]any{
		claims.MetaFromStatus:   from,
		claims.MetaTargetStatus: to,
	})
}
