// Package workflow holds the pure stage state machine: the transition
// policy and the status-specific mutation rules. Both the request workflow
// and direct apply call these same functions so their validation cannot
// drift apart.
package workflow

import (
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/domain"
)

// Decision is the outcome of evaluating a proposed transition.
type Decision struct {
	Allowed bool
	Reason  string
}

func deny(format string, args ...any) Decision {
	return Decision{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

var allowed = Decision{Allowed: true}

// Evaluate applies the transition table to (current, target). hasDate is
// only consulted for reopening a completed stage, which requires a
// caller-supplied date to land in in_progress.
//
// Self-transitions are always rejected. The reopen pseudo-action must be
// resolved to a concrete status before calling (see ResolveReopen).
func Evaluate(current, target domain.StageStatus, hasDate bool) Decision {
	if current == target {
		return deny("stage is already %s", current)
	}

	switch current {
	case domain.StageNotStarted:
		switch target {
		case domain.StageInProgress, domain.StageBlocked, domain.StageSkipped:
			return allowed
		case domain.StageCompleted:
			return deny("stage must be started before it can be completed")
		case domain.StageNotStarted:
			return deny("stage is already not started")
		}
	case domain.StageInProgress:
		switch target {
		case domain.StageCompleted, domain.StageBlocked:
			return allowed
		case domain.StageNotStarted:
			return deny("an in-progress stage cannot revert to not started")
		case domain.StageSkipped:
			return deny("only a not-started stage can be skipped")
		}
	case domain.StageBlocked:
		switch target {
		case domain.StageInProgress:
			return allowed
		case domain.StageCompleted:
			return deny("a blocked stage must resume before it can be completed")
		case domain.StageNotStarted:
			return deny("a blocked stage cannot revert to not started")
		case domain.StageSkipped:
			return deny("only a not-started stage can be skipped")
		}
	case domain.StageCompleted:
		switch target {
		case domain.StageInProgress:
			if !hasDate {
				return deny("reopening a completed stage to in progress requires a date")
			}
			return allowed
		case domain.StageNotStarted:
			// Reopen pseudo-action without a date.
			return allowed
		case domain.StageBlocked:
			return deny("a completed stage cannot be blocked")
		case domain.StageSkipped:
			return deny("a completed stage cannot be skipped")
		}
	case domain.StageSkipped:
		switch target {
		case domain.StageNotStarted:
			return allowed
		case domain.StageInProgress, domain.StageCompleted, domain.StageBlocked:
			return deny("a skipped stage must be reopened to not started first")
		}
	}
	return deny("unknown transition %s -> %s", current, target)
}

// ResolveReopen maps the reopen pseudo-action onto a concrete target
// status: in progress when a date was supplied, not started otherwise.
// Any other status passes through unchanged.
func ResolveReopen(target domain.StageStatus, hasDate bool) domain.StageStatus {
	if target != domain.StageReopen {
		return target
	}
	if hasDate {
		return domain.StageInProgress
	}
	return domain.StageNotStarted
}
