// Package pipeline is the orchestration engine: a resumable state machine
// that carries one game session from raw operator notes to a rendered
// investigative article. Nodes are dispatched through an explicit transition
// table keyed by phase; checkpoints suspend by persisting a pending-approval
// flag and returning, never by blocking in process.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/invoke"
)

// Node executes one phase against the current state and returns the partial
// update to fold in. Nodes never mutate s and never persist; the engine owns
// both.
type Node func(ctx context.Context, rt *Runtime, s state.State) (state.Update, error)

// Run advances the session through the transition table until it suspends at
// a checkpoint, reaches a terminal phase, or exhausts the step backstop.
// State is persisted after every node, so a crash resumes at the last
// completed phase. Node errors are absorbed into the error list with the
// phase set to error; only persistence failures are returned.
func Run(ctx context.Context, rt *Runtime, id uuid.UUID, s state.State) (state.State, error) {
	for step := 0; step < rt.Config.MaxSteps; step++ {
		if s.AwaitingApproval || s.Phase.Terminal() {
			return s, nil
		}

		node, ok := transitions[s.Phase]
		if !ok {
			s = fail(s, fmt.Errorf("%w: %s", ErrUnknownPhase, s.Phase))
			return s, persist(ctx, rt, id, &s)
		}

		phase := s.Phase
		started := time.Now()

		upd, err := node(ctx, rt, s)
		if err == nil {
			s = state.Apply(s, upd)
			if upd.FinalDocument != nil {
				err = record(ctx, rt, id, s)
			}
		}
		if err != nil {
			s = fail(s, err)
			rt.Logger.WarnContext(
				ctx, "node failed",
				"session", id,
				"phase", phase,
				"error", err,
			)
			return s, persist(ctx, rt, id, &s)
		}

		rt.Logger.InfoContext(
			ctx, "node complete",
			"session", id,
			"phase", phase,
			"next", s.Phase,
			"suspended", s.AwaitingApproval,
			"elapsed", time.Since(started),
		)

		if err := persist(ctx, rt, id, &s); err != nil {
			return s, err
		}
	}

	s = fail(s, fmt.Errorf("%w: %d steps", ErrStepLimit, rt.Config.MaxSteps))
	return s, persist(ctx, rt, id, &s)
}

// Approve validates an approval against the pending checkpoint and returns
// the update that releases it. A matching approval advances exactly once;
// anything else is rejected without touching the graph.
func Approve(s state.State, approval state.Approval) (state.Update, error) {
	pending, ok := s.PendingApproval()
	if !ok {
		return state.Update{}, ErrNoPending
	}
	if approval.Type != pending {
		return state.Update{}, fmt.Errorf("%w: pending %s, got %s", ErrApprovalMismatch, pending, approval.Type)
	}

	if approval.At.IsZero() {
		approval.At = time.Now().UTC()
	}

	return state.Update{
		AwaitingApproval: state.Ptr(false),
		Approvals:        map[state.ApprovalType]state.Approval{approval.Type: approval},
		History:          []state.HistoryEntry{{Checkpoint: approval.Type, At: approval.At}},
	}, nil
}

func persist(ctx context.Context, rt *Runtime, id uuid.UUID, s *state.State) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	if err := rt.Store.Save(ctx, id, *s); err != nil {
		return fmt.Errorf("persist session %s: %w", id, err)
	}
	return nil
}

func record(ctx context.Context, rt *Runtime, id uuid.UUID, s state.State) error {
	if rt.Artifacts == nil || s.ContentDoc == nil {
		return nil
	}
	if err := rt.Artifacts.Record(ctx, id, *s.ContentDoc, s.FinalDocument); err != nil {
		return fmt.Errorf("record artifacts: %w", err)
	}
	return nil
}

// fail appends a structured error entry and moves the session to the error
// terminal. Partial state stays persisted and inspectable.
func fail(s state.State, err error) state.State {
	return state.Apply(s, state.Update{
		Phase:            state.Ptr(state.PhaseError),
		AwaitingApproval: state.Ptr(false),
		Errors: []state.PipelineError{{
			Phase:   s.Phase,
			Kind:    errorKind(err),
			Message: err.Error(),
		}},
	})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRevisionCap):
		return state.ErrorKindRevisionCap
	case errors.Is(err, ErrContract):
		return state.ErrorKindValidation
	case errors.Is(err, invoke.ErrTimeout),
		errors.Is(err, invoke.ErrInvocationFailed),
		errors.Is(err, invoke.ErrBackendExited),
		errors.Is(err, invoke.ErrMalformedOutput):
		return state.ErrorKindInvocation
	default:
		return state.ErrorKindNodeFailure
	}
}
