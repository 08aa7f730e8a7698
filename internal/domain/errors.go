package domain

import "errors"

var (
	// ErrPlanningFailed means the search stopped on a bound (depth, node budget,
	// deadline) before it could either find a plan or prove there is none.
	ErrPlanningFailed = errors.New("planning failed")
	// ErrGoalNotAchievable means the goal was proven unreachable, either statically or
	// by exhausting the reachable state space.
	ErrGoalNotAchievable = errors.New("goal not achievable")
	// ErrBeliefRevision rejects a malformed external belief update.
	ErrBeliefRevision = errors.New("belief revision failed")
	// ErrReasoning reports a cyclic or contradictory rule set.
	ErrReasoning = errors.New("reasoning error")
	// ErrCollaborator wraps failures reported by sensors, actuators and stores.
	ErrCollaborator = errors.New("collaborator error")
)

// ErrorKind names the category of err for reports. Unknown errors are "other".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPlanningFailed):
		return "planning_failed"
	case errors.Is(err, ErrGoalNotAchievable):
		return "goal_not_achievable"
	case errors.Is(err, ErrBeliefRevision):
		return "belief_revision_failed"
	case errors.Is(err, ErrReasoning):
		return "reasoning_error"
	default:
		return "other"
	}
}
