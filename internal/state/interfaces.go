package state

import (
	"context"
	"time"

	"github.com/Skelligg/htf-collide/internal/quest"
)

// Outcome labels how a verification attempt ended.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeError   Outcome = "error"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordVerification(ctx context.Context, rec Verification) error
	RecordSandboxRun(ctx context.Context, rec SandboxRun) error
	ProblemSolved(ctx context.Context, id quest.ProblemID) (bool, error)
	GetSummary(ctx context.Context) (Summary, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

type Verification struct {
	SessionID string
	ProblemID quest.ProblemID
	MissionID quest.MissionID
	Outcome   Outcome
	At        time.Time
}

type SandboxRun struct {
	SessionID string
	Correct   bool
	Duration  time.Duration
	At        time.Time
}

// Summary feeds the landing screen stats line.
type Summary struct {
	Attempts       int
	Correct        int
	SandboxRuns    int
	SolvedProblems int
}
