package ui

import "github.com/Skelligg/htf-collide/internal/quest"

// Controller receives user intent from the view. Implementations must not
// block the render loop; the view dispatches on separate goroutines.
type Controller interface {
	OnRefreshQuest()
	OnEnterProblem(id quest.ProblemID)
	OnRetryProblem()
	OnBackToLanding()
	OnSubmitAnswer(id quest.MissionID, answer string)
	OnRunCode(code string)
	OnQuickGuess(input string)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(Screen)
	SetLanding(LandingState)
	SetProblem(ProblemState)
	SetMissionOutcome(id quest.MissionID, outcome Outcome)
	SetSandbox(SandboxState)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenLanding Screen = iota
	ScreenProblem
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

// Outcome is a mission's verification display state. Wrong and Error share
// the failure color but render distinct text.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePending
	OutcomeCorrect
	OutcomeWrong
	OutcomeError
)

type DoorCard struct {
	ProblemID   quest.ProblemID
	Title       string
	Description string
	Locked      bool
	Solved      bool
}

type LandingState struct {
	Loading   bool
	Err       string
	Doors     []DoorCard
	StatsLine string
}

type MissionRow struct {
	ID                quest.MissionID
	Name              string
	Objective         string
	Parameters        string
	RemainingAttempts string
	Difficulty        int
	Solved            bool
	Sandbox           bool
	Outcome           Outcome
}

type ProblemState struct {
	ProblemID   quest.ProblemID
	Loading     bool
	Err         string
	Name        string
	Description string
	Score       int
	Solved      bool
	Missions    []MissionRow
}

type SandboxPhase int

const (
	SandboxLoading SandboxPhase = iota
	SandboxReady
	SandboxRunning
	SandboxUnavailable
)

type GuessOutcome int

const (
	GuessNone GuessOutcome = iota
	GuessRight
	GuessWrong
)

type SandboxState struct {
	Phase  SandboxPhase
	Output string
	// Notice is a one-shot success banner shown after a correct run.
	Notice string
	Guess  GuessOutcome
}
