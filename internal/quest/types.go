package quest

// ProblemID identifies one themed problem ("door") on the quest service.
type ProblemID int64

// MissionID identifies one sub-challenge within a problem.
type MissionID int64

// EffectBrute marks the mission that mounts the in-client code sandbox
// instead of a plain answer form.
const EffectBrute = "brute"

type ProblemSummary struct {
	ProblemID   ProblemID `json:"problemId"`
	Name        string    `json:"problemName"`
	Description string    `json:"problemDescription"`
}

type Mission struct {
	ID                MissionID `json:"id"`
	Name              string    `json:"name"`
	Objective         string    `json:"objective"`
	Parameters        string    `json:"parameters"`
	Difficulty        int       `json:"difficulty"`
	RemainingAttempts string    `json:"remainingAttempts"`
	Solved            bool      `json:"solved"`
	Effect            string    `json:"effect"`
}

type Problem struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Solved      bool      `json:"solved"`
	Score       int       `json:"score"`
	BadgeURL    string    `json:"badgeUrl"`
	Missions    []Mission `json:"mission"`
}

type VerifyRequest struct {
	ProblemID ProblemID `json:"problemId"`
	MissionID MissionID `json:"missionId"`
	Answer    string    `json:"answer"`
}

// HasSandbox reports whether this mission runs the code sandbox.
func (m Mission) HasSandbox() bool { return m.Effect == EffectBrute }
