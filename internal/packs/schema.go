package packs

import (
	"fmt"
)

const (
	PackKind               = "quest_pack"
	SupportedSchemaVersion = 1
)

// Pack is one self-contained quest: the set of problems served by the
// practice server, including the expected answers the remote service would
// otherwise hold.
type Pack struct {
	Kind          string    `yaml:"kind"`
	SchemaVersion int       `yaml:"schema_version"`
	Name          string    `yaml:"name"`
	Problems      []Problem `yaml:"problems"`
}

type Problem struct {
	ProblemID   int64     `yaml:"problem_id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Score       int       `yaml:"score"`
	BadgeURL    string    `yaml:"badge_url"`
	Missions    []Mission `yaml:"missions"`
}

type Mission struct {
	MissionID   int64  `yaml:"mission_id"`
	Name        string `yaml:"name"`
	Objective   string `yaml:"objective"`
	Parameters  string `yaml:"parameters"`
	Difficulty  int    `yaml:"difficulty"`
	MaxAttempts int    `yaml:"max_attempts"`
	Effect      string `yaml:"effect"`
	Answer      Answer `yaml:"answer"`
}

// Answer describes how a submitted answer is checked. Match modes: "exact"
// (default, trimmed), "iexact" (trimmed, case-insensitive), "numeric"
// (numeric equality), "regex" (full match).
type Answer struct {
	Value string `yaml:"value"`
	Match string `yaml:"match"`
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("unsupported kind %q", p.Kind)
	}
	if p.SchemaVersion != SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d", p.SchemaVersion)
	}
	if len(p.Problems) == 0 {
		return fmt.Errorf("pack has no problems")
	}
	seenProblems := map[int64]bool{}
	for _, prob := range p.Problems {
		if prob.ProblemID <= 0 {
			return fmt.Errorf("problem %q: problem_id must be positive", prob.Name)
		}
		if seenProblems[prob.ProblemID] {
			return fmt.Errorf("duplicate problem_id %d", prob.ProblemID)
		}
		seenProblems[prob.ProblemID] = true
		if prob.Name == "" {
			return fmt.Errorf("problem %d: name is required", prob.ProblemID)
		}
		if err := prob.validateMissions(); err != nil {
			return fmt.Errorf("problem %d: %w", prob.ProblemID, err)
		}
	}
	return nil
}

func (p Problem) validateMissions() error {
	if len(p.Missions) == 0 {
		return fmt.Errorf("no missions")
	}
	seen := map[int64]bool{}
	for _, m := range p.Missions {
		if m.MissionID <= 0 {
			return fmt.Errorf("mission %q: mission_id must be positive", m.Name)
		}
		if seen[m.MissionID] {
			return fmt.Errorf("duplicate mission_id %d", m.MissionID)
		}
		seen[m.MissionID] = true
		if m.Difficulty < 1 || m.Difficulty > 5 {
			return fmt.Errorf("mission %d: difficulty %d out of range 1..5", m.MissionID, m.Difficulty)
		}
		switch m.Effect {
		case "", "brute", "glow", "ripple":
		default:
			return fmt.Errorf("mission %d: unknown effect %q", m.MissionID, m.Effect)
		}
		switch m.Answer.Match {
		case "", "exact", "iexact", "numeric", "regex":
		default:
			return fmt.Errorf("mission %d: unknown match mode %q", m.MissionID, m.Answer.Match)
		}
		if m.Effect != "brute" && m.Answer.Value == "" {
			return fmt.Errorf("mission %d: answer value is required", m.MissionID)
		}
	}
	return nil
}
