package packs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a quest pack from a YAML file.
func Load(path string) (Pack, error) {
	var pack Pack
	b, err := os.ReadFile(path)
	if err != nil {
		return pack, err
	}
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return pack, fmt.Errorf("parse pack %s: %w", path, err)
	}
	if err := pack.Validate(); err != nil {
		return pack, fmt.Errorf("pack %s: %w", path, err)
	}
	return pack, nil
}

// Builtin returns the bundled Aqua Topia quest used when no pack file is
// given. The brute mission carries no stored answer; the client checks it
// locally against the configured secret.
func Builtin() Pack {
	return Pack{
		Kind:          PackKind,
		SchemaVersion: SupportedSchemaVersion,
		Name:          "Aqua Topia",
		Problems: []Problem{
			{
				ProblemID:   1,
				Name:        "Sunken Archive",
				Description: "Recover the lost records of the drowned city.",
				Score:       300,
				BadgeURL:    "/badges/archive.png",
				Missions: []Mission{
					{
						MissionID:   11,
						Name:        "Harbor Log",
						Objective:   "The harbor master hid the mooring code in plain sight. What is it?",
						Parameters:  "a single word, lowercase",
						Difficulty:  1,
						MaxAttempts: 5,
						Answer:      Answer{Value: "anchor", Match: "iexact"},
					},
					{
						MissionID:   12,
						Name:        "Tide Tables",
						Objective:   "Sum the high-tide marks for the first week of the flood.",
						Parameters:  "an integer",
						Difficulty:  2,
						MaxAttempts: 5,
						Effect:      "ripple",
						Answer:      Answer{Value: "1729", Match: "numeric"},
					},
				},
			},
			{
				ProblemID:   2,
				Name:        "Pressure Lock",
				Description: "Three valves, one sequence, no second chances.",
				Score:       500,
				BadgeURL:    "/badges/lock.png",
				Missions: []Mission{
					{
						MissionID:   21,
						Name:        "Valve Sequence",
						Objective:   "Enter the valve sequence etched behind the gauge.",
						Parameters:  "digits separated by dashes, e.g. 1-2-3",
						Difficulty:  3,
						MaxAttempts: 3,
						Answer:      Answer{Value: `^3-1-4(-1)?$`, Match: "regex"},
					},
				},
			},
			{
				ProblemID:   3,
				Name:        "Brute Depths",
				Description: "Somewhere between 1 and 10000 hides the abyssal key.",
				Score:       800,
				BadgeURL:    "/badges/depths.png",
				Missions: []Mission{
					{
						MissionID:   31,
						Name:        "Abyssal Key",
						Objective:   "Write code that discovers the hidden number. checkAnswer(n) tells you when you have it.",
						Parameters:  "an integer in [1, 10000]",
						Difficulty:  4,
						MaxAttempts: 0,
						Effect:      "brute",
					},
				},
			},
		},
	}
}
