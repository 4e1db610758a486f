package sandbox

import (
	"strconv"
	"strings"
)

// Secret bounds for the brute-force mission.
const (
	SecretMin = 1
	SecretMax = 10000
)

type GuessVerdict int

const (
	GuessIdle GuessVerdict = iota
	GuessCorrect
	GuessWrong
)

// QuickGuess checks a single manual guess against the secret without any
// code execution. Non-numeric input and values outside [SecretMin,
// SecretMax] count as a wrong guess, never an error.
func QuickGuess(input string, secret int) GuessVerdict {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < SecretMin || n > SecretMax {
		return GuessWrong
	}
	if n == secret {
		return GuessCorrect
	}
	return GuessWrong
}
