package rps

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
)

// Choice is one of the three hand shapes.
type Choice string

// Outcome is the result of a round from the user's point of view.
type Outcome int

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"

	Lose Outcome = -1
	Tie  Outcome = 0
	Win  Outcome = 1
)

var (
	ErrInvalidChoice = errors.New("invalid choice")

	Choices = []Choice{Rock, Paper, Scissors}

	// beats maps each choice to the one it defeats.
	beats = map[Choice]Choice{
		Rock:     Scissors,
		Paper:    Rock,
		Scissors: Paper,
	}
)

func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "tie"
	}
}

// ParseChoice accepts rock, paper or scissors in any case.
func ParseChoice(s string) (Choice, error) {
	c := Choice(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := beats[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
	return c, nil
}

// DetermineWinner scores user against computer.
func DetermineWinner(user, computer Choice) Outcome {
	switch {
	case user == computer:
		return Tie
	case beats[user] == computer:
		return Win
	default:
		return Lose
	}
}

// RandomChoice picks a choice uniformly. A nil rng uses the shared source.
func RandomChoice(rng *rand.Rand) Choice {
	if rng == nil {
		return Choices[rand.IntN(len(Choices))]
	}
	return Choices[rng.IntN(len(Choices))]
}

// Score tallies rounds over a session.
type Score struct {
	User     int
	Computer int
	Ties     int
}

// Record adds one round.
func (s *Score) Record(o Outcome) {
	switch o {
	case Win:
		s.User++
	case Lose:
		s.Computer++
	default:
		s.Ties++
	}
}

// Rounds is the number of recorded rounds.
func (s Score) Rounds() int {
	return s.User + s.Computer + s.Ties
}
