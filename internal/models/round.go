// internal/models/round.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Round identifies the stage a match belongs to. Bracket rounds are numbered by their
// distance from the final, so the final is 1 and every earlier round counts up from there.
type Round int

const (
	RoundGroup     Round = 0
	RoundFinal     Round = 1
	RoundSemi      Round = 2
	RoundQuarter   Round = 3
	RoundOf16      Round = 4
	RoundOf32      Round = 5
	earlyRoundBase       = 6
)

const earlyRoundPrefix = "ROUND_"

// EarlyRound returns the bracket round at the given distance from the final. Distances
// beyond the round of 32 have no fixed name and render as ROUND_<distance>.
func EarlyRound(distance int) Round {
	if distance < 1 {
		return RoundFinal
	}
	return Round(distance)
}

// Distance is the number of rounds until (and including) the final. Group matches return 0.
func (r Round) Distance() int {
	return int(r)
}

func (r Round) IsBracket() bool {
	return r >= RoundFinal
}

// Next returns the round a winner of r advances into.
func (r Round) Next() (Round, bool) {
	if r <= RoundFinal {
		return r, false
	}
	return r - 1, true
}

func (r Round) String() string {
	switch r {
	case RoundGroup:
		return "GROUP"
	case RoundFinal:
		return "FINAL"
	case RoundSemi:
		return "SEMI"
	case RoundQuarter:
		return "QUARTER"
	case RoundOf16:
		return "ROUND_OF_16"
	case RoundOf32:
		return "ROUND_OF_32"
	}
	if r >= earlyRoundBase {
		return earlyRoundPrefix + strconv.Itoa(int(r))
	}
	return fmt.Sprintf("Round(%d)", int(r))
}

func ParseRound(raw string) (Round, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case "GROUP":
		return RoundGroup, nil
	case "FINAL":
		return RoundFinal, nil
	case "SEMI":
		return RoundSemi, nil
	case "QUARTER":
		return RoundQuarter, nil
	case "ROUND_OF_16":
		return RoundOf16, nil
	case "ROUND_OF_32":
		return RoundOf32, nil
	}
	if strings.HasPrefix(value, earlyRoundPrefix) {
		distance, err := strconv.Atoi(strings.TrimPrefix(value, earlyRoundPrefix))
		if err == nil && distance >= earlyRoundBase {
			return Round(distance), nil
		}
	}
	return RoundGroup, fmt.Errorf("unknown round %q", raw)
}

func (r Round) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Round) UnmarshalText(text []byte) error {
	parsed, err := ParseRound(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
