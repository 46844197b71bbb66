package models

import (
	"encoding/json"
	"testing"
)

func TestRoundLabels(t *testing.T) {
	tests := []struct {
		round Round
		label string
	}{
		{RoundGroup, "GROUP"},
		{RoundFinal, "FINAL"},
		{RoundSemi, "SEMI"},
		{RoundQuarter, "QUARTER"},
		{RoundOf16, "ROUND_OF_16"},
		{RoundOf32, "ROUND_OF_32"},
		{EarlyRound(6), "ROUND_6"},
		{EarlyRound(9), "ROUND_9"},
	}
	for _, tt := range tests {
		if got := tt.round.String(); got != tt.label {
			t.Fatalf("label for %d: got %s, want %s", int(tt.round), got, tt.label)
		}
		parsed, err := ParseRound(tt.label)
		if err != nil {
			t.Fatalf("parse %s: %v", tt.label, err)
		}
		if parsed != tt.round {
			t.Fatalf("parse %s: got %d", tt.label, int(parsed))
		}
	}
}

func TestParseRoundRejectsUnknownLabels(t *testing.T) {
	for _, raw := range []string{"", "ROUND_3", "ROUND_x", "EIGHTH"} {
		if _, err := ParseRound(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestRoundNext(t *testing.T) {
	next, ok := RoundQuarter.Next()
	if !ok || next != RoundSemi {
		t.Fatalf("quarter advances to %s", next)
	}
	if _, ok := RoundFinal.Next(); ok {
		t.Fatalf("final has no next round")
	}
	if _, ok := RoundGroup.Next(); ok {
		t.Fatalf("group has no next round")
	}
}

func TestMatchRoundJSON(t *testing.T) {
	payload, err := json.Marshal(Match{ID: 1, Round: RoundSemi})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		Round string `json:"round"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Round != "SEMI" {
		t.Fatalf("round encoded as %q", decoded.Round)
	}
}
