package main

import (
	"testing"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

func TestParseInput(t *testing.T) {
	cases := []struct {
		line string
		want inputLine
	}{
		{line: "yes 12", want: inputLine{kind: inputVote, choice: entities.ChoiceYes, identity: 12}},
		{line: "  N 7 ", want: inputLine{kind: inputVote, choice: entities.ChoiceNo, identity: 7}},
		{line: "faces 3 29.5", want: inputLine{kind: inputFaces, faces: 3, fps: 29.5}},
		{line: "reset", want: inputLine{kind: inputReset}},
		{line: "STATUS", want: inputLine{kind: inputStatus}},
		{line: "quit", want: inputLine{kind: inputQuit}},
	}
	for _, tc := range cases {
		got, ok, err := parseInput(tc.line)
		if err != nil || !ok {
			t.Fatalf("%q: unexpected error %v", tc.line, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %+v, got %+v", tc.line, tc.want, got)
		}
	}
}

func TestParseInputSyntheticVote(t *testing.T) {
	got, ok, err := parseInput("yes")
	if err != nil || !ok {
		t.Fatalf("unexpected error %v", err)
	}
	if !got.identity.IsSynthetic() {
		t.Fatalf("expected synthetic identity, got %d", got.identity)
	}
}

func TestParseInputErrors(t *testing.T) {
	if _, ok, err := parseInput("   "); ok || err != nil {
		t.Fatalf("expected blank line skipped")
	}
	for _, line := range []string{"yes abc", "faces 2", "faces -1 30", "faces 2 fast", "maybe"} {
		if _, _, err := parseInput(line); err == nil {
			t.Fatalf("%q: expected error", line)
		}
	}
}

func TestSyntheticFaces(t *testing.T) {
	faces := syntheticFaces(2)
	if len(faces) != 2 || faces[1].Identity != 2 {
		t.Fatalf("unexpected faces %+v", faces)
	}
}
