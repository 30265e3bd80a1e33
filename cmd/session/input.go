package main

import (
	"fmt"
	"strconv"
	"strings"

	"nodandknow/contexts/live-session/session-engine/domain/entities"
)

type inputKind int

const (
	inputVote inputKind = iota + 1
	inputFaces
	inputReset
	inputStatus
	inputExport
	inputQuit
)

// inputLine is one parsed stdin command of the synthetic gesture source.
type inputLine struct {
	kind     inputKind
	choice   entities.Choice
	identity entities.Identity
	faces    int
	fps      float64
}

// parseInput reads lines of the form:
//
//	yes|no [identity]   vote; a missing identity casts a synthetic test vote
//	faces <n> <fps>     sensing telemetry
//	reset | status | export | quit
func parseInput(line string) (inputLine, bool, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return inputLine{}, false, nil
	}
	switch fields[0] {
	case "yes", "y", "no", "n":
		choice := entities.ChoiceYes
		if strings.HasPrefix(fields[0], "n") {
			choice = entities.ChoiceNo
		}
		out := inputLine{kind: inputVote, choice: choice, identity: entities.NewSyntheticIdentity()}
		if len(fields) > 1 {
			id, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return inputLine{}, false, fmt.Errorf("invalid identity %q", fields[1])
			}
			out.identity = entities.Identity(id)
		}
		return out, true, nil
	case "faces":
		if len(fields) != 3 {
			return inputLine{}, false, fmt.Errorf("usage: faces <count> <fps>")
		}
		count, err := strconv.Atoi(fields[1])
		if err != nil || count < 0 {
			return inputLine{}, false, fmt.Errorf("invalid face count %q", fields[1])
		}
		fps, err := strconv.ParseFloat(fields[2], 64)
		if err != nil || fps < 0 {
			return inputLine{}, false, fmt.Errorf("invalid fps %q", fields[2])
		}
		return inputLine{kind: inputFaces, faces: count, fps: fps}, true, nil
	case "reset":
		return inputLine{kind: inputReset}, true, nil
	case "status":
		return inputLine{kind: inputStatus}, true, nil
	case "export":
		return inputLine{kind: inputExport}, true, nil
	case "quit", "exit":
		return inputLine{kind: inputQuit}, true, nil
	default:
		return inputLine{}, false, fmt.Errorf("unknown command %q", fields[0])
	}
}

// syntheticFaces builds placeholder detections for telemetry lines.
func syntheticFaces(count int) []entities.FaceDetection {
	faces := make([]entities.FaceDetection, 0, count)
	for i := 0; i < count; i++ {
		faces = append(faces, entities.FaceDetection{
			Identity:   entities.Identity(i + 1),
			X:          float64(i) * 120,
			Width:      100,
			Height:     100,
			Confidence: 1,
		})
	}
	return faces
}
