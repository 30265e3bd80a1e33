package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nodandknow/contexts/live-session/session-engine/adapters/eventbus"
	"nodandknow/contexts/live-session/session-engine/domain/entities"
	"nodandknow/internal/app/bootstrap"
	"nodandknow/internal/shared/events"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the session and read gestures from stdin",
		Long: `Start the phase cycle. Each stdin line is a command:

  yes|no [identity]   cast a vote (no identity casts a synthetic test vote)
  faces <n> <fps>     report sensing telemetry
  reset               clear all votes and restart the cycle
  status              print the current session state
  export              print the anonymized export
  quit                stop the session`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSession(cmd, opts, quiet)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print phase changes")
	return cmd
}

func runSession(cmd *cobra.Command, opts *rootOptions, quiet bool) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildSession(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	out := cmd.OutOrStdout()
	topics := []string{
		string(entities.NotificationMinority),
		string(entities.NotificationConflict),
	}
	if !quiet {
		topics = append(topics, string(entities.NotificationPhaseChanged), string(entities.NotificationSessionReset))
	}
	for _, topic := range topics {
		if err := app.Bus().Subscribe(ctx, topic, "session-cli", func(_ context.Context, event events.Envelope) error {
			return printEvent(out, event)
		}); err != nil {
			return err
		}
	}

	runErr := make(chan error, 1)
	go func() { runErr <- app.Run(ctx) }()

	inputDone := make(chan error, 1)
	go func() { inputDone <- readGestures(ctx, app, cmd.InOrStdin(), out) }()

	select {
	case err := <-runErr:
		return err
	case err := <-inputDone:
		stop()
		if appErr := <-runErr; appErr != nil {
			return appErr
		}
		return err
	}
}

func readGestures(ctx context.Context, app *bootstrap.SessionApp, in io.Reader, out io.Writer) error {
	session := app.Module().Session
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line, ok, err := parseInput(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if !ok {
			continue
		}
		switch line.kind {
		case inputVote:
			result, err := session.RecordGesture(ctx, line.identity, line.choice)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			status := "recorded"
			if !result.Admitted {
				status = "already voted"
			}
			fmt.Fprintf(out, "question %d: %s (yes=%d no=%d)\n", result.QuestionIndex+1, status, result.Tally.Yes, result.Tally.No)
		case inputFaces:
			if err := session.Advance(ctx, syntheticFaces(line.faces), line.fps); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case inputReset:
			if err := session.ResetSession(ctx); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case inputStatus:
			state, err := session.Snapshot(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			printState(out, state)
		case inputExport:
			exported, err := app.Module().Reporting.ExportAnonymized(ctx)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			if err := writeJSON(out, exported); err != nil {
				return err
			}
		case inputQuit:
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

func printState(out io.Writer, state entities.SessionState) {
	fmt.Fprintf(out, "phase=%s remaining=%ds question=%d info=%d\n", state.Phase, state.TimeRemaining, state.QuestionIndex+1, state.InfoIndex+1)
	switch state.Phase {
	case entities.PhaseInfo:
		fmt.Fprintf(out, "  %s\n", state.Info)
	default:
		fmt.Fprintf(out, "  %s\n", state.Question)
	}
	fmt.Fprintf(out, "  yes=%d no=%d total=%d participants=%d faces=%d fps=%.1f fallback=%t\n",
		state.Tally.Yes, state.Tally.No, state.Stats.TotalVotes, state.Stats.UniqueParticipants,
		len(state.Telemetry.Faces), state.Telemetry.FPS, state.FallbackMode)
}

func printEvent(out io.Writer, event events.Envelope) error {
	var payload eventbus.NotificationPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}
	switch entities.NotificationKind(event.EventType) {
	case entities.NotificationPhaseChanged:
		fmt.Fprintf(out, "-> %s (question %d, info %d)\n", payload.Phase, payload.QuestionIndex+1, payload.InfoIndex+1)
	case entities.NotificationSessionReset:
		fmt.Fprintln(out, "-> session reset")
	default:
		fmt.Fprintf(out, "!! %s\n", payload.Message)
	}
	return nil
}

func writeJSON(out io.Writer, value any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
