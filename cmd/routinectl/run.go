package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	authdto "routinectl/internal/modules/auth/dto"
	celebrationdto "routinectl/internal/modules/celebration/dto"
	routineinadapter "routinectl/internal/modules/routine/adapter/in"
	rundto "routinectl/internal/modules/run/dto"
	runin "routinectl/internal/modules/run/port/in"
	"routinectl/internal/platform/config"
)

func newRunCmd(overrides *config.Overrides) *cobra.Command {
	var rawMoves []string
	run := &cobra.Command{
		Use:   "run <routine-id> [--move from:to]...",
		Short: "Start a routine and step through its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			moves, err := parseMoves(rawMoves)
			if err != nil {
				return err
			}
			app, err := loadApp(overrides)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := context.Background()

			session, err := app.AuthCLI.WhoAmI(ctx)
			if err != nil {
				return err
			}
			if !session.Authenticated() {
				return fmt.Errorf("not signed in")
			}
			settings := session.EffectiveSettings()

			started, err := app.RoutineCLI.Start(ctx, id, moves)
			if err != nil {
				return err
			}
			controller, err := app.RunCLI.Open(ctx, started.HistoryID)
			if err != nil {
				return err
			}
			state, err := driveRun(ctx, controller, cmd.InOrStdin(), cmd.OutOrStdout(), settings, time.Now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if state.Phase == "aborted" {
				_, _ = fmt.Fprintln(out, "run aborted")
				return app.RunCLI.Discard(ctx, started.HistoryID)
			}
			_, _ = fmt.Fprintf(out, "completed %s\n", state.Title)
			if settings.ShowCelebration {
				summary, err := app.RunCLI.Summary(ctx, started.HistoryID)
				if err != nil {
					return err
				}
				celebration, err := app.CelebrationCLI.Celebrate(ctx, celebrationdto.CelebrateInput{
					HistoryID:      summary.HistoryID,
					Title:          summary.Title,
					Tasks:          summary.Tasks,
					ElapsedMinutes: controller.ElapsedMinutes(time.Now(), true),
				})
				if err != nil {
					return err
				}
				printBanners(out, celebration)
			}
			return app.RunCLI.Discard(ctx, started.HistoryID)
		},
	}
	run.Flags().StringArrayVar(&rawMoves, "move", nil, "reorder before starting, 1-based from:to, applied in order")
	return run
}

func parseMoves(raw []string) ([]routineinadapter.Move, error) {
	moves := make([]routineinadapter.Move, 0, len(raw))
	for _, item := range raw {
		from, to, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("invalid move %q, want from:to", item)
		}
		f, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || f < 1 {
			return nil, fmt.Errorf("invalid move %q, want from:to", item)
		}
		t, err := strconv.Atoi(strings.TrimSpace(to))
		if err != nil || t < 1 {
			return nil, fmt.Errorf("invalid move %q, want from:to", item)
		}
		moves = append(moves, routineinadapter.Move{From: f, To: t})
	}
	return moves, nil
}

// driveRun shows one task at a time and reads a line per step: empty or
// "n" advances, "a" aborts. A failed signal is printed and the same task is
// offered again.
func driveRun(ctx context.Context, controller runin.Controller, in io.Reader, out io.Writer, settings authdto.Settings, now func() time.Time) (rundto.FlowState, error) {
	scanner := bufio.NewScanner(in)
	for {
		state := controller.State()
		if state.Finished() {
			return state, nil
		}
		if !state.Running() {
			return state, errors.New(state.Error)
		}
		_, _ = fmt.Fprintf(out, "[%d/%d] %s\n", state.Index+1, state.Total, state.CurrentTask)
		if settings.ShowRemainingTasks {
			_, _ = fmt.Fprintf(out, "  remaining: %d\n", state.RemainingCount)
		}
		if settings.EnableTaskEstimatedTime {
			if minutes, ok := controller.EstimatedMinutes(); ok {
				_, _ = fmt.Fprintf(out, "  estimate: %dmin\n", minutes)
			}
		}
		if elapsed := controller.ElapsedMinutes(now(), settings.ShowElapsedTime); elapsed != nil {
			_, _ = fmt.Fprintf(out, "  elapsed: %dmin\n", *elapsed)
		}
		_, _ = fmt.Fprint(out, "enter=next a=abort > ")

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return state, err
			}
			return state, fmt.Errorf("input closed with run %d unfinished", state.HistoryID)
		}
		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "", "n", "next":
			state, err = controller.Advance(ctx)
		case "a", "abort":
			state, err = controller.Abort(ctx)
		default:
			_, _ = fmt.Fprintln(out, "unknown input")
			continue
		}
		if err != nil && state.Error != "" {
			_, _ = fmt.Fprintln(out, state.Error)
		}
	}
}

func printBanners(out io.Writer, celebration celebrationdto.CelebrateOutput) {
	for _, banner := range celebration.Banners {
		for _, line := range banner.Lines {
			_, _ = fmt.Fprintln(out, line)
		}
	}
}
