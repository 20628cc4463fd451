package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jvlax-y/cekApar/internal/report"
	"github.com/jvlax-y/cekApar/internal/service"
)

var (
	boardGuard string
	boardAt    string
	boardQuery string
	rosterDate string
	exportDate string
	exportOut  string
	queryLimit time.Duration
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Print a guard's board for the operational day containing --at",
	RunE:  runBoard,
}

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Print the supervisor roster for an operational day",
	RunE:  runRoster,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the supervisor roster as an .xlsx workbook",
	RunE:  runExport,
}

func init() {
	boardCmd.Flags().StringVar(&boardGuard, "guard", "", "Guard ID")
	boardCmd.Flags().StringVar(&boardAt, "at", "", "Reference instant, RFC3339 (default: now)")
	boardCmd.Flags().StringVarP(&boardQuery, "q", "q", "", "Location name filter")
	_ = boardCmd.MarkFlagRequired("guard")

	rosterCmd.Flags().StringVar(&rosterDate, "date", "", "Operational day YYYY-MM-DD (default: current)")

	exportCmd.Flags().StringVar(&exportDate, "date", "", "Operational day YYYY-MM-DD (default: current)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default: patrol-roster-<date>.xlsx)")

	for _, c := range []*cobra.Command{boardCmd, rosterCmd, exportCmd} {
		c.Flags().DurationVar(&queryLimit, "timeout", 30*time.Second, "Query timeout")
	}
}

// withEngine 创建只读引擎（不启用通知）并执行 fn
func withEngine(fn func(ctx context.Context, e *service.Engine) error) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), queryLimit)
	defer cancel()

	engine, err := service.NewEngine(ctx, cfg, nil, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	return fn(ctx, engine)
}

func runBoard(cmd *cobra.Command, args []string) error {
	at, err := parseAt(boardAt, time.Now())
	if err != nil {
		return err
	}
	return withEngine(func(ctx context.Context, e *service.Engine) error {
		board, err := e.Projector.ProjectGuardBoard(ctx, boardGuard, at)
		if err != nil {
			return err
		}
		if boardQuery != "" {
			board = board.Filter(boardQuery)
		}
		return printJSON(cmd.OutOrStdout(), board)
	})
}

func runRoster(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, e *service.Engine) error {
		roster, err := e.Projector.ProjectRoster(ctx, dayOrCurrent(rosterDate, e))
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), roster)
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	return withEngine(func(ctx context.Context, e *service.Engine) error {
		roster, err := e.Projector.ProjectRoster(ctx, dayOrCurrent(exportDate, e))
		if err != nil {
			return err
		}
		data, err := report.ExportRoster(roster)
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = report.FileName(roster.DayID)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d guards)\n", out, len(roster.Guards))
		return nil
	})
}

func dayOrCurrent(day string, e *service.Engine) string {
	if day = strings.TrimSpace(day); day != "" {
		return day
	}
	return e.Calculator.Resolve(time.Now()).DayID
}

func parseAt(s string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q: %w", s, err)
	}
	return t, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
