package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/squadpulse/internal/engine"
	"github.com/blackwell-systems/squadpulse/internal/squad"
)

var optimalCmd = &cobra.Command{
	Use:   "optimal <squad-id>",
	Short: "Best day and time to schedule",
	Long: `Analyze the squad's most recent completed sessions and report the day and
time with the highest share of "yes" RSVPs, with a confidence that grows with
the number of sessions analyzed.`,
	Args: cobra.ExactArgs(1),
	RunE: runOptimal,
}

var coverageCmd = &cobra.Command{
	Use:   "coverage <squad-id>",
	Short: "Upcoming slots ranked by availability",
	Long: `Rank the declared availability slots in the coming days by the share of
squad members available, best first.

By default the window starts today and spans coverage.horizon_days. Use
--from and --to (YYYY-MM-DD, inclusive) to look at another range.`,
	Args: cobra.ExactArgs(1),
	RunE: runCoverage,
}

var (
	coverageFrom string
	coverageTo   string
)

var noshowCmd = &cobra.Command{
	Use:   "noshow <session-id>",
	Short: "No-show risk for a session",
	Long: `Estimate, for each member who answered a session's RSVP, the chance that
they do not show up, using their response and reliability score.`,
	Args: cobra.ExactArgs(1),
	RunE: runNoShow,
}

var cohesionCmd = &cobra.Command{
	Use:   "cohesion <squad-id>",
	Short: "How often members play together",
	Args:  cobra.ExactArgs(1),
	RunE:  runCohesion,
}

var healthCmd = &cobra.Command{
	Use:   "health <squad-id>",
	Short: "Squad health score and insights",
	Long: `Score the squad out of 100 from recent attendance, chat activity and
member inactivity, with prioritized insights and suggested actions.`,
	Args: cobra.ExactArgs(1),
	RunE: runHealth,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <squad-id>",
	Short: "Scheduling recommendations",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommend,
}

func init() {
	rootCmd.AddCommand(optimalCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(noshowCmd)
	rootCmd.AddCommand(cohesionCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(recommendCmd)

	coverageCmd.Flags().StringVar(&coverageFrom, "from", "", "First day of the window, YYYY-MM-DD (default: today)")
	coverageCmd.Flags().StringVar(&coverageTo, "to", "", "Last day of the window, YYYY-MM-DD (default: from + coverage.horizon_days)")
}

// coverageWindow parses the --from/--to flags. Unset bounds come back as
// the zero time so the engine applies its defaults.
func coverageWindow(from, to string) (start, end time.Time, err error) {
	if from != "" {
		if start, err = squad.ParseDate(from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
		}
	}
	if to != "" {
		if end, err = squad.ParseDate(to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return start, end, nil
}

func runOptimal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.engine.OptimalTime(ctx, args[0])
	if flagJSON {
		return printJSON(result)
	}
	renderOptimal(args[0], result)
	return nil
}

func runCoverage(cmd *cobra.Command, args []string) error {
	start, end, err := coverageWindow(coverageFrom, coverageTo)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	if start.IsZero() && !end.IsZero() {
		start = e.now()
	}
	if !end.IsZero() && end.Before(squad.Date(start)) {
		return fmt.Errorf("--to %s is before today", coverageTo)
	}
	result := e.engine.Coverage(ctx, args[0], start, end)
	if flagJSON {
		return printJSON(result)
	}
	renderCoverage(args[0], result)
	return nil
}

func runNoShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	session, err := e.repository().Session(ctx, args[0])
	if errors.Is(err, squad.ErrNotFound) {
		return fmt.Errorf("unknown session %q", args[0])
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("session", args[0]).Msg("session lookup failed")
	}

	result := e.engine.NoShow(ctx, args[0])
	if flagJSON {
		return printJSON(result)
	}
	if session.ID == "" {
		session.ID = args[0]
	}
	renderNoShow(engine.NewSessionRisk(session, result))
	return nil
}

func runCohesion(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.engine.Cohesion(ctx, args[0])
	if flagJSON {
		return printJSON(result)
	}
	renderCohesion(args[0], result)
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.engine.Health(ctx, args[0])
	if flagJSON {
		return printJSON(result)
	}
	renderHealth(args[0], result)
	return nil
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	result := e.engine.Recommendations(ctx, args[0])
	if flagJSON {
		return printJSON(result)
	}
	renderRecommendations(result)
	return nil
}
