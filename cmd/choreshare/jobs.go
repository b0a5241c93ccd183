package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rotateHouse int64

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Generate this week's assignments",
	Long: `Generate the current week's assignments for every house, or for one
house with --house. Houses that already have assignments for the week are
skipped.`,
	RunE: runRotate,
}

var streaksCmd = &cobra.Command{
	Use:   "streaks",
	Short: "Credit streaks for last week's completed assignments",
	RunE:  runStreaks,
}

var sweepMissedCmd = &cobra.Command{
	Use:   "sweep-missed",
	Short: "Mark pending assignments from past weeks as missed",
	RunE:  runSweepMissed,
}

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Send reminders for assignments due soon",
	RunE:  runRemind,
}

func init() {
	rotateCmd.Flags().Int64Var(&rotateHouse, "house", 0, "Only generate for this house id")
}

func runRotate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.server().Rotation()
	out := cmd.OutOrStdout()

	if rotateHouse != 0 {
		res, err := svc.GenerateWeekly(cmd.Context(), rotateHouse)
		if err != nil {
			return fmt.Errorf("house %d: %w", rotateHouse, err)
		}
		if res.Skipped != "" {
			fmt.Fprintf(out, "house %d: skipped (%s)\n", res.HouseID, res.Skipped)
			return nil
		}
		fmt.Fprintf(out, "house %d: %d assignments for %s\n", res.HouseID, len(res.Assignments), res.Week)
		return nil
	}

	sum, err := svc.RotateAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run %s: %d houses, %d generated, %d skipped, %d failed, %d assignments\n",
		sum.RunID, sum.Houses, sum.Generated, sum.Skipped, sum.Failed, sum.Created)
	if sum.Failed > 0 {
		return fmt.Errorf("%d houses failed", sum.Failed)
	}
	return nil
}

func runStreaks(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.server().Rotation().UpdateStreaks(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "week %s: %d qualified, %d incremented, %d failed\n",
		sum.Week, sum.Qualified, sum.Incremented, sum.Failed)
	return nil
}

func runSweepMissed(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.server().Rotation().MarkMissed(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d assignments marked missed\n", n)
	return nil
}

func runRemind(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.server().Dispatcher().SendReminders(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d reminders sent\n", n)
	return nil
}
