package main

import (
	"context"
	"fmt"

	"github.com/riskibarqy/competition-engine/internal/app"
	"github.com/riskibarqy/competition-engine/internal/usecase"
	"github.com/spf13/cobra"
)

func (r *runner) auditCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "audit [competition-id]",
		Short: "Report ghosts, zombies, duplicate fixtures and name collisions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("competition id is required unless --all is set")
			}
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				if all {
					return c.Identity.AuditAll(ctx)
				}
				return c.Identity.Audit(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Audit every competition")
	return cmd
}

func (r *runner) ghostsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ghosts <competition-id>",
		Short: "List team names used by matches but missing from the roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Ghosts(ctx, args[0])
			})
		},
	}
}

func (r *runner) zombiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "zombies <competition-id>",
		Short: "List rostered teams that no match refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Zombies(ctx, args[0])
			})
		},
	}
}

func (r *runner) adoptCmd() *cobra.Command {
	var names []string
	cmd := &cobra.Command{
		Use:   "adopt <competition-id>",
		Short: "Register ghost names as teams; every ghost when no --name is given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Adopt(ctx, usecase.AdoptInput{CompetitionID: args[0], Names: names})
			})
		},
	}
	cmd.Flags().StringArrayVar(&names, "name", nil, "Ghost name to adopt (repeatable)")
	return cmd
}

func (r *runner) renameCmd() *cobra.Command {
	var (
		ghost  string
		teamID int64
	)
	cmd := &cobra.Command{
		Use:   "rename <competition-id>",
		Short: "Rewrite a ghost name to an existing team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Rename(ctx, usecase.RenameGhostInput{
					CompetitionID: args[0],
					GhostName:     ghost,
					TargetTeamID:  teamID,
				})
			})
		},
	}
	cmd.Flags().StringVar(&ghost, "ghost", "", "Ghost name as it appears in matches")
	cmd.Flags().Int64Var(&teamID, "team", 0, "Target team id")
	_ = cmd.MarkFlagRequired("ghost")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func (r *runner) mergeCmd() *cobra.Command {
	var (
		primaryID   int64
		secondaryID int64
		confirm     bool
	)
	cmd := &cobra.Command{
		Use:   "merge <competition-id>",
		Short: "Fold the secondary team into the primary team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Merge(ctx, usecase.MergeTeamsInput{
					CompetitionID: args[0],
					PrimaryID:     primaryID,
					SecondaryID:   secondaryID,
					Confirmed:     confirm,
				})
			})
		},
	}
	cmd.Flags().Int64Var(&primaryID, "primary", 0, "Team id that survives the merge")
	cmd.Flags().Int64Var(&secondaryID, "secondary", 0, "Team id that is removed")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm the merge")
	_ = cmd.MarkFlagRequired("primary")
	_ = cmd.MarkFlagRequired("secondary")
	return cmd
}

func (r *runner) dedupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup <competition-id>",
		Short: "Drop duplicate matches; recorded results win over stale fixtures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Identity.Dedup(ctx, args[0])
			})
		},
	}
}

func (r *runner) recomputeCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "recompute [competition-id]",
		Short: "Rebuild team stats from completed matches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return fmt.Errorf("competition id is required unless --all is set")
			}
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				if all {
					return c.Identity.RecomputeAll(ctx)
				}
				return c.Identity.Recompute(ctx, args[0])
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Recompute every competition")
	return cmd
}

func (r *runner) transitionCmd() *cobra.Command {
	var (
		matchID    string
		status     string
		homeScore  int
		awayScore  int
		liveMinute int
	)
	cmd := &cobra.Command{
		Use:   "transition <competition-id>",
		Short: "Move a match to a new status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := usecase.TransitionMatchInput{
				CompetitionID: args[0],
				MatchID:       matchID,
				Status:        status,
			}
			if cmd.Flags().Changed("home") {
				input.HomeScore = &homeScore
			}
			if cmd.Flags().Changed("away") {
				input.AwayScore = &awayScore
			}
			if cmd.Flags().Changed("minute") {
				input.LiveMinute = &liveMinute
			}
			return r.with(cmd, func(ctx context.Context, c *app.Container) (any, error) {
				return c.Matches.Transition(ctx, input)
			})
		},
	}
	cmd.Flags().StringVar(&matchID, "match", "", "Match id")
	cmd.Flags().StringVar(&status, "status", "", "Target status: scheduled, live, suspended, postponed, cancelled, abandoned or completed")
	cmd.Flags().IntVar(&homeScore, "home", 0, "Home score")
	cmd.Flags().IntVar(&awayScore, "away", 0, "Away score")
	cmd.Flags().IntVar(&liveMinute, "minute", 0, "Live minute")
	_ = cmd.MarkFlagRequired("match")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
