// Package cli implements questctl, the operator command line for quest
// lifecycle actions.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/service"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ServiceFactory opens the lifecycle service. The returned func releases its
// resources and flushes pending side effects.
type ServiceFactory func(ctx context.Context) (service.QuestLifecycleServiceI, func(), error)

func RootCmd(open ServiceFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "questctl",
		Short: "Operate the quest lifecycle",
		Long: `questctl changes quest status, records review decisions and
soft-deletes quests. Every change goes through the same rules as the admin API
and writes an audit record.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("actor", "", "admin profile id recorded in the audit log")

	rootCmd.AddCommand(showCmd(open))
	rootCmd.AddCommand(transitionCmd(open))
	rootCmd.AddCommand(reviewCmd(open))
	rootCmd.AddCommand(deleteCmd(open))
	rootCmd.AddCommand(priorityCmd(open))
	rootCmd.AddCommand(allowedCmd())

	return rootCmd
}

func showCmd(open ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quest-id>",
		Short: "Show a quest's lifecycle state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questID, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, open, func(ctx context.Context, svc service.QuestLifecycleServiceI) error {
				quest, err := svc.GetQuest(ctx, questID)
				if err != nil {
					return err
				}
				printQuest(cmd.OutOrStdout(), quest)
				return nil
			})
		},
	}
}

func transitionCmd(open ServiceFactory) *cobra.Command {
	var (
		reason        string
		notes         string
		notifyCreator bool
		notifyUsers   bool
	)

	cmd := &cobra.Command{
		Use:   "transition <quest-id> <status>",
		Short: "Move a quest to a new status",
		Long: `Move a quest to a new status.

Cancelling and revoking require --reason.

Examples:
  questctl transition 3f0c... paused --reason "venue closed" --notify-users
  questctl transition 3f0c... open`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			questID, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			status := model.QuestStatus(args[1])
			if !status.IsValid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			actor, err := actorFlag(cmd)
			if err != nil {
				return err
			}

			return withService(cmd, open, func(ctx context.Context, svc service.QuestLifecycleServiceI) error {
				res, err := svc.TransitionQuestStatus(ctx, questID, status, lifecycle.TransitionOptions{
					Reason:        reason,
					AdminNotes:    notes,
					NotifyCreator: notifyCreator,
					NotifyUsers:   notifyUsers,
					ActorID:       actor,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s quest %s is now %s\n",
					color.New(color.FgGreen).Sprint("✓"), questID, statusLabel(res.NewStatus))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason for the change")
	cmd.Flags().StringVar(&notes, "notes", "", "admin notes for the audit record")
	cmd.Flags().BoolVar(&notifyCreator, "notify-creator", true, "notify the quest creator")
	cmd.Flags().BoolVar(&notifyUsers, "notify-users", false, "notify everyone signed up")

	return cmd
}

func reviewCmd(open ServiceFactory) *cobra.Command {
	var (
		notes   string
		publish bool
	)

	cmd := &cobra.Command{
		Use:   "review <quest-id> <approve|reject|request_changes>",
		Short: "Record a review decision",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			questID, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			actor, err := actorFlag(cmd)
			if err != nil {
				return err
			}

			return withService(cmd, open, func(ctx context.Context, svc service.QuestLifecycleServiceI) error {
				res, err := svc.PerformReviewAction(ctx, questID, model.ReviewAction(args[1]), lifecycle.ReviewOptions{
					AdminNotes:    notes,
					ShouldPublish: publish,
					ActorID:       actor,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s review recorded: %s (revision %d, status %s)\n",
					color.New(color.FgGreen).Sprint("✓"), res.Quest.ReviewStatus, res.Quest.RevisionCount, statusLabel(res.NewStatus))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "admin notes; empty clears existing notes")
	cmd.Flags().BoolVar(&publish, "publish", false, "open the quest when approving")

	return cmd
}

func deleteCmd(open ServiceFactory) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "delete <quest-id>",
		Short: "Soft-delete a cancelled or revoked quest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questID, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			actor, err := actorFlag(cmd)
			if err != nil {
				return err
			}

			return withService(cmd, open, func(ctx context.Context, svc service.QuestLifecycleServiceI) error {
				if err := svc.SoftDeleteQuest(ctx, questID, reason, actor); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s quest %s deleted\n", color.New(color.FgGreen).Sprint("✓"), questID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "reason kept in the audit record")

	return cmd
}

func priorityCmd(open ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <quest-id>",
		Short: "Toggle a quest's priority flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questID, err := parseQuestID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, open, func(ctx context.Context, svc service.QuestLifecycleServiceI) error {
				flag, err := svc.TogglePriorityFlag(ctx, questID)
				if err != nil {
					return err
				}
				state := color.New(color.FgHiBlack).Sprint("off")
				if flag {
					state = color.New(color.FgHiMagenta).Sprint("on")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "priority flag %s\n", state)
				return nil
			})
		},
	}
}

func allowedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "allowed [status]",
		Short: "Print the status transition table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := model.QuestStatuses
			if len(args) == 1 {
				status := model.QuestStatus(args[0])
				if !status.IsValid() {
					return fmt.Errorf("unknown status %q", args[0])
				}
				statuses = []model.QuestStatus{status}
			}

			out := cmd.OutOrStdout()
			for _, from := range statuses {
				next := lifecycle.AllowedTransitions(from)
				if len(next) == 0 {
					fmt.Fprintf(out, "%-10s %s\n", from, color.New(color.FgRed).Sprint("(terminal)"))
					continue
				}
				labels := make([]string, len(next))
				for i, to := range next {
					labels[i] = string(to)
					if lifecycle.RequiresReason(to) {
						labels[i] += "*"
					}
				}
				fmt.Fprintf(out, "%-10s -> %s\n", from, strings.Join(labels, ", "))
			}
			return nil
		},
	}
}

func withService(cmd *cobra.Command, open ServiceFactory, fn func(ctx context.Context, svc service.QuestLifecycleServiceI) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, closeFn, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, svc)
}

func parseQuestID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid quest id %q: %w", raw, err)
	}
	return id, nil
}

func actorFlag(cmd *cobra.Command) (*uuid.UUID, error) {
	raw, err := cmd.Flags().GetString("actor")
	if err != nil || raw == "" {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --actor %q: %w", raw, err)
	}
	return &id, nil
}

func statusLabel(s model.QuestStatus) string {
	switch {
	case s == model.QuestStatusOpen:
		return color.New(color.FgGreen).Sprint(s)
	case s == model.QuestStatusPaused:
		return color.New(color.FgYellow).Sprint(s)
	case lifecycle.IsTerminal(s):
		return color.New(color.FgRed).Sprint(s)
	default:
		return color.New(color.FgCyan).Sprint(s)
	}
}

func printQuest(out io.Writer, q *model.Quest) {
	fmt.Fprintf(out, "Quest: %s\n", q.ID)
	fmt.Fprintf(out, "  Title:    %s\n", q.Title)
	fmt.Fprintf(out, "  Status:   %s\n", statusLabel(q.Status))
	if q.PreviousStatus != nil {
		fmt.Fprintf(out, "  Previous: %s\n", *q.PreviousStatus)
	}
	fmt.Fprintf(out, "  Review:   %s (revision %d)\n", q.ReviewStatus, q.RevisionCount)
	if q.PausedReason != nil {
		fmt.Fprintf(out, "  Paused:   %s\n", *q.PausedReason)
	}
	if q.RevokedReason != nil {
		fmt.Fprintf(out, "  Revoked:  %s\n", *q.RevokedReason)
	}
	if q.CancelledReason != nil {
		fmt.Fprintf(out, "  Cancelled: %s\n", *q.CancelledReason)
	}
	if q.PriorityFlag {
		fmt.Fprintf(out, "  %s\n", color.New(color.FgHiMagenta).Sprint("[priority]"))
	}
}
