package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/printers"
)

func addDay(topLevel *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "day [date]",
		Aliases: []string{"today"},
		Short:   base.Wrap80("Show the tasks due on a day in their daily order."),
		Args:    cobra.ArbitraryArgs,
		Example: `
planner day
planner day tomorrow
planner day 2026-10-20
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				loc, _ := s.cfg.Location()
				day := s.now()
				if len(args) > 0 {
					d, err := options.ParseDay(strings.Join(args, " "), day, loc)
					if err != nil {
						return err
					}
					day = *d
				}
				ts, err := s.svc.ListDay(ctx, s.owner, day)
				if err != nil {
					return err
				}
				return s.print(ts, func(pp *printers.PrettyPrint) {
					pp.Day(model.DayKey(day, loc), ts...)
				})
			})
		},
	}
	options.AddShowIDArgs(cmd, io)

	addDayMove(cmd)
	addDayReschedule(cmd)

	topLevel.AddCommand(cmd)
}

func addDayMove(parent *cobra.Command) {
	po := &options.PlacementOptions{}

	cmd := &cobra.Command{
		Use:   "move <task id>",
		Short: "Reorder a task within the daily view",
		Long: base.Wrap80("Place a task next to another dated task in the daily view. A task " +
			"moved next to a task of another day takes that day and keeps its time of day."),
		Example: `
planner day move <id> --before <task id>
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a task id")
			}
			if err := po.Validate(); err != nil {
				return err
			}
			if po.After == "" && po.Before == "" {
				return errors.New("requires --after or --before")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				var (
					t   *model.Task
					err error
				)
				if po.After != "" {
					t, err = s.svc.MoveTaskAfterInDay(ctx, s.owner, args[0], po.After)
				} else {
					t, err = s.svc.MoveTaskBeforeInDay(ctx, s.owner, args[0], po.Before)
				}
				if err != nil {
					return err
				}
				return s.print(t, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "moved %q to %s position %d\n", t.Title, t.DueDay, t.DailyOrder)
				})
			})
		},
	}

	options.AddPlacementArgs(cmd, po, "")
	parent.AddCommand(cmd)
}

func addDayReschedule(parent *cobra.Command) {
	do := &options.DueOptions{}

	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Move every overdue open task to a new day, or clear their dates",
		Example: `
planner day reschedule --to today
planner day reschedule --clear
`,
		Args: func(cmd *cobra.Command, _ []string) error {
			if (do.Due == "") == !do.Clear {
				return errors.New("requires exactly one of --to or --clear")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				loc, _ := s.cfg.Location()
				date, err := do.GetDue(s.now(), loc)
				if err != nil {
					return err
				}
				ts, err := s.svc.RescheduleOverdue(ctx, s.owner, date)
				if err != nil {
					return err
				}
				return s.print(ts, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "rescheduled %d tasks\n", len(ts))
				})
			})
		},
	}

	cmd.Flags().StringVar(&do.Due, "to", "", `Target day, example: --to=today or --to="2026-10-20".`)
	options.AddClearDueArgs(cmd, do)
	parent.AddCommand(cmd)
}
