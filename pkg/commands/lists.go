package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/model"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/printers"
)

// flatCommands describes one flat list for the shared add, move, list,
// rename, archive, restore and delete subcommands.
type flatCommands[T app.FlatRecord[T]] struct {
	noun    string
	list    func(*app.Service) *app.FlatList[T]
	create  func(name string) T
	rename  func(rec T, name string)
	print   func(pp *printers.PrettyPrint, items ...T)
	project *string
	extra   func(cmd *cobra.Command)
}

// scope is the list scope: the project's when the list is per project and
// one was named, else the owner's root.
func (f *flatCommands[T]) scope(owner string) order.Scope {
	if f.project != nil && *f.project != "" {
		return order.Project(owner, *f.project)
	}
	return order.Root(owner)
}

func (f *flatCommands[T]) command(topLevel *cobra.Command, short string) {
	cmd := &cobra.Command{
		Use:     f.noun,
		Aliases: []string{f.noun + "s"},
		Short:   base.Wrap80(short),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(f.addCmd(), f.moveCmd(), f.listCmd(), f.renameCmd(),
		f.archiveCmd(true), f.archiveCmd(false), f.deleteCmd())
	topLevel.AddCommand(cmd)
}

func (f *flatCommands[T]) projectFlag(cmd *cobra.Command) {
	if f.project != nil {
		cmd.Flags().StringVarP(f.project, "project", "p", "", "Project the "+f.noun+" belongs to.")
		_ = cmd.RegisterFlagCompletionFunc("project", projectCompletions)
	}
}

func (f *flatCommands[T]) addCmd() *cobra.Command {
	io := &options.IDOptions{}
	name := ""

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a " + f.noun,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a " + f.noun + " name")
			}
			name = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				rec, err := f.list(s.svc).Create(ctx, s.owner, f.create(name))
				if err != nil {
					return err
				}
				return s.print(rec, func(pp *printers.PrettyPrint) {
					f.print(pp, rec)
				})
			})
		},
	}
	options.AddShowIDArgs(cmd, io)
	f.projectFlag(cmd)
	if f.extra != nil {
		f.extra(cmd)
	}
	return cmd
}

func (f *flatCommands[T]) moveCmd() *cobra.Command {
	po := &options.PlacementOptions{}

	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Reorder a " + f.noun,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a " + f.noun + " id")
			}
			if err := po.Validate(); err != nil {
				return err
			}
			if po.After == "" && po.Before == "" && !po.First {
				return errors.New("requires one of --after, --before or --first")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				l := f.list(s.svc)
				var (
					rec T
					err error
				)
				switch {
				case po.After != "":
					rec, err = l.MoveAfter(ctx, s.owner, args[0], po.After)
				case po.Before != "":
					rec, err = l.MoveBefore(ctx, s.owner, args[0], po.Before)
				default:
					rec, err = l.MoveAsFirst(ctx, s.owner, args[0])
				}
				if err != nil {
					return err
				}
				return s.print(rec, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "moved %s to position %d\n", rec.NodeID(), rec.Position(order.AxisPrimary))
				})
			})
		},
	}
	options.AddPlacementArgs(cmd, po, "")
	return cmd
}

func (f *flatCommands[T]) listCmd() *cobra.Command {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List " + f.noun + "s in order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				items, err := f.list(s.svc).List(ctx, f.scope(s.owner))
				if err != nil {
					return err
				}
				return s.print(items, func(pp *printers.PrettyPrint) {
					f.print(pp, items...)
				})
			})
		},
	}
	options.AddShowIDArgs(cmd, io)
	f.projectFlag(cmd)
	return cmd
}

func (f *flatCommands[T]) renameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a " + f.noun,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return run(cmd, false, func(ctx context.Context, s *session) error {
				rec, err := f.list(s.svc).Update(ctx, s.owner, args[0], func(rec T) { f.rename(rec, name) })
				if err != nil {
					return err
				}
				return s.print(rec, func(pp *printers.PrettyPrint) {
					f.print(pp, rec)
				})
			})
		},
	}
	return cmd
}

func (f *flatCommands[T]) archiveCmd(archive bool) *cobra.Command {
	use, short := "archive", "Archive a "
	if !archive {
		use, short = "restore", "Restore a "
	}
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short + f.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				rec, err := f.list(s.svc).SetArchived(ctx, s.owner, args[0], archive)
				if err != nil {
					return err
				}
				return s.print(rec, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "%sd %s %s\n", use, f.noun, rec.NodeID())
				})
			})
		},
	}
	return cmd
}

func (f *flatCommands[T]) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + f.noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				return f.list(s.svc).Delete(ctx, s.owner, args[0])
			})
		},
	}
}

func addLabel(topLevel *cobra.Command) {
	color := ""
	f := &flatCommands[*model.Label]{
		noun:   "label",
		list:   (*app.Service).Labels,
		create: func(name string) *model.Label { return &model.Label{Name: name, Color: color} },
		rename: func(l *model.Label, name string) { l.Name = name },
		print:  (*printers.PrettyPrint).Labels,
		extra: func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&color, "color", "", "Display color.")
		},
	}
	f.command(topLevel, "Manage the ordered list of labels.")
}

func addFilter(topLevel *cobra.Command) {
	query := ""
	f := &flatCommands[*model.Filter]{
		noun:   "filter",
		list:   (*app.Service).Filters,
		create: func(name string) *model.Filter { return &model.Filter{Name: name, Query: query} },
		rename: func(fl *model.Filter, name string) { fl.Name = name },
		print:  (*printers.PrettyPrint).Filters,
		extra: func(cmd *cobra.Command) {
			cmd.Flags().StringVarP(&query, "query", "q", "", "Saved query, stored as written.")
		},
	}
	f.command(topLevel, "Manage saved filters. Queries are stored verbatim.")
}

func addHabit(topLevel *cobra.Command) {
	project, goal := "", ""
	f := &flatCommands[*model.Habit]{
		noun:    "habit",
		list:    (*app.Service).Habits,
		project: &project,
		create: func(name string) *model.Habit {
			return &model.Habit{Name: name, ProjectID: project, Goal: goal}
		},
		rename: func(h *model.Habit, name string) { h.Name = name },
		print:  (*printers.PrettyPrint).Habits,
		extra: func(cmd *cobra.Command) {
			cmd.Flags().StringVar(&goal, "goal", "", "Free-form goal, e.g. \"3 times a week\".")
		},
	}
	f.command(topLevel, "Manage habits, ordered within their project.")
}
