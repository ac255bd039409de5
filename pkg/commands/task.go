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
	"tableflip.dev/planner/pkg/printers"
)

func addTask(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   base.Wrap80("Add, order, complete and archive tasks."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addTaskAdd(cmd)
	addTaskMove(cmd)
	addTaskList(cmd)
	addTaskUpdate(cmd)
	addTaskDue(cmd)
	addTaskComplete(cmd, true)
	addTaskComplete(cmd, false)
	addTaskArchive(cmd, true)
	addTaskArchive(cmd, false)
	addTaskArchiveCompleted(cmd)
	addTaskDelete(cmd)
	addTaskDuplicate(cmd)

	topLevel.AddCommand(cmd)
}

func addTaskAdd(parent *cobra.Command) {
	po := &options.PlacementOptions{}
	do := &options.DueOptions{}
	io := &options.IDOptions{}
	req := app.TaskRequest{}
	project := ""

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `
planner task add write the report --project <project id> --due tomorrow
planner task add outline --parent <task id>
planner task add call back --after <task id>
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task title")
			}
			req.Title = strings.Join(args, " ")
			return po.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				loc, _ := s.cfg.Location()
				due, err := do.GetDue(s.now(), loc)
				if err != nil {
					return err
				}
				req.Due = due

				var t *model.Task
				switch {
				case po.After != "":
					t, err = s.svc.AddTaskAfter(ctx, s.owner, req, po.After)
				case po.Before != "":
					t, err = s.svc.AddTaskBefore(ctx, s.owner, req, po.Before)
				case po.First && po.Parent != "":
					t, err = s.svc.AddTaskAsFirstChild(ctx, s.owner, req, po.Parent)
				default:
					t, err = s.svc.CreateTask(ctx, s.owner, req, project, po.Parent)
					if err == nil && po.First {
						t, err = s.svc.MoveTaskAsFirst(ctx, s.owner, t.ID, t.ProjectID)
					}
				}
				if err != nil {
					return err
				}
				return s.print(t, func(pp *printers.PrettyPrint) {
					pp.Flat(t)
				})
			})
		},
	}

	options.AddPlacementArgs(cmd, po, "Create as a subtask of this task.")
	options.AddDueArgs(cmd, do)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project to add to. Defaults to the inbox.")
	_ = cmd.RegisterFlagCompletionFunc("project", projectCompletions)
	cmd.Flags().StringVar(&req.Description, "description", "", "Longer description.")
	cmd.Flags().StringSliceVarP(&req.Labels, "label", "l", nil, "Label id, may be repeated.")
	cmd.Flags().StringVar(&req.AssigneeID, "assignee", "", "Assign to this user.")

	parent.AddCommand(cmd)
}

func addTaskMove(parent *cobra.Command) {
	po := &options.PlacementOptions{}
	project := ""
	inbox := false

	cmd := &cobra.Command{
		Use:   "move <task id>",
		Short: "Reorder, reparent or reproject a task",
		Long: base.Wrap80("Move a task next to a sibling, under a parent task, to the top " +
			"of a project or inbox, or into another project. Subtasks travel with the task."),
		Example: `
planner task move <id> --after <task id>
planner task move <id> --parent <task id>
planner task move <id> --first --project <project id>
planner task move <id> --project <project id>
planner task move <id> --inbox
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a task id")
			}
			if err := po.Validate(); err != nil {
				return err
			}
			if po.After == "" && po.Before == "" && po.Parent == "" && !po.First && project == "" && !inbox {
				return errors.New("requires one of --after, --before, --parent, --first, --project or --inbox")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				var (
					t   *model.Task
					err error
				)
				switch {
				case po.After != "":
					t, err = s.svc.MoveTaskAfter(ctx, s.owner, args[0], po.After)
				case po.Before != "":
					t, err = s.svc.MoveTaskBefore(ctx, s.owner, args[0], po.Before)
				case po.Parent != "":
					t, err = s.svc.MoveTaskAsFirstChild(ctx, s.owner, args[0], po.Parent)
				case po.First:
					t, err = s.svc.MoveTaskAsFirst(ctx, s.owner, args[0], project)
				default:
					t, err = s.svc.UpdateTaskProject(ctx, s.owner, args[0], project)
				}
				if err != nil {
					return err
				}
				return s.print(t, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "moved %q to position %d\n", t.Title, t.Order)
				})
			})
		},
	}

	options.AddPlacementArgs(cmd, po, "Make it the first subtask of this task.")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Target project.")
	_ = cmd.RegisterFlagCompletionFunc("project", projectCompletions)
	cmd.Flags().BoolVar(&inbox, "inbox", false, "Target the inbox.")

	parent.AddCommand(cmd)
}

func addTaskList(parent *cobra.Command) {
	io := &options.IDOptions{}
	project := ""
	under := ""

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "tree"},
		Short:   "Show the task outline of a project or the inbox",
		Example: `
planner task list
planner task list --project <project id>
planner task list --parent <task id>
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				if under != "" {
					ts, err := s.svc.ListTasks(ctx, s.scopeOfParent(under))
					if err != nil {
						return err
					}
					return s.print(ts, func(pp *printers.PrettyPrint) {
						pp.Flat(ts...)
					})
				}
				tree, err := s.svc.TaskTree(ctx, s.owner, project)
				if err != nil {
					return err
				}
				title := "Inbox"
				if project != "" {
					title = "Project " + project
				}
				return s.print(tree, func(pp *printers.PrettyPrint) {
					pp.TitleWithCount(title, len(tree), "task")
					pp.Tasks(tree...)
				})
			})
		},
	}

	options.AddShowIDArgs(cmd, io)
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project to show. Defaults to the inbox.")
	_ = cmd.RegisterFlagCompletionFunc("project", projectCompletions)
	cmd.Flags().StringVar(&under, "parent", "", "List only the direct subtasks of this task.")

	parent.AddCommand(cmd)
}

func addTaskUpdate(parent *cobra.Command) {
	var (
		title, description, assignee string
		labels                       []string
		collapsed                    bool
	)

	cmd := &cobra.Command{
		Use:   "update <task id>",
		Short: "Change a task's title, description, labels or assignee",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := app.TaskPatch{}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("assignee") {
				patch.AssigneeID = &assignee
			}
			if cmd.Flags().Changed("label") {
				patch.Labels = &labels
			}
			if cmd.Flags().Changed("collapsed") {
				patch.Collapsed = &collapsed
			}
			return run(cmd, false, func(ctx context.Context, s *session) error {
				t, err := s.svc.UpdateTask(ctx, s.owner, args[0], patch)
				if err != nil {
					return err
				}
				return s.print(t, func(pp *printers.PrettyPrint) {
					pp.Flat(t)
				})
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title.")
	cmd.Flags().StringVar(&description, "description", "", "New description.")
	cmd.Flags().StringVar(&assignee, "assignee", "", "New assignee.")
	cmd.Flags().StringSliceVarP(&labels, "label", "l", nil, "Replace the labels, may be repeated.")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "Collapse or expand in outlines.")

	parent.AddCommand(cmd)
}

func addTaskDue(parent *cobra.Command) {
	do := &options.DueOptions{}

	cmd := &cobra.Command{
		Use:   "due <task id> [date]",
		Short: "Set or clear a task's due date",
		Example: `
planner task due <id> tomorrow
planner task due <id> "2026-10-20 09:30"
planner task due <id> --clear
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a task id")
			}
			if len(args) == 1 && !do.Clear {
				return errors.New("requires a date or --clear")
			}
			do.Due = strings.Join(args[1:], " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				loc, _ := s.cfg.Location()
				due, err := do.GetDue(s.now(), loc)
				if err != nil {
					return err
				}
				if do.Clear {
					due = nil
				}
				t, err := s.svc.UpdateDue(ctx, s.owner, args[0], due)
				if err != nil {
					return err
				}
				return s.print(t, func(pp *printers.PrettyPrint) {
					pp.Flat(t)
				})
			})
		},
	}

	options.AddClearDueArgs(cmd, do)
	parent.AddCommand(cmd)
}

func addTaskComplete(parent *cobra.Command, completed bool) {
	use, short := "complete", "Complete a task and its subtasks"
	aliases := []string{"done"}
	if !completed {
		use, short = "reopen", "Mark a completed task as not done"
		aliases = []string{"uncomplete"}
	}

	cmd := &cobra.Command{
		Use:     use + " <task id>",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				ts, err := s.svc.CompleteTask(ctx, s.owner, args[0], completed)
				if err != nil {
					return err
				}
				return s.print(ts, func(pp *printers.PrettyPrint) {
					pp.Flat(ts...)
				})
			})
		},
	}

	parent.AddCommand(cmd)
}

func addTaskArchive(parent *cobra.Command, archive bool) {
	use, short := "archive", "Archive a task and its subtasks"
	if !archive {
		use, short = "restore", "Restore an archived task and its subtasks"
	}

	cmd := &cobra.Command{
		Use:   use + " <task id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				ts, err := s.svc.ArchiveTask(ctx, s.owner, args[0], archive)
				if err != nil {
					return err
				}
				return s.print(ts, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "%sd %d tasks\n", use, len(ts))
				})
			})
		},
	}

	parent.AddCommand(cmd)
}

func addTaskArchiveCompleted(parent *cobra.Command) {
	project := ""
	restore := false

	cmd := &cobra.Command{
		Use:   "archive-completed",
		Short: "Archive every completed task of a project or the inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				ts, err := s.svc.ArchiveCompletedTasks(ctx, s.owner, project, !restore)
				if err != nil {
					return err
				}
				return s.print(ts, func(pp *printers.PrettyPrint) {
					verb := "archived"
					if restore {
						verb = "restored"
					}
					_, _ = fmt.Fprintf(s.out, "%s %d tasks\n", verb, len(ts))
				})
			})
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project to sweep. Defaults to the inbox.")
	_ = cmd.RegisterFlagCompletionFunc("project", projectCompletions)
	cmd.Flags().BoolVar(&restore, "restore", false, "Restore archived completed tasks instead.")
	parent.AddCommand(cmd)
}

func addTaskDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "delete <task id>",
		Short: "Delete a task and its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				return s.svc.DeleteTask(ctx, s.owner, args[0])
			})
		},
	}

	parent.AddCommand(cmd)
}

func addTaskDuplicate(parent *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "duplicate <task id>",
		Aliases: []string{"dup"},
		Short:   "Copy a task with its subtasks right after the original",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				d, err := s.svc.DuplicateTask(ctx, s.owner, args[0])
				if err != nil {
					return err
				}
				return s.print(d, func(pp *printers.PrettyPrint) {
					pp.Flat(d.Tasks...)
				})
			})
		},
	}

	options.AddShowIDArgs(cmd, io)
	parent.AddCommand(cmd)
}
