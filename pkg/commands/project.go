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

func addProject(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   base.Wrap80("Create, order and archive projects."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	addProjectAdd(cmd)
	addProjectMove(cmd)
	addProjectList(cmd)
	addProjectUpdate(cmd)
	addProjectArchive(cmd, true)
	addProjectArchive(cmd, false)
	addProjectDelete(cmd)
	addProjectDuplicate(cmd)
	addProjectShare(cmd)

	topLevel.AddCommand(cmd)
}

func addProjectAdd(parent *cobra.Command) {
	po := &options.PlacementOptions{}
	req := app.ProjectRequest{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a project",
		Example: `
planner project add Work
planner project add Reports --parent <project id>
planner project add Errands --after <project id>
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a project name")
			}
			req.Name = strings.Join(args, " ")
			return po.Validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				var (
					p   *model.Project
					err error
				)
				switch {
				case po.After != "":
					p, err = s.svc.AddProjectAfter(ctx, s.owner, req, po.After)
				case po.Before != "":
					p, err = s.svc.AddProjectBefore(ctx, s.owner, req, po.Before)
				default:
					p, err = s.svc.CreateProject(ctx, s.owner, req, po.Parent)
					if err == nil && po.First {
						p, err = s.svc.MoveProjectAsFirstChild(ctx, s.owner, p.ID, po.Parent)
					}
				}
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					pp.Projects(app.Outlined[*model.Project]{Node: p})
				})
			})
		},
	}

	options.AddPlacementArgs(cmd, po, "Create as a subproject of this project.")
	_ = cmd.RegisterFlagCompletionFunc("parent", projectCompletions)
	options.AddShowIDArgs(cmd, io)
	cmd.Flags().StringVar(&req.Color, "color", "", "Display color.")
	cmd.Flags().BoolVar(&req.Favorite, "favorite", false, "Mark as favorite.")

	parent.AddCommand(cmd)
}

func addProjectMove(parent *cobra.Command) {
	po := &options.PlacementOptions{}
	root := false

	cmd := &cobra.Command{
		Use:   "move <project id>",
		Short: "Reorder or reparent a project",
		Example: `
planner project move <id> --after <sibling id>
planner project move <id> --parent <project id>
planner project move <id> --root
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a project id")
			}
			if err := po.Validate(); err != nil {
				return err
			}
			if po.After == "" && po.Before == "" && po.Parent == "" && !po.First && !root {
				return errors.New("requires one of --after, --before, --parent, --first or --root")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				var (
					p   *model.Project
					err error
				)
				switch {
				case po.After != "":
					p, err = s.svc.MoveProjectAfter(ctx, s.owner, args[0], po.After)
				case po.Before != "":
					p, err = s.svc.MoveProjectBefore(ctx, s.owner, args[0], po.Before)
				case po.Parent != "" || root:
					p, err = s.svc.MoveProjectAsFirstChild(ctx, s.owner, args[0], po.Parent)
				default:
					p, err = s.svc.MoveProjectAsFirst(ctx, s.owner, args[0])
				}
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "moved %s to position %d\n", p.Name, p.Order)
				})
			})
		},
	}

	options.AddPlacementArgs(cmd, po, "Make it the first child of this project.")
	_ = cmd.RegisterFlagCompletionFunc("parent", projectCompletions)
	cmd.Flags().BoolVar(&root, "root", false, "Make it the first top-level project.")

	parent.AddCommand(cmd)
}

func addProjectList(parent *cobra.Command) {
	io := &options.IDOptions{}
	archived := false
	under := ""

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "tree"},
		Short:   "Show the project tree",
		Example: `
planner project list
planner project list --parent <project id>
planner project list --archived
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				switch {
				case archived:
					ps, err := s.svc.ArchivedProjects(ctx, s.owner)
					if err != nil {
						return err
					}
					return s.print(ps, func(pp *printers.PrettyPrint) {
						pp.Title("Archived projects")
						pp.Projects(flat(ps)...)
					})
				case under != "":
					ps, err := s.svc.ListProjects(ctx, s.owner, under)
					if err != nil {
						return err
					}
					return s.print(ps, func(pp *printers.PrettyPrint) {
						pp.Projects(flat(ps)...)
					})
				}
				tree, err := s.svc.ProjectTree(ctx, s.owner)
				if err != nil {
					return err
				}
				return s.print(tree, func(pp *printers.PrettyPrint) {
					pp.TitleWithCount("Projects", len(tree), "project")
					pp.Projects(tree...)
				})
			})
		},
	}

	options.AddShowIDArgs(cmd, io)
	cmd.Flags().BoolVar(&archived, "archived", false, "List archived projects.")
	cmd.Flags().StringVar(&under, "parent", "", "List only the direct children of this project.")

	parent.AddCommand(cmd)
}

func flat[T any](items []T) []app.Outlined[T] {
	out := make([]app.Outlined[T], len(items))
	for i, it := range items {
		out[i] = app.Outlined[T]{Node: it}
	}
	return out
}

func addProjectUpdate(parent *cobra.Command) {
	var (
		name, color         string
		favorite, collapsed bool
	)

	cmd := &cobra.Command{
		Use:   "update <project id>",
		Short: "Change a project's name, color or flags",
		Example: `
planner project update <id> --name "Deep Work" --favorite
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := app.ProjectPatch{}
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &color
			}
			if cmd.Flags().Changed("favorite") {
				patch.Favorite = &favorite
			}
			if cmd.Flags().Changed("collapsed") {
				patch.Collapsed = &collapsed
			}
			return run(cmd, false, func(ctx context.Context, s *session) error {
				p, err := s.svc.UpdateProject(ctx, s.owner, args[0], patch)
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					pp.Projects(app.Outlined[*model.Project]{Node: p})
				})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name.")
	cmd.Flags().StringVar(&color, "color", "", "New display color.")
	cmd.Flags().BoolVar(&favorite, "favorite", false, "Mark or unmark as favorite.")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "Collapse or expand in outlines.")

	parent.AddCommand(cmd)
}

func addProjectArchive(parent *cobra.Command, archive bool) {
	use, short := "archive", "Archive a project with its tasks and habits"
	if !archive {
		use, short = "restore", "Restore an archived project to the end of the top level"
	}

	cmd := &cobra.Command{
		Use:   use + " <project id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				p, err := s.svc.SetProjectArchived(ctx, s.owner, args[0], archive)
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "%sd %s\n", use, p.Name)
				})
			})
		},
	}

	parent.AddCommand(cmd)
}

func addProjectDelete(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "delete <project id>",
		Short: "Delete a project, its subprojects and everything in them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				return s.svc.DeleteProject(ctx, s.owner, args[0])
			})
		},
	}

	parent.AddCommand(cmd)
}

func addProjectDuplicate(parent *cobra.Command) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     "duplicate <project id>",
		Aliases: []string{"dup"},
		Short:   "Copy a project subtree with its tasks and habits",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, io.ShowID, func(ctx context.Context, s *session) error {
				d, err := s.svc.DuplicateProject(ctx, s.owner, args[0])
				if err != nil {
					return err
				}
				return s.print(d, func(pp *printers.PrettyPrint) {
					_, _ = fmt.Fprintf(s.out, "created %d projects, %d tasks, %d habits\n",
						len(d.Projects), len(d.Tasks), len(d.Habits))
				})
			})
		},
	}

	options.AddShowIDArgs(cmd, io)
	parent.AddCommand(cmd)
}

func addProjectShare(parent *cobra.Command) {
	role := string(model.RoleEditor)

	share := &cobra.Command{
		Use:   "share <project id> <user id>",
		Short: "Add a collaborator to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				p, err := s.svc.AddCollaborator(ctx, s.owner, args[0], args[1], model.Role(role))
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					pp.Projects(app.Outlined[*model.Project]{Node: p})
				})
			})
		},
	}
	share.Flags().StringVar(&role, "role", role, "Collaborator role, 'editor' or 'viewer'.")

	unshare := &cobra.Command{
		Use:   "unshare <project id> <user id>",
		Short: "Remove a collaborator from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				p, err := s.svc.RemoveCollaborator(ctx, s.owner, args[0], args[1])
				if err != nil {
					return err
				}
				return s.print(p, func(pp *printers.PrettyPrint) {
					pp.Projects(app.Outlined[*model.Project]{Node: p})
				})
			})
		},
	}

	parent.AddCommand(share, unshare)
}
