package commands

import (
	"context"
	"fmt"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/printers"
)

func addCheck(topLevel *cobra.Command) {
	fix := false

	cmd := &cobra.Command{
		Use:   "check",
		Short: base.Wrap80("Verify every scope is densely ordered and every reference resolves."),
		Example: `
planner check
planner check --fix
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				if fix {
					n, err := s.svc.Normalize(ctx, s.owner)
					if err != nil {
						return err
					}
					if !output.Structured() {
						_, _ = fmt.Fprintf(s.out, "renumbered %d records\n", n)
					}
				}
				vs, err := s.svc.Verify(ctx, s.owner)
				if err != nil {
					return err
				}
				if err := s.print(vs, func(pp *printers.PrettyPrint) { pp.Violations(vs...) }); err != nil {
					return err
				}
				if len(vs) > 0 {
					return fmt.Errorf("%d problems found", len(vs))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Renumber scopes with gaps or duplicates before checking.")
	topLevel.AddCommand(cmd)
}
