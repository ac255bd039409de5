package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/printers"
)

func addInfo(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the resolved configuration and where records are stored.",
		Example: `
planner info
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(_ context.Context, s *session) error {
				cfg := *s.cfg
				cfg.Owner = s.owner
				return s.print(cfg, func(pp *printers.PrettyPrint) {
					tz := cfg.Timezone
					if tz == "" {
						tz = "local"
					}
					pp.Title("Planner")
					_, _ = fmt.Fprintf(s.out, "backend:  %s\npath:     %s\nowner:    %s\ntimezone: %s\n",
						cfg.Backend(), cfg.BasePath(), cfg.Owner, tz)
				})
			})
		},
	}

	topLevel.AddCommand(cmd)
}
