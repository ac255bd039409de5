package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

func addWatch(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a line whenever the stored records change",
		Example: `
planner watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, false, func(ctx context.Context, s *session) error {
				ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
				defer stop()
				events, err := s.svc.Watch(ctx)
				if err != nil {
					return err
				}
				for ev := range events {
					kind := ev.Kind
					if kind == "" {
						kind = "all"
					}
					_, _ = fmt.Fprintf(s.out, "%s %s %s\n", time.Now().Format("15:04:05"), ev.Type, kind)
				}
				return nil
			})
		},
	}

	topLevel.AddCommand(cmd)
}
