package commands

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"time"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/planner/pkg/app"
	"tableflip.dev/planner/pkg/commands/options"
	"tableflip.dev/planner/pkg/config"
	"tableflip.dev/planner/pkg/order"
	"tableflip.dev/planner/pkg/printers"
	"tableflip.dev/planner/pkg/store"
)

var (
	global = &options.GlobalOptions{}
	output = &options.OutputOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:           "planner",
		Short:         base.Wrap80("Ordered projects, tasks and lists on the command line."),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddGlobalArgs(cmd, global)
	options.AddOutputArg(cmd, output)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addProject(topLevel)
	addTask(topLevel)
	addDay(topLevel)
	addLabel(topLevel)
	addFilter(topLevel)
	addHabit(topLevel)
	addCheck(topLevel)
	addReport(topLevel)
	addWatch(topLevel)
	addInfo(topLevel)
	addCompletions(topLevel)
	addVersion(topLevel)
}

// session is an opened store plus the engine and owner a command acts on.
type session struct {
	cfg   *config.Config
	svc   *app.Service
	owner string
	out   io.Writer
	pp    *printers.PrettyPrint
}

func (s *session) now() time.Time {
	if s.svc.Now != nil {
		return s.svc.Now()
	}
	return time.Now()
}

func (s *session) scopeOfParent(taskID string) order.Scope {
	return order.Parent(s.owner, taskID)
}

func (s *session) Close() {
	_ = s.svc.Store.Close()
}

// print renders v as JSON or YAML when requested, otherwise runs pretty.
func (s *session) print(v interface{}, pretty func(pp *printers.PrettyPrint)) error {
	return output.Print(s.out, v, func() { pretty(s.pp) })
}

func open(cmd *cobra.Command, showID bool) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	owner := global.Owner
	if owner == "" {
		owner = cfg.Owner
	}
	if owner == "" {
		return nil, errors.New("no owner configured, set owner in .planner.yaml or pass --owner")
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}
	svc := app.New(st)
	svc.Location = loc
	if global.Verbose {
		svc.Log = log.New(os.Stderr, "planner: ", log.LstdFlags)
	}
	out := cmd.OutOrStdout()
	return &session{
		cfg:   cfg,
		svc:   svc,
		owner: owner,
		out:   out,
		pp:    &printers.PrettyPrint{ShowID: showID, Out: out},
	}, nil
}

// run opens a session, calls fn and closes the session again.
func run(cmd *cobra.Command, showID bool, fn func(ctx context.Context, s *session) error) error {
	cmd.SilenceUsage = true
	s, err := open(cmd, showID)
	if err != nil {
		return output.HandleError(err)
	}
	defer s.Close()
	return output.HandleError(fn(cmd.Context(), s))
}
