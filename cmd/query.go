package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"go-pkresolve/service"
)

// queryFunc runs one backend operation into res.
type queryFunc func(ctx context.Context, svc *service.Service, filters string, args []string, res *service.Result) error

type querySpec struct {
	use     string
	short   string
	args    cobra.PositionalArgs
	filter  bool // accepts --filter
	recurse bool // accepts --recursive
	run     func(recursive bool) queryFunc
}

func (a *app) queryCmds() []*cobra.Command {
	specs := []querySpec{
		{
			use: "get-packages", short: "List every package visible through the filters",
			args: cobra.NoArgs, filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, _ []string, res *service.Result) error {
					return svc.GetPackages(ctx, f, res)
				}
			},
		},
		{
			use: "resolve <name>...", short: "Resolve package names to identifiers",
			args: cobra.MinimumNArgs(1), filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.Resolve(ctx, f, args, res)
				}
			},
		},
		{
			use: "search-name <key>...", short: "Search packages by name",
			args: cobra.MinimumNArgs(1), filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.SearchName(ctx, f, strings.Join(args, " "), res)
				}
			},
		},
		{
			use: "search-details <key>...", short: "Search packages by name, description or homepage",
			args: cobra.MinimumNArgs(1), filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.SearchDetails(ctx, f, strings.Join(args, " "), res)
				}
			},
		},
		{
			use: "search-group <group>", short: "List packages of a group",
			args: cobra.ExactArgs(1), filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.SearchGroup(ctx, f, args[0], res)
				}
			},
		},
		{
			use: "search-file <path>", short: "Find installed packages owning a file",
			args: cobra.ExactArgs(1), filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.SearchFile(ctx, f, args[0], res)
				}
			},
		},
		{
			use: "get-depends <id>...", short: "List the dependencies of packages",
			args: cobra.MinimumNArgs(1), filter: true, recurse: true,
			run: func(recursive bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.GetDepends(ctx, f, args, recursive, res)
				}
			},
		},
		{
			use: "get-requires <id>...", short: "List installed packages requiring packages",
			args: cobra.MinimumNArgs(1), filter: true, recurse: true,
			run: func(recursive bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, args []string, res *service.Result) error {
					return svc.GetRequires(ctx, f, args, recursive, res)
				}
			},
		},
		{
			use: "get-updates", short: "List pending updates",
			args: cobra.NoArgs, filter: true,
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, f string, _ []string, res *service.Result) error {
					return svc.GetUpdates(ctx, f, res)
				}
			},
		},
		{
			use: "get-details <id>...", short: "Show package details",
			args: cobra.MinimumNArgs(1),
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, _ string, args []string, res *service.Result) error {
					return svc.GetDetails(ctx, args, res)
				}
			},
		},
		{
			use: "get-files <id>...", short: "List the files of installed packages",
			args: cobra.MinimumNArgs(1),
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, _ string, args []string, res *service.Result) error {
					return svc.GetFiles(ctx, args, res)
				}
			},
		},
		{
			use: "get-update-detail <id>...", short: "Describe pending updates",
			args: cobra.MinimumNArgs(1),
			run: func(bool) queryFunc {
				return func(ctx context.Context, svc *service.Service, _ string, args []string, res *service.Result) error {
					return svc.GetUpdateDetail(ctx, args, res)
				}
			},
		},
	}

	cmds := make([]*cobra.Command, 0, len(specs))
	for _, spec := range specs {
		cmds = append(cmds, a.queryCmd(spec))
	}
	return cmds
}

func (a *app) queryCmd(spec querySpec) *cobra.Command {
	var filters string
	var recursive bool

	c := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  spec.args,
		RunE: func(c *cobra.Command, args []string) error {
			return a.runQuery(c, filters, args, spec.run(recursive))
		},
	}
	if spec.filter {
		c.Flags().StringVarP(&filters, "filter", "f", "none", "';' separated filter list")
	}
	if spec.recurse {
		c.Flags().BoolVarP(&recursive, "recursive", "r", false, "Follow dependencies transitively")
	}
	return c
}

// runQuery opens the database read-only, runs fn and prints what it
// collected. Output gathered before a fatal error is still printed.
func (a *app) runQuery(c *cobra.Command, filters string, args []string, fn queryFunc) error {
	svc, err := a.openService(true)
	if err != nil {
		return err
	}
	defer svc.Close()

	res := service.NewResult()
	qerr := fn(commandContext(c), svc, filters, args, res)
	if err := a.printResult(c.OutOrStdout(), res); err != nil {
		return err
	}
	return qerr
}
