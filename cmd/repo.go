package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"go-pkresolve/service"
)

func (a *app) repoCmd() *cobra.Command {
	repoCmd := &cobra.Command{
		Use:   "repo",
		Short: "List and toggle repositories",
	}

	var filters string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List repositories",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			return a.runQuery(c, filters, nil, func(ctx context.Context, svc *service.Service, f string, _ []string, res *service.Result) error {
				return svc.GetRepoList(ctx, f, res)
			})
		},
	}
	listCmd.Flags().StringVarP(&filters, "filter", "f", "none", "';' separated filter list; devel lists every repository")

	repoCmd.AddCommand(listCmd, a.repoToggleCmd("enable", true), a.repoToggleCmd("disable", false))
	return repoCmd
}

func (a *app) repoToggleCmd(verb string, enable bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <repo>",
		Short: "Mark a repository " + verb + "d",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return a.withWriter(func(svc *service.Service) error {
				res := service.NewResult()
				if err := svc.RepoEnable(commandContext(c), args[0], enable, res); err != nil {
					return err
				}
				if a.format != FormatText {
					return a.printResult(c.OutOrStdout(), res)
				}
				fmt.Fprintf(c.OutOrStdout(), "✓ Repository %s %sd\n", args[0], verb)
				return nil
			})
		},
	}
}
