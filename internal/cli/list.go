package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/dashboard-container/internal/docker"
	"github.com/shinji-kodama/dashboard-container/internal/model"
)

// NewListCommand creates the 'list' subcommand.
// It shows all managed dashboard instances, including exited ones.
func NewListCommand() *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List managed dashboard instances",
		Long: `List all dashboard instances managed by this tool.

Instances are discovered from Docker container labels; there is no
state file. Exited instances are listed with the exit code of their
serving process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, statusFilter)
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show instances with this status (not-started, running, exited)")

	return cmd
}

func runList(cmd *cobra.Command, statusFilter string) error {
	ctx := cmd.Context()

	var filter model.AppStatus
	if statusFilter != "" {
		parsed, err := model.ParseAppStatus(statusFilter)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "invalid --status value", err)
		}
		filter = parsed
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	infos, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}

	apps := make([]*model.AppInstance, 0, len(infos))
	for _, info := range infos {
		app, err := docker.BuildAppInstance(info)
		if err != nil {
			// A container with our management label but corrupted metadata
			// still gets listed, so the user can see and remove it.
			fmt.Fprintf(os.Stderr, "Warning: skipping container %q: %v\n", info.ContainerName, err)
			continue
		}

		if app.Status == model.StatusExited {
			_, exitCode, err := docker.InspectState(ctx, cli, info.ContainerID)
			if err == nil {
				app.Container.ExitCode = exitCode
			}
		}

		if filter != "" && app.Status != filter {
			continue
		}
		apps = append(apps, app)
	}

	sort.Slice(apps, func(i, j int) bool {
		return apps[i].Name < apps[j].Name
	})

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(apps, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	writeInstanceTable(cmd.OutOrStdout(), apps)
	return nil
}

// writeInstanceTable renders the human-readable instance table.
// Split out from runList so the formatting is testable without a Docker
// daemon.
func writeInstanceTable(out io.Writer, apps []*model.AppInstance) {
	if len(apps) == 0 {
		fmt.Fprintln(out, "No dashboard instances found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tURL\tIMAGE\tCREATED")
	for _, app := range apps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			app.Name,
			statusCell(app),
			urlCell(app),
			app.Image,
			app.CreatedAt.Local().Format(time.DateTime),
		)
	}
	_ = w.Flush()
}

// statusCell renders the status column, with the serving process's exit
// code for exited instances.
func statusCell(app *model.AppInstance) string {
	if app.Status == model.StatusExited {
		return fmt.Sprintf("%s (%d)", app.Status, app.Container.ExitCode)
	}
	return app.Status.String()
}

// urlCell renders the URL column. Only a running instance is reachable;
// other states show a dash.
func urlCell(app *model.AppInstance) string {
	if app.Status == model.StatusRunning {
		return app.URL()
	}
	return "-"
}
