package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/tasks"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List and run scheduled tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		registry, err := newTaskRegistry(newAPIClient())
		if err != nil {
			return err
		}

		fmt.Println(renderTable([]tableColumn{
			textCol("Key"), textCol("Name"), textCol("Category"), textCol("Enabled"), textCol("Triggers"),
		}, taskRows(registry.List(all))))
		return nil
	},
}

var tasksRunCmd = &cobra.Command{
	Use:   "run <task-key>",
	Short: "Run a task and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := newTaskRegistry(newAPIClient())
		if err != nil {
			return err
		}
		return runTask(registry, args[0])
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync <import|export|sync>",
	Short: "Synchronize user data with Shoko",
	Long: `Synchronize episode watch state with Shoko.

  import  copy the watch state stored in Shoko into the local store
  export  push the local watch state to Shoko
  sync    keep whichever side changed most recently`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"import", "export", "sync"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction, err := tasks.ParseSyncDirection(args[0])
		if err != nil {
			return err
		}

		registry, err := newTaskRegistry(newAPIClient())
		if err != nil {
			return err
		}
		return runTask(registry, taskKeyFor(direction))
	},
}

var syncHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := database.RecentSyncRuns(database.GetDB(), limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No sync runs recorded")
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, run := range runs {
			finished := "-"
			if run.FinishedAt != nil {
				finished = humanize.RelTime(run.StartedAt, *run.FinishedAt, "", "")
			}
			rows = append(rows, []string{
				run.ID[:8],
				run.Direction,
				run.Status,
				humanize.Time(run.StartedAt),
				strings.TrimSpace(finished),
				strconv.Itoa(run.Episodes),
				strconv.Itoa(run.Changed),
				run.Error,
			})
		}
		fmt.Println(renderTable([]tableColumn{
			textCol("Run"), textCol("Direction"), statusCol("Status"), textCol("Started"),
			textCol("Took"), numCol("Episodes"), numCol("Changed"), textCol("Error"),
		}, rows))
		return nil
	},
}

func init() {
	tasksListCmd.Flags().Bool("all", false, "include hidden tasks")
	syncHistoryCmd.Flags().IntP("limit", "n", 10, "number of runs to show")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksRunCmd)
	syncCmd.AddCommand(syncHistoryCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(syncCmd)
}

func taskKeyFor(direction tasks.SyncDirection) string {
	switch direction {
	case tasks.SyncDirectionExport:
		return "ShokoExportUserData"
	case tasks.SyncDirectionSync:
		return "ShokoSyncUserData"
	default:
		return "ShokoImportUserData"
	}
}

func taskRows(list []tasks.Task) [][]string {
	rows := make([][]string, 0, len(list))
	for _, task := range list {
		triggers := "manual"
		if n := len(task.DefaultTriggers()); n > 0 {
			triggers = strconv.Itoa(n)
		}
		rows = append(rows, []string{
			task.Key(),
			task.Name(),
			task.Category(),
			strconv.FormatBool(task.IsEnabled()),
			triggers,
		})
	}
	return rows
}

// runTask runs key until it finishes or the process is interrupted, printing
// progress to stderr
func runTask(registry *tasks.Registry, key string) error {
	task, err := registry.Get(key)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	last := -1
	progress := tasks.ProgressFunc(func(percent float64) {
		if p := int(percent); p != last {
			last = p
			fmt.Fprintf(os.Stderr, "\r%s %3d%%", task.Name(), p)
		}
	})

	err = registry.Run(ctx, key, progress)
	fmt.Fprintln(os.Stderr)

	result, _ := registry.LastResult(key)
	switch {
	case err == nil:
		fmt.Println(okStyle.Render(fmt.Sprintf("%s completed in %s", task.Name(), result.Duration().Round(time.Millisecond))))
		return nil
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		fmt.Println(infoStyle.Render(fmt.Sprintf("%s cancelled", task.Name())))
		return nil
	default:
		return fmt.Errorf("%s failed: %w", task.Name(), err)
	}
}
