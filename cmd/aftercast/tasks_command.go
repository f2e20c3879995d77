package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newTasksCommand(client *apiClient) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Inspect and control queue tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := client.tasks()
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no tasks queued")
				return nil
			}
			rows := make([][]string, 0, len(tasks))
			for _, t := range tasks {
				progress := fmt.Sprintf("%.1f%%", t.Progress)
				if t.Annotation != "" {
					progress += "  " + t.Annotation
				}
				rows = append(rows, []string{
					shortID(t.ID), string(t.Kind), t.Name, string(t.Status), progress,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{header: "ID"},
					{header: "TYPE"},
					{header: "NAME"},
					{header: "STATUS"},
					{header: "PROGRESS", right: true},
				},
				rows,
			))
			return nil
		},
	}

	tasksCmd.AddCommand(&cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := client.task(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", snap.ID)
			fmt.Fprintf(out, "Type:     %s\n", snap.Kind)
			fmt.Fprintf(out, "Name:     %s\n", snap.Name)
			fmt.Fprintf(out, "Status:   %s\n", snap.Status)
			fmt.Fprintf(out, "Progress: %.1f%%\n", snap.Progress)
			if snap.Annotation != "" {
				fmt.Fprintf(out, "Detail:   %s\n", snap.Annotation)
			}
			if snap.Output != "" {
				fmt.Fprintf(out, "Output:   %s\n", snap.Output)
			}
			if snap.RelatedID != "" {
				fmt.Fprintf(out, "Related:  %s\n", snap.RelatedID)
			}
			if len(snap.Actions) > 0 {
				actions := make([]string, 0, len(snap.Actions))
				for _, a := range snap.Actions {
					actions = append(actions, string(a))
				}
				fmt.Fprintf(out, "Actions:  %s\n", strings.Join(actions, ", "))
			}
			return nil
		},
	})

	for _, action := range []string{"start", "pause", "resume", "kill"} {
		action := action
		tasksCmd.AddCommand(&cobra.Command{
			Use:   action + " <task-id>",
			Short: capitalize(action) + " a task",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				applied, err := client.taskAction(args[0], action)
				if err != nil {
					return err
				}
				if !applied {
					fmt.Fprintf(cmd.OutOrStdout(), "%s not applied: task status does not permit it\n", action)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s applied\n", action)
				return nil
			},
		})
	}

	tasksCmd.AddCommand(&cobra.Command{
		Use:   "remove <task-id>",
		Short: "Remove a task from the queue (kill it first if still running)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.removeTask(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return nil
		},
	})

	return tasksCmd
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
