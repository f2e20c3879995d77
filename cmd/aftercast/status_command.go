package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := client.status()
			if err != nil {
				return err
			}
			state := "stopped"
			if status.Running {
				state = "running"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "daemon:   %s\nsessions: %d\ntasks:    %d\n",
				state, status.Sessions, status.Tasks)
			return nil
		},
	}
}

func newSessionsCommand(client *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List tracked recording sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := client.sessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no sessions tracked")
				return nil
			}
			rows := make([][]string, 0, len(sessions))
			for _, s := range sessions {
				archive := "-"
				if s.ArchiveID != 0 {
					archive = fmt.Sprint(s.ArchiveID)
				}
				for i, p := range s.Parts {
					id := ""
					room := ""
					title := ""
					if i == 0 {
						id = shortID(s.ID)
						room = fmt.Sprint(s.RoomID)
						title = s.Title
					}
					rows = append(rows, []string{
						id, room, title, archive,
						filepath.Base(p.FilePath), p.Status, formatTime(p.StartTime), formatTime(p.EndTime),
					})
					archive = ""
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{
					{header: "SESSION"},
					{header: "ROOM", right: true},
					{header: "TITLE"},
					{header: "ARCHIVE", right: true},
					{header: "FILE"},
					{header: "STATUS"},
					{header: "START"},
					{header: "END"},
				},
				rows,
			))
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04:05")
}
