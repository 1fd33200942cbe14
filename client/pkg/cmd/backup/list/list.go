package list

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/spf13/cobra"
	"strconv"
	"time"
)

func NewListBackupsCmd(svc api.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups",
		Long:  "List every database and uploads backup, newest first, with the backup volume usage and schedule",
		Run: func(cmd *cobra.Command, args []string) {
			cmdutil.StartLoading("Working...")
			ctx, cancel := cmdutil.Context(30 * time.Second)
			defer cancel()

			listing, err := svc.ListBackups(ctx)
			cmdutil.StopLoading()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			header := table.Row{"Kind", "Name", "Size", "Files", "Created", "Safety Copy"}
			tw := table.NewWriter()
			tw.AppendHeader(header)
			for _, next := range listing.Artifacts {
				files := ""
				if next.FileCount > 0 {
					files = strconv.Itoa(next.FileCount)
				}
				safety := ""
				if next.SafetyCopy {
					safety = "yes"
				}
				tw.AppendRow(table.Row{
					next.Kind,
					next.Name,
					misc.HumanSize(next.Size),
					files,
					next.CreatedAt.Format("02-01-2006 15:04:05"),
					safety,
				})
			}
			cmdutil.Print("")
			cmdutil.Print(tw.Render())

			if u := listing.Usage; u != nil {
				cmdutil.Print(fmt.Sprintf("\nBackup volume: %s free of %s (%.1f%% used)",
					humanize.IBytes(u.Free), humanize.IBytes(u.Total), u.UsedPercent))
			}

			s := listing.Schedule
			line := fmt.Sprintf("Schedule: %s, every %d hours, keeping %d days", s.State, s.IntervalHours, s.KeepDays)
			if s.NextRun != nil {
				line += ", next run " + humanize.Time(*s.NextRun)
			}
			cmdutil.Print(line)
		},
	}
}
