package backup

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/download"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/events"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/list"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/remove"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/restore"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/run"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup/schedule"
	"github.com/spf13/cobra"
)

func NewBackupCmd(svc api.Service) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup <command>",
		Aliases: []string{"bc"},
		Short:   "Manage database and uploads backups",
		Long:    "Run, list, download, restore and delete backups of the records database and uploaded files, and change the backup schedule",
	}

	cmd.AddCommand(run.NewRunBackupCmd(svc))
	cmd.AddCommand(list.NewListBackupsCmd(svc))
	cmd.AddCommand(download.NewDownloadBackupCmd(svc))
	cmd.AddCommand(restore.NewRestoreBackupCmd(svc))
	cmd.AddCommand(remove.NewDeleteBackupCmd(svc))
	cmd.AddCommand(schedule.NewScheduleCmd(svc))
	cmd.AddCommand(events.NewWatchCmd(svc))
	return cmd
}
