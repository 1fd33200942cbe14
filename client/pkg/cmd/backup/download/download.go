package download

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/spf13/cobra"
	"io"
	"os"
	"time"
)

func NewDownloadBackupCmd(svc api.Service) *cobra.Command {
	var location string
	cmd := &cobra.Command{
		Use:     "download <kind> <name>",
		Short:   "Download a backup",
		Long:    "Download a backup. Database backups are saved as the sqlite file, uploads backups as a tar.gz archive. To see the list of backups, use 'medctl backup list'",
		Example: "medctl backup download database hospital_db_backup_20250301_093000.db --location ./hospital.db",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ref, err := misc.ParseArtifactRef(args[0], args[1])
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.StartLoading("Downloading backup...")
			defer cmdutil.StopLoading()

			ctx, cancel := cmdutil.Context(6 * time.Hour)
			defer cancel()

			backup, err := svc.DownloadBackup(ctx, ref)
			if err != nil {
				cmdutil.PrintE("Error downloading backup: " + err.Error())
				return
			}

			defer func() {
				_ = backup.Content.Close()
			}()

			if location == "" {
				location = backup.FileName
			}
			if location == "" {
				location = ref.Name
			}

			backupFile, err := os.Create(location)
			if err != nil {
				cmdutil.PrintE("Error creating file: " + err.Error())
				return
			}

			defer func() {
				_ = backupFile.Close()
			}()

			n, err := io.Copy(backupFile, backup.Content)
			if err != nil {
				cmdutil.PrintE("Error writing to file: " + err.Error())
				return
			}

			cmdutil.PrintS("Backup downloaded successfully: " + location + " (" + misc.HumanSize(n) + ")")
		},
	}

	cmd.Flags().StringVarP(&location, "location", "o", "", "Where to write the backup file")
	return cmd
}
