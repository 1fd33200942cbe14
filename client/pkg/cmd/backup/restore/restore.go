package restore

import (
	"fmt"
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/spf13/cobra"
	"time"
)

func NewRestoreBackupCmd(svc api.Service) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "restore <kind> <name>",
		Short:   "Restore a backup",
		Long:    "Replace the live database or uploads folder with a backup. The current data is kept as a pre_restore_backup_ copy first.",
		Example: "medctl backup restore database hospital_db_backup_20250301_093000.db",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ref, err := misc.ParseArtifactRef(args[0], args[1])
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			if !yes && !cmdutil.Confirm(fmt.Sprintf("Replace the live %s with %s", ref.Kind, ref.Name)) {
				cmdutil.Print("Restore cancelled")
				return
			}

			cmdutil.StartLoading("Restoring...")
			ctx, cancel := cmdutil.Context(6 * time.Hour)
			defer cancel()

			message, result, err := svc.RestoreBackup(ctx, ref)
			cmdutil.StopLoading()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS(message)
			if result.SafetyCopy != nil {
				cmdutil.Print("previous data saved as " + result.SafetyCopy.Name)
			}
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
