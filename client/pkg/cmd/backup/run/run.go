package run

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/spf13/cobra"
	"time"
)

func NewRunBackupCmd(svc api.Service) *cobra.Command {
	var database, uploads bool
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run a backup now",
		Long:    "Back up the database, the uploads or both. Without flags both are backed up.",
		Example: "medctl backup run --database",
		Run: func(cmd *cobra.Command, args []string) {
			sel := types.Selection{Database: database, Uploads: uploads}
			if !sel.Any() {
				sel = types.Selection{Database: true, Uploads: true}
			}

			cmdutil.StartLoading("Backing up...")
			ctx, cancel := cmdutil.Context(2 * time.Hour)
			defer cancel()

			message, outcome, err := svc.RunBackup(ctx, sel)
			cmdutil.StopLoading()
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			cmdutil.PrintS(message)
			if outcome.Database != nil {
				cmdutil.Print("database: " + outcome.Database.Name + " (" + misc.HumanSize(outcome.Database.Size) + ")")
			}
			if outcome.Uploads != nil {
				cmdutil.Print("uploads:  " + outcome.Uploads.Name + " (" + misc.HumanSize(outcome.Uploads.Size) + ")")
			}
		},
	}

	cmd.Flags().BoolVarP(&database, "database", "d", false, "Back up the database")
	cmd.Flags().BoolVarP(&uploads, "uploads", "u", false, "Back up the uploads folder")
	return cmd
}
