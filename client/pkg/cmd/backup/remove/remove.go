package remove

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/misc"
	"github.com/spf13/cobra"
	"time"
)

func NewDeleteBackupCmd(svc api.Service) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <kind> <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a backup",
		Example: "medctl backup delete uploads uploads_backup_20250301_093000",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ref, err := misc.ParseArtifactRef(args[0], args[1])
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			if !yes && !cmdutil.Confirm("Delete "+ref.Name) {
				return
			}

			ctx, cancel := cmdutil.Context(5 * time.Minute)
			defer cancel()

			message, err := svc.DeleteBackup(ctx, ref)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}
			cmdutil.PrintS(message)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
