package configcmd

import (
	initcmd "github.com/prhdev222/med-file-case/client/pkg/cmd/config/init"
	"github.com/spf13/cobra"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config <command>",
		Aliases: []string{"c"},
		Short:   "Manage medctl client configuration",
	}

	cmd.AddCommand(initcmd.NewConfigInitCmd())
	return cmd
}
