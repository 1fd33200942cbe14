package cmd

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/config"
	"github.com/prhdev222/med-file-case/client/pkg/cmd/backup"
	configcmd "github.com/prhdev222/med-file-case/client/pkg/cmd/config"
	"github.com/spf13/cobra"
)

func New() (*cobra.Command, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, err
	}

	svc := api.NewService(api.NewClient(cfg.Host))

	cmd := &cobra.Command{
		Use:          "medctl",
		Short:        "medctl - manage backups of the medical records server",
		SilenceUsage: true,
	}

	cmd.AddCommand(configcmd.NewConfigCmd())
	cmd.AddCommand(backup.NewBackupCmd(svc))
	return cmd, nil
}
