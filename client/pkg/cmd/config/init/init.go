package initcmd

import (
	"fmt"
	"github.com/fatih/color"
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/client/internal/config"
	"github.com/spf13/cobra"
	"net/url"
	"os"
	"strings"
	"time"
)

func NewConfigInitCmd() *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:     "init",
		Short:   "Set medctl configuration",
		Long:    "Point medctl at a records server. The server is pinged before the configuration is saved.",
		Example: "medctl config init --host http://localhost:3646",
		Run: func(cmd *cobra.Command, args []string) {
			uri, err := url.Parse(host)
			if err != nil || uri.Scheme == "" || uri.Host == "" {
				cmdutil.PrintE("Invalid host: " + host)
				return
			}

			cmdutil.StartLoading("Running test...")
			defer cmdutil.StopLoading()

			ctx, cancel := cmdutil.Context(30 * time.Second)
			defer cancel()

			serverUrl := toURL(uri)
			if err := api.NewService(api.NewClient(serverUrl)).Ping(ctx); err != nil {
				color.Cyan(err.Error())
				return
			}

			if err := config.SaveConfig(config.Config{Host: serverUrl}); err != nil {
				cmdutil.Print(fmt.Sprintf("Failed to save config: %s", color.RedString(err.Error())))
				return
			}

			_, _ = fmt.Fprintln(os.Stdout, fmt.Sprintf("\n%s: Configuration set successfully", color.GreenString("Test passed")))
		},
	}
	cmd.Flags().StringVarP(&host, "host", "i", "", "records server url")
	_ = cmd.MarkFlagRequired("host")
	return cmd
}

func toURL(u *url.URL) string {
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}
