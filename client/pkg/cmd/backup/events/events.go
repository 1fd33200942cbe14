package events

import (
	"context"
	"fmt"
	"github.com/fatih/color"
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/eventbus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"time"
)

func NewWatchCmd(svc api.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow backup activity",
		Long:  "Print backup, restore and cleanup events from the server as they happen. Stop with Ctrl-C.",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			ch, err := svc.Events(ctx)
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			for ev := range ch {
				cmdutil.Print(format(ev))
			}
		},
	}
}

func format(ev api.Event) string {
	at := ev.Time
	if at.IsZero() {
		at = time.Now()
	}

	msg := ev.Message
	switch ev.Type {
	case eventbus.Error:
		msg = color.RedString(msg)
	case eventbus.Success:
		msg = color.GreenString(msg)
	case eventbus.Complete:
		msg = color.New(color.Bold).Sprint(msg)
	}

	line := fmt.Sprintf("%s  %s", at.Local().Format("15:04:05"), msg)
	if len(ev.Data) > 0 {
		line += "  " + string(ev.Data)
	}
	return line
}
