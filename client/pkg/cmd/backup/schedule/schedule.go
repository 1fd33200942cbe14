package schedule

import (
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/prhdev222/med-file-case/client/internal/cmdutil"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/spf13/cobra"
	"time"
)

const (
	maxIntervalHours = 168
	maxKeepDays      = 365
)

func NewScheduleCmd(svc api.Service) *cobra.Command {
	var interval, keepDays int
	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Show or change the backup schedule",
		Long:    "Without flags the current schedule is shown. With --interval and --keep-days the schedule is changed and restarted.",
		Example: "medctl backup schedule --interval 24 --keep-days 30",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := cmdutil.Context(30 * time.Second)
			defer cancel()

			if !cmd.Flags().Changed("interval") && !cmd.Flags().Changed("keep-days") {
				status, err := svc.ScheduleStatus(ctx)
				if err != nil {
					cmdutil.PrintE(err.Error())
					return
				}
				cmdutil.Print(describe(status))
				return
			}

			if err := validate(interval, keepDays); err != nil {
				cmdutil.PrintE(err.Error())
				return
			}

			message, status, err := svc.UpdateSchedule(ctx, types.ScheduleSettings{IntervalHours: interval, KeepDays: keepDays})
			if err != nil {
				cmdutil.PrintE(err.Error())
				return
			}
			cmdutil.PrintS(message)
			cmdutil.Print(describe(status))
		},
	}

	cmd.Flags().IntVarP(&interval, "interval", "i", 24, "Hours between scheduled backups (1-168)")
	cmd.Flags().IntVarP(&keepDays, "keep-days", "k", 30, "Days to keep backups (1-365)")
	return cmd
}

func validate(interval, keepDays int) error {
	if interval < 1 || interval > maxIntervalHours {
		return fmt.Errorf("interval must be between 1 and %d hours", maxIntervalHours)
	}
	if keepDays < 1 || keepDays > maxKeepDays {
		return fmt.Errorf("keep days must be between 1 and %d", maxKeepDays)
	}
	return nil
}

func describe(s api.ScheduleStatus) string {
	line := fmt.Sprintf("%s: every %d hours, keeping %d days", s.State, s.IntervalHours, s.KeepDays)
	if s.NextRun != nil {
		line += fmt.Sprintf(", next run %s (%s)", s.NextRun.Local().Format(time.RFC1123), humanize.Time(*s.NextRun))
	}
	return line
}
