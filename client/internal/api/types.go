package api

import (
	"github.com/prhdev222/med-file-case/internal/eventbus"
	"github.com/prhdev222/med-file-case/internal/types"
)

type (
	// Error is a failed request the server answered with an error envelope.
	Error struct {
		Status int
		Code   string
		err    error
	}

	Event = eventbus.Event

	BackupOutcome  = types.BackupOutcome
	BackupListing  = types.BackupListing
	RestoreResult  = types.RestoreResult
	ScheduleStatus = types.ScheduleStatus
)

func (e *Error) Error() string {
	return e.err.Error()
}
