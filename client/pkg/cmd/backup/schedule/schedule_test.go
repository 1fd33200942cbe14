package schedule

import (
	"github.com/prhdev222/med-file-case/client/internal/api"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		interval int
		keepDays int
		wantErr  bool
	}{
		{name: "bounds", interval: 1, keepDays: 365},
		{name: "week", interval: 168, keepDays: 1},
		{name: "zero interval", interval: 0, keepDays: 30, wantErr: true},
		{name: "too long", interval: 169, keepDays: 30, wantErr: true},
		{name: "zero keep days", interval: 24, keepDays: 0, wantErr: true},
		{name: "more than a year", interval: 24, keepDays: 366, wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := validate(test.interval, test.keepDays)
			assert.Equal(t, test.wantErr, err != nil)
		})
	}
}

func TestDescribe(t *testing.T) {
	got := describe(api.ScheduleStatus{State: "stopped", IntervalHours: 78, KeepDays: 30})
	assert.Equal(t, "stopped: every 78 hours, keeping 30 days", got)
}
