package types

import (
	"time"
)

type (
	ArtifactKind string

	ArtifactRef struct {
		Kind ArtifactKind `json:"kind"`
		Name string       `json:"name"`
	}

	// Artifact is a completed snapshot on disk. Size is in bytes for both kinds,
	// FileCount is only set for uploads trees.
	Artifact struct {
		Kind       ArtifactKind `json:"kind"`
		Name       string       `json:"name"`
		Path       string       `json:"-"`
		CreatedAt  time.Time    `json:"created_at"`
		Size       int64        `json:"size"`
		FileCount  int          `json:"file_count,omitempty"`
		SafetyCopy bool         `json:"safety_copy"`
	}

	Selection struct {
		Database bool `json:"database"`
		Uploads  bool `json:"uploads"`
	}

	BackupOutcome struct {
		DatabaseOK    bool      `json:"database_ok"`
		UploadsOK     bool      `json:"uploads_ok"`
		Database      *Artifact `json:"database,omitempty"`
		Uploads       *Artifact `json:"uploads,omitempty"`
		DatabaseError string    `json:"database_error,omitempty"`
		UploadsError  string    `json:"uploads_error,omitempty"`
	}

	DeletionFailure struct {
		Artifact ArtifactRef `json:"artifact"`
		Error    string      `json:"error"`
	}

	CleanupReport struct {
		KeepDays int               `json:"keep_days"`
		Scanned  int               `json:"scanned"`
		Deleted  []ArtifactRef     `json:"deleted"`
		Failures []DeletionFailure `json:"failures"`
	}

	RestoreResult struct {
		Artifact       ArtifactRef  `json:"artifact"`
		SafetyCopy     *ArtifactRef `json:"safety_copy,omitempty"`
		SafetyCopyPath string       `json:"safety_copy_path,omitempty"`
	}

	ScheduleSettings struct {
		IntervalHours int `json:"interval_hours"`
		KeepDays      int `json:"keep_days"`
	}

	ScheduleStatus struct {
		State         string     `json:"state"`
		IntervalHours int        `json:"interval_hours"`
		KeepDays      int        `json:"keep_days"`
		NextRun       *time.Time `json:"next_run,omitempty"`
	}

	DiskUsage struct {
		Path        string  `json:"path"`
		Total       uint64  `json:"total"`
		Free        uint64  `json:"free"`
		Used        uint64  `json:"used"`
		UsedPercent float64 `json:"used_percent"`
	}

	BackupListing struct {
		Artifacts []*Artifact    `json:"artifacts"`
		Usage     *DiskUsage     `json:"usage,omitempty"`
		Schedule  ScheduleStatus `json:"schedule"`
	}

	// Outcome is what every actuation operation reports back to its caller.
	Outcome struct {
		Success bool        `json:"success"`
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Detail  string      `json:"detail,omitempty"`
		Data    interface{} `json:"data,omitempty"`
	}
)

const (
	ArtifactKindDatabase ArtifactKind = "database"
	ArtifactKindUploads  ArtifactKind = "uploads"
)

func (k ArtifactKind) String() string {
	return string(k)
}

func (k ArtifactKind) Valid() bool {
	return k == ArtifactKindDatabase || k == ArtifactKindUploads
}

func (a Artifact) Ref() ArtifactRef {
	return ArtifactRef{Kind: a.Kind, Name: a.Name}
}

func (s Selection) Any() bool {
	return s.Database || s.Uploads
}

// Failed reports whether every selected half of the run failed.
func (o BackupOutcome) Failed(sel Selection) bool {
	return (!sel.Database || !o.DatabaseOK) && (!sel.Uploads || !o.UploadsOK)
}
