package service

import (
	"context"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/prhdev222/med-file-case/internal/backup"
	"github.com/prhdev222/med-file-case/internal/config"
	"github.com/prhdev222/med-file-case/internal/eventbus"
	"github.com/prhdev222/med-file-case/internal/storage"
	"github.com/prhdev222/med-file-case/internal/types"
	"github.com/prhdev222/med-file-case/logger"
	"go.uber.org/zap"
	"strings"
	"sync"
	"time"
)

// EventsTopic is the event bus topic every backup operation reports to.
const EventsTopic = "backups"

const (
	CodeOK             = "ok"
	CodePartialFailure = "partial_failure"
	CodeBackupFailed   = "backup_failed"
	CodePersistFailure = "persist_failure"
	CodeInternal       = "internal_error"

	offsiteTimeout = 10 * time.Minute
)

var selectAll = types.Selection{Database: true, Uploads: true}

type (
	BackupService interface {
		Run(ctx context.Context) error
		Stop()
		TriggerBackup(ctx context.Context, sel types.Selection) types.Outcome
		ListBackups(ctx context.Context) types.Outcome
		Download(ctx context.Context, kind types.ArtifactKind, name string) (*types.File, types.Outcome)
		RestoreBackup(ctx context.Context, kind types.ArtifactKind, name string) types.Outcome
		DeleteBackup(ctx context.Context, kind types.ArtifactKind, name string) types.Outcome
		UpdateScheduleSettings(ctx context.Context, intervalHours, keepDays int) types.Outcome
		ScheduleStatus() types.Outcome
	}

	// Params wires the backup engines into the service. Offsite is optional.
	Params struct {
		Config    *config.Holder
		Store     config.Store
		Snapshots backup.Snapshotter
		Retention backup.Retention
		Restorer  backup.Restorer
		Catalog   backup.Catalog
		Offsite   storage.Storage
		Events    eventbus.Bus
		Clock     clockwork.Clock
	}

	backupService struct {
		config    *config.Holder
		store     config.Store
		snapshots backup.Snapshotter
		retention backup.Retention
		restorer  backup.Restorer
		catalog   backup.Catalog
		offsite   storage.Storage
		events    eventbus.Bus
		scheduler backup.Scheduler

		// serializes schedule changes so persisted and live settings agree
		settingsLock sync.Mutex
	}
)

func NewBackupService(p Params) BackupService {
	b := &backupService{
		config:    p.Config,
		store:     p.Store,
		snapshots: p.Snapshots,
		retention: p.Retention,
		restorer:  p.Restorer,
		catalog:   p.Catalog,
		offsite:   p.Offsite,
		events:    p.Events,
	}
	if b.events == nil {
		b.events = eventbus.New()
	}
	b.scheduler = backup.NewScheduler(b.scheduledRun, p.Clock)
	return b
}

// Run sweeps expired artifacts once and starts the backup schedule.
func (b *backupService) Run(ctx context.Context) error {
	cfg := b.config.Get()
	if _, err := b.cleanup(ctx, cfg.KeepDays); err != nil {
		logger.Error("initial retention sweep failed", zap.Error(err))
	}

	if b.offsite != nil {
		if err := b.offsite.Ping(ctx); err != nil {
			logger.Warn("offsite storage is not reachable",
				zap.String("type", b.offsite.Type().String()),
				zap.Error(err))
		}
	}

	if err := b.scheduler.Start(cfg.Interval()); err != nil {
		return errors.Wrap(err, "failed to start backup schedule")
	}
	next, _ := b.scheduler.NextRun()
	logger.Info("backup schedule started",
		zap.Int("interval_hours", cfg.IntervalHours),
		zap.Int("keep_days", cfg.KeepDays),
		zap.Time("next_run", next))
	return nil
}

func (b *backupService) Stop() {
	b.scheduler.Stop()
	logger.Info("backup schedule stopped")
}

func (b *backupService) TriggerBackup(ctx context.Context, sel types.Selection) types.Outcome {
	cfg := b.config.Get()
	if !sel.Any() {
		return b.failure(cfg, string(backup.KindInvalidArgument), msgNothingSelected, nil)
	}

	// a started snapshot runs to completion even if the caller goes away
	ctx = context.WithoutCancel(ctx)
	b.events.BroadcastWithData(EventsTopic, eventbus.Info, "backup started", sel)
	outcome := b.backup(ctx, sel)

	switch {
	case outcome.Failed(sel):
		result := b.failure(cfg, CodeBackupFailed, msgBackupFailed, outcomeError(outcome))
		result.Data = outcome
		return result
	case (sel.Database && !outcome.DatabaseOK) || (sel.Uploads && !outcome.UploadsOK):
		result := b.failure(cfg, CodePartialFailure, msgBackupPartial, outcomeError(outcome))
		result.Data = outcome
		return result
	}
	return b.success(cfg, msgBackupCompleted, outcome)
}

func (b *backupService) ListBackups(ctx context.Context) types.Outcome {
	cfg := b.config.Get()
	artifacts, err := b.catalog.List(ctx)
	if err != nil {
		return b.failure(cfg, codeOf(err), msgError, err)
	}

	usage, err := b.catalog.Usage(ctx)
	if err != nil {
		logger.Warn("failed to read backup volume usage", zap.Error(err))
	}

	return b.success(cfg, msgListed, types.BackupListing{
		Artifacts: artifacts,
		Usage:     usage,
		Schedule:  b.status(cfg),
	})
}

// Download returns a stream of the artifact the caller must close.
func (b *backupService) Download(ctx context.Context, kind types.ArtifactKind, name string) (*types.File, types.Outcome) {
	cfg := b.config.Get()
	file, err := b.catalog.Open(ctx, kind, name)
	if err != nil {
		return nil, b.failure(cfg, codeOf(err), lookupMessage(err), err)
	}
	return file, b.success(cfg, msgDownloadReady, nil)
}

func (b *backupService) RestoreBackup(ctx context.Context, kind types.ArtifactKind, name string) types.Outcome {
	cfg := b.config.Get()
	ref := types.ArtifactRef{Kind: kind, Name: name}
	ctx = context.WithoutCancel(ctx)
	b.events.BroadcastWithData(EventsTopic, eventbus.Info, "restore started", ref)

	var (
		result types.RestoreResult
		err    error
	)
	switch kind {
	case types.ArtifactKindDatabase:
		result, err = b.restorer.RestoreDatabase(ctx, name)
	case types.ArtifactKindUploads:
		result, err = b.restorer.RestoreUploads(ctx, name)
	default:
		err = errors.Errorf("unknown artifact kind %q", kind)
		return b.failure(cfg, string(backup.KindInvalidArgument), msgInvalidRequest, err)
	}

	if err != nil {
		var outcome types.Outcome
		switch backup.KindOf(err) {
		case backup.KindRestorePrecondition:
			outcome = b.failure(cfg, codeOf(err), msgRestoreRejected, err)
		case backup.KindSafetyCopyFailure:
			outcome = b.failure(cfg, codeOf(err), msgSafetyCopyFailed, err)
		case backup.KindPostCopyFailure:
			outcome = b.failure(cfg, codeOf(err), msgRestoreFailed, err, backup.SafetyCopyOf(err))
		default:
			outcome = b.failure(cfg, codeOf(err), msgRestoreFailedNoCopy, err)
		}
		b.events.BroadcastWithData(EventsTopic, eventbus.Error, outcome.Message, ref)
		return outcome
	}

	logger.Info("restore completed",
		zap.String("kind", kind.String()),
		zap.String("artifact", name),
		zap.String("safety_copy", result.SafetyCopyPath))
	b.events.BroadcastWithData(EventsTopic, eventbus.Success, "restore completed", result)
	return b.success(cfg, msgRestoreCompleted, result)
}

func (b *backupService) DeleteBackup(ctx context.Context, kind types.ArtifactKind, name string) types.Outcome {
	cfg := b.config.Get()
	ref := types.ArtifactRef{Kind: kind, Name: name}
	if err := b.catalog.Delete(ctx, kind, name); err != nil {
		key := msgDeleteFailed
		if k := backup.KindOf(err); k == backup.KindNotFound || k == backup.KindInvalidArgument {
			key = lookupMessage(err)
		}
		return b.failure(cfg, codeOf(err), key, err)
	}
	b.events.BroadcastWithData(EventsTopic, eventbus.Success, "backup deleted", ref)
	return b.success(cfg, msgDeleted, ref)
}

// UpdateScheduleSettings validates, persists and applies a new schedule.
// The running configuration is only replaced once the settings were saved.
func (b *backupService) UpdateScheduleSettings(ctx context.Context, intervalHours, keepDays int) types.Outcome {
	b.settingsLock.Lock()
	defer b.settingsLock.Unlock()

	current := b.config.Get()
	next := current.WithSchedule(intervalHours, keepDays)
	if err := next.Validate(); err != nil {
		return b.failure(current, string(backup.KindInvalidArgument), msgSettingsInvalid, err)
	}

	if err := b.store.SaveSchedule(intervalHours, keepDays); err != nil {
		logger.Error("failed to persist backup schedule", zap.Error(err))
		return b.failure(current, CodePersistFailure, msgSettingsFailed, err)
	}

	b.config.Set(next)
	if err := b.scheduler.Restart(next.Interval()); err != nil {
		return b.failure(next, codeOf(err), msgSettingsFailed, err)
	}

	status := b.status(next)
	logger.Info("backup schedule updated",
		zap.Int("interval_hours", intervalHours),
		zap.Int("keep_days", keepDays))
	b.events.BroadcastWithData(EventsTopic, eventbus.Success, "backup schedule updated", status)
	return b.success(next, msgSettingsUpdated, status)
}

func (b *backupService) ScheduleStatus() types.Outcome {
	cfg := b.config.Get()
	return b.success(cfg, msgScheduleStatus, b.status(cfg))
}

// scheduledRun is the scheduler's task: back up everything, then apply the
// retention window in effect at the time of the run.
func (b *backupService) scheduledRun(ctx context.Context) error {
	b.events.Broadcast(EventsTopic, eventbus.Info, "scheduled backup started")
	outcome := b.backup(ctx, selectAll)

	keepDays := b.config.Get().KeepDays
	if _, err := b.cleanup(ctx, keepDays); err != nil {
		logger.Error("retention sweep failed", zap.Error(err))
	}
	b.events.Broadcast(EventsTopic, eventbus.Complete, "scheduled run finished")

	if outcome.Failed(selectAll) {
		return outcomeError(outcome)
	}
	return nil
}

func (b *backupService) backup(ctx context.Context, sel types.Selection) types.BackupOutcome {
	outcome := b.snapshots.Run(ctx, sel)

	if outcome.DatabaseOK && outcome.Database != nil {
		b.copyOffsite(ctx, outcome.Database)
	}

	evType := eventbus.Success
	if (sel.Database && !outcome.DatabaseOK) || (sel.Uploads && !outcome.UploadsOK) {
		evType = eventbus.Error
	}
	b.events.BroadcastWithData(EventsTopic, evType, "backup finished", outcome)
	return outcome
}

func (b *backupService) cleanup(ctx context.Context, keepDays int) (types.CleanupReport, error) {
	report, err := b.retention.Cleanup(ctx, keepDays)
	if err != nil {
		return report, err
	}
	if len(report.Deleted) > 0 || len(report.Failures) > 0 {
		b.events.BroadcastWithData(EventsTopic, eventbus.Info, "old backups removed", report)
	}
	return report, nil
}

// copyOffsite uploads a database artifact to object storage. Failures are
// logged only; the local artifact is what the outcome reports on.
func (b *backupService) copyOffsite(ctx context.Context, artifact *types.Artifact) {
	if b.offsite == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, offsiteTimeout)
	defer cancel()

	file, err := b.catalog.Open(ctx, artifact.Kind, artifact.Name)
	if err != nil {
		logger.Error("failed to open artifact for offsite copy",
			zap.String("artifact", artifact.Name),
			zap.Error(err))
		return
	}
	defer file.Content.Close()

	location := storage.Location(artifact.Kind, artifact.Name)
	if err := b.offsite.Save(ctx, location, *file); err != nil {
		logger.Error("offsite copy failed",
			zap.String("type", b.offsite.Type().String()),
			zap.String("location", location),
			zap.Error(err))
		return
	}
	logger.Info("offsite copy saved",
		zap.String("type", b.offsite.Type().String()),
		zap.String("location", location))
}

func (b *backupService) status(cfg config.BackupConfiguration) types.ScheduleStatus {
	status := types.ScheduleStatus{
		State:         string(b.scheduler.State()),
		IntervalHours: cfg.IntervalHours,
		KeepDays:      cfg.KeepDays,
	}
	if next, ok := b.scheduler.NextRun(); ok {
		status.NextRun = &next
	}
	return status
}

func (b *backupService) success(cfg config.BackupConfiguration, key messageKey, data interface{}) types.Outcome {
	return types.Outcome{
		Success: true,
		Code:    CodeOK,
		Message: message(cfg.Locale, key),
		Data:    data,
	}
}

// failure builds a failed outcome. The underlying error is only exposed when
// diagnostics are switched on.
func (b *backupService) failure(cfg config.BackupConfiguration, code string, key messageKey, err error, args ...interface{}) types.Outcome {
	outcome := types.Outcome{
		Code:    code,
		Message: message(cfg.Locale, key, args...),
	}
	if cfg.Diagnostics && err != nil {
		outcome.Detail = err.Error()
	}
	return outcome
}

func codeOf(err error) string {
	if kind := backup.KindOf(err); kind != "" {
		return string(kind)
	}
	return CodeInternal
}

func lookupMessage(err error) messageKey {
	switch backup.KindOf(err) {
	case backup.KindNotFound:
		return msgNotFound
	case backup.KindInvalidArgument:
		return msgInvalidRequest
	}
	return msgError
}

func outcomeError(o types.BackupOutcome) error {
	var parts []string
	if o.DatabaseError != "" {
		parts = append(parts, "database: "+o.DatabaseError)
	}
	if o.UploadsError != "" {
		parts = append(parts, "uploads: "+o.UploadsError)
	}
	if len(parts) == 0 {
		return nil
	}
	return errors.New(strings.Join(parts, "; "))
}
