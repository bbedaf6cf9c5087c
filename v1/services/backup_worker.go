package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmurillo/asociacion-backend/v1/models"
	"gorm.io/gorm"
)

// BackupWorker drains the backup job queue. Jobs are rows in the
// database so an enqueued backup survives a restart.
type BackupWorker struct {
	db           *gorm.DB
	backups      *BackupService
	pollInterval time.Duration
}

// NewBackupWorker creates a new backup worker
func NewBackupWorker(db *gorm.DB, backups *BackupService) *BackupWorker {
	return &BackupWorker{
		db:           db,
		backups:      backups,
		pollInterval: 15 * time.Second,
	}
}

// Enqueue queues a backup job and returns immediately
func (w *BackupWorker) Enqueue(triggeredBy string) (*models.BackupJob, error) {
	job := models.BackupJob{
		JobID:       "bkp_" + uuid.New().String(),
		Status:      models.BackupJobStatusPending,
		TriggeredBy: triggeredBy,
		MaxRetries:  3,
		CreatedAt:   time.Now(),
	}
	if err := w.db.Create(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to enqueue backup job: %w", err)
	}
	slog.Info("Backup job enqueued", "jobID", job.JobID, "triggeredBy", triggeredBy)
	return &job, nil
}

// Status returns a job by its public job ID
func (w *BackupWorker) Status(jobID string) (*models.BackupJob, error) {
	var job models.BackupJob
	err := w.db.Where("job_id = ?", jobID).First(&job).Error
	if err != nil {
		return nil, fmt.Errorf("%w: backup job %s", ErrNotFound, jobID)
	}
	return &job, nil
}

// Start runs the worker loop until ctx is cancelled
func (w *BackupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Backup worker started", "pollInterval", w.pollInterval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Backup worker stopped")
			return
		case <-ticker.C:
			w.processJobs(ctx)
		}
	}
}

func (w *BackupWorker) processJobs(ctx context.Context) {
	var jobs []models.BackupJob
	err := w.db.Where("status = ?", models.BackupJobStatusPending).
		Order("created_at ASC").Limit(5).Find(&jobs).Error
	if err != nil {
		slog.Error("Failed to fetch pending backup jobs", "error", err)
		return
	}

	for i := range jobs {
		w.processJob(ctx, &jobs[i])
	}
}

func (w *BackupWorker) processJob(ctx context.Context, job *models.BackupJob) {
	if err := w.db.Model(job).Update("status", models.BackupJobStatusProcessing).Error; err != nil {
		slog.Error("Failed to claim backup job", "jobID", job.JobID, "error", err)
		return
	}

	path, err := w.backups.Run(ctx)
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at": now,
		"retry_count":  job.RetryCount + 1,
	}

	if err != nil {
		errorMsg := err.Error()
		updates["error"] = &errorMsg
		if job.RetryCount+1 > job.MaxRetries {
			updates["status"] = models.BackupJobStatusFailed
			slog.Error("Backup job failed after max retries", "jobID", job.JobID,
				"retryCount", job.RetryCount+1, "error", err)
		} else {
			updates["status"] = models.BackupJobStatusPending
			slog.Warn("Backup job failed, will retry", "jobID", job.JobID,
				"retryCount", job.RetryCount+1, "error", err)
		}
	} else {
		updates["status"] = models.BackupJobStatusCompleted
		updates["archive_path"] = &path
		updates["error"] = nil
		slog.Info("Backup job completed", "jobID", job.JobID, "archivePath", path)
	}

	if updateErr := w.db.Model(job).Updates(updates).Error; updateErr != nil {
		slog.Error("Failed to update backup job", "jobID", job.JobID, "error", updateErr)
	}
}
