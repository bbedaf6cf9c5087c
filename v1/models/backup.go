package models

import "time"

// BackupJob is a queued database backup request. Jobs are written to the
// database and drained by the background worker, so a crash between
// enqueue and upload leaves a visible pending row instead of losing the
// backup silently.
type BackupJob struct {
	ID          uint       `gorm:"primarykey" json:"-"`
	JobID       string     `gorm:"column:job_id;size:50;not null;uniqueIndex" json:"jobId"`
	Status      BackupJobStatus `gorm:"column:status;size:20;not null;default:pending" json:"status"`
	TriggeredBy string     `gorm:"column:triggered_by;size:120;not null" json:"triggeredBy"`
	RetryCount  int        `gorm:"column:retry_count;not null;default:0" json:"retryCount"`
	MaxRetries  int        `gorm:"column:max_retries;not null;default:3" json:"maxRetries"`
	Error       *string    `gorm:"column:error" json:"error,omitempty"`
	ArchivePath *string    `gorm:"column:archive_path;size:500" json:"archivePath,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"createdAt"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processedAt,omitempty"`
}

// TableName sets the table name for GORM
func (BackupJob) TableName() string {
	return "backup_jobs"
}

// CanRetry reports whether a failed attempt should be re-queued
func (j *BackupJob) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}
