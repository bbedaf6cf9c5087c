package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jmurillo/asociacion-backend/shared/utils"
	v1 "github.com/jmurillo/asociacion-backend/v1"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"gorm.io/gorm"
)

// Backupper produces a backup archive for one storage backend and
// returns the path of the file it wrote.
type Backupper interface {
	Backup(ctx context.Context, destDir string) (string, error)
}

// SQLiteBackupper copies the live database file. A WAL checkpoint runs
// first so the copy contains every committed write.
type SQLiteBackupper struct {
	db           *gorm.DB
	path         string
	maxIdleConns int
}

// NewSQLiteBackupper creates a backupper for the SQLite file at path.
// maxIdleConns is the pool's configured idle size, restored after a
// restore quiesces the pool.
func NewSQLiteBackupper(db *gorm.DB, path string, maxIdleConns int) *SQLiteBackupper {
	return &SQLiteBackupper{db: db, path: path, maxIdleConns: maxIdleConns}
}

// Backup checkpoints the WAL and copies the database file into destDir
func (b *SQLiteBackupper) Backup(ctx context.Context, destDir string) (string, error) {
	if err := b.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(FULL)").Error; err != nil {
		return "", fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	src, err := os.Open(b.path)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("backup_%s.db", time.Now().Format("20060102_150405")))
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to copy database file: %w", err)
	}
	return destPath, nil
}

// Restore replaces the live database file with the uploaded one. The
// WAL is checkpointed and truncated first so no stale frames survive
// the swap.
func (b *SQLiteBackupper) Restore(ctx context.Context, srcPath string) error {
	if err := b.db.WithContext(ctx).Exec("PRAGMA wal_checkpoint(TRUNCATE)").Error; err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access connection pool: %w", err)
	}
	// Drop the pooled handles so no connection carries pages from the
	// old file across the swap; connections opened afterwards read the
	// restored file.
	sqlDB.SetMaxIdleConns(0)
	defer sqlDB.SetMaxIdleConns(b.maxIdleConns)

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dest, err := os.Create(b.path)
	if err != nil {
		return fmt.Errorf("failed to open database file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to restore database file: %w", err)
	}
	slog.Info("Database restored", "source", srcPath)
	return nil
}

// PostgresBackupper shells out to pg_dump
type PostgresBackupper struct {
	config *v1.DatabaseConfig
}

// NewPostgresBackupper creates a backupper for the configured Postgres database
func NewPostgresBackupper(config *v1.DatabaseConfig) *PostgresBackupper {
	return &PostgresBackupper{config: config}
}

// Backup writes a pg_dump archive into destDir
func (b *PostgresBackupper) Backup(ctx context.Context, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	destPath := filepath.Join(destDir, fmt.Sprintf("backup_%s.sql", time.Now().Format("20060102_150405")))

	cmd := exec.CommandContext(ctx, "pg_dump",
		"--host", b.config.Host,
		"--port", b.config.Port,
		"--username", b.config.Username,
		"--dbname", b.config.Database,
		"--file", destPath,
	)
	cmd.Env = append(os.Environ(), "PGPASSWORD="+b.config.Password)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("pg_dump failed: %w: %s", err, output)
	}
	return destPath, nil
}

// SFTPConfig holds the offsite upload target. An empty host disables
// the upload and backups stay local only.
type SFTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Dir      string
}

// NewSFTPConfigFromEnv reads the SFTP target from the environment
func NewSFTPConfigFromEnv() *SFTPConfig {
	return &SFTPConfig{
		Host:     utils.GetEnvOrDefault("SFTP_HOST", ""),
		Port:     utils.GetEnvOrDefault("SFTP_PORT", "22"),
		Username: utils.GetEnvOrDefault("SFTP_USER", ""),
		Password: utils.GetEnvOrDefault("SFTP_PASSWORD", ""),
		Dir:      utils.GetEnvOrDefault("SFTP_DIR", "backups"),
	}
}

// Enabled reports whether an upload target is configured
func (c *SFTPConfig) Enabled() bool {
	return c.Host != ""
}

// Upload copies the local file to the configured SFTP directory
func (c *SFTPConfig) Upload(localPath string) error {
	sshConfig := &ssh.ClientConfig{
		User:            c.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(c.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         15 * time.Second,
	}
	conn, err := ssh.Dial("tcp", net.JoinHostPort(c.Host, c.Port), sshConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SFTP host: %w", err)
	}
	defer conn.Close()

	client, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("failed to open SFTP session: %w", err)
	}
	defer client.Close()

	if err := client.MkdirAll(c.Dir); err != nil {
		return fmt.Errorf("failed to create remote directory: %w", err)
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer src.Close()

	remotePath := filepath.ToSlash(filepath.Join(c.Dir, filepath.Base(localPath)))
	dest, err := client.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	slog.Info("Backup uploaded", "remotePath", remotePath, "host", c.Host)
	return nil
}

// BackupService runs a backup through the configured backend and the
// optional SFTP upload.
type BackupService struct {
	backupper Backupper
	sftp      *SFTPConfig
	destDir   string
}

// NewBackupService creates a backup service. destDir defaults to
// BACKUP_DIR or "backups".
func NewBackupService(backupper Backupper, sftpConfig *SFTPConfig) *BackupService {
	return &BackupService{
		backupper: backupper,
		sftp:      sftpConfig,
		destDir:   utils.GetEnvOrDefault("BACKUP_DIR", "backups"),
	}
}

// Run produces one backup archive and uploads it when SFTP is
// configured. Returns the local archive path.
func (s *BackupService) Run(ctx context.Context) (string, error) {
	path, err := s.backupper.Backup(ctx, s.destDir)
	if err != nil {
		return "", err
	}
	if s.sftp != nil && s.sftp.Enabled() {
		if err := s.sftp.Upload(path); err != nil {
			return path, fmt.Errorf("backup written but upload failed: %w", err)
		}
	}
	return path, nil
}

// Restorer is implemented by backends that can load an uploaded backup
// in place of the live database.
type Restorer interface {
	Restore(ctx context.Context, srcPath string) error
}

// Restore loads the uploaded file through the backend, if it supports
// restoring. The Postgres backend does not; dumps are restored with
// psql out of band.
func (s *BackupService) Restore(ctx context.Context, srcPath string) error {
	restorer, ok := s.backupper.(Restorer)
	if !ok {
		return fmt.Errorf("%w: this storage backend does not support in-place restore", ErrValidation)
	}
	return restorer.Restore(ctx, srcPath)
}

// Snapshot produces a backup archive without the SFTP upload, for the
// raw download endpoint.
func (s *BackupService) Snapshot(ctx context.Context) (string, error) {
	return s.backupper.Backup(ctx, s.destDir)
}
