package admin

// backup.go runs the export jobs behind POST /system/backup. Database
// exports shell out to pg_dump; file exports archive the uploads directory.
// Artifacts land in BACKUP_DIR, or in S3-compatible storage when
// BACKUP_S3_ENDPOINT is configured.

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/mathservice-vn/platform/app/internal/admin/audit"
	"github.com/mathservice-vn/platform/app/internal/config"
	"github.com/mathservice-vn/platform/app/internal/database"
)

// Backup types accepted by the admin API.
const (
	BackupFull         = "full"
	BackupDatabaseOnly = "database_only"
	BackupFilesOnly    = "files_only"
)

// ValidBackupType reports whether t is an accepted backup type.
func ValidBackupType(t string) bool {
	return t == BackupFull || t == BackupDatabaseOnly || t == BackupFilesOnly
}

// Backup statuses recorded in the backups table.
const (
	backupStatusCompleted = "completed"
	backupStatusFailed    = "failed"
)

const backupRunTimeout = 10 * time.Minute

// BackupRunner creates backup records and executes the export jobs
// asynchronously.
type BackupRunner struct {
	queries *database.Queries
	cfg     *config.ServerEnvironment
	logger  *slog.Logger
	events  *audit.Recorder
	now     func() time.Time
}

func NewBackupRunner(queries *database.Queries, cfg *config.ServerEnvironment, logger *slog.Logger) *BackupRunner {
	return &BackupRunner{
		queries: queries,
		cfg:     cfg,
		logger:  logger,
		events:  audit.NewRecorder(queries),
		now:     time.Now,
	}
}

// Start records a pending backup and kicks off the export in the background.
// The returned record reflects the job at creation time.
func (b *BackupRunner) Start(ctx context.Context, backupType string, initiatedBy uuid.UUID) (database.Backup, error) {
	record, err := b.queries.CreateBackup(ctx, database.CreateBackupParams{
		BackupType:     backupType,
		InitiatedBy:    initiatedBy,
		RetentionUntil: b.now().Add(b.cfg.BackupRetention),
	})
	if err != nil {
		return database.Backup{}, fmt.Errorf("failed to create backup record: %w", err)
	}

	// The job outlives the HTTP request.
	go b.run(record)

	return record, nil
}

func (b *BackupRunner) run(record database.Backup) {
	ctx, cancel := context.WithTimeout(context.Background(), backupRunTimeout)
	defer cancel()

	location, size, err := b.execute(ctx, record)
	status := backupStatusCompleted
	if err != nil {
		status = backupStatusFailed
		b.logger.Error("backup failed",
			slog.String("backup_id", record.ID.String()),
			slog.String("backup_type", record.BackupType),
			slog.String("error", err.Error()))
	}

	b.recordOutcome(ctx, record, status, location, size, err)

	if err := b.queries.FinishBackup(ctx, database.FinishBackupParams{
		ID:        record.ID,
		Status:    status,
		SizeBytes: size,
		Location:  location,
	}); err != nil {
		b.logger.Error("failed to record backup result",
			slog.String("backup_id", record.ID.String()),
			slog.String("error", err.Error()))
	}
}

// recordOutcome files a system event for the finished job, so backup runs
// show up under GET /system/logs alongside the backups table.
func (b *BackupRunner) recordOutcome(ctx context.Context, record database.Backup, status, location string, size int64, runErr error) {
	details := map[string]any{
		"backup_id":   record.ID.String(),
		"backup_type": record.BackupType,
	}
	in := audit.SystemInput{
		EventType:   "backup_completed",
		Severity:    "info",
		Component:   "backup",
		Message:     fmt.Sprintf("%s backup completed", record.BackupType),
		Details:     details,
		Environment: b.cfg.Environment,
	}
	if runErr != nil {
		in.EventType = "backup_failed"
		in.Severity = "error"
		in.Message = fmt.Sprintf("%s backup failed", record.BackupType)
		details["error"] = runErr.Error()
	} else {
		details["size_bytes"] = size
		details["location"] = location
	}
	b.events.RecordSystem(ctx, in)
}

// execute produces the artifact in a temp file and ships it to its
// destination. Returns the final location and artifact size.
func (b *BackupRunner) execute(ctx context.Context, record database.Backup) (string, int64, error) {
	name := artifactName(record.BackupType, b.now())

	tmp, err := os.CreateTemp("", "mathservice-backup-*")
	if err != nil {
		return "", 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := b.export(ctx, record.BackupType, tmp); err != nil {
		return "", 0, err
	}

	info, err := tmp.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", 0, fmt.Errorf("failed to rewind artifact: %w", err)
	}

	if b.cfg.BackupS3Endpoint != "" {
		location, err := b.uploadS3(ctx, name, tmp, info.Size())
		return location, info.Size(), err
	}

	location, err := b.storeLocal(name, tmp)
	return location, info.Size(), err
}

func (b *BackupRunner) export(ctx context.Context, backupType string, dest io.Writer) error {
	switch backupType {
	case BackupDatabaseOnly:
		return b.dumpDatabase(ctx, dest)
	case BackupFilesOnly:
		return b.archiveFiles(dest)
	case BackupFull:
		return b.exportFull(ctx, dest)
	default:
		return fmt.Errorf("unknown backup type %q", backupType)
	}
}

// dumpDatabase streams a gzipped pg_dump of the platform database.
func (b *BackupRunner) dumpDatabase(ctx context.Context, dest io.Writer) error {
	gz := gzip.NewWriter(dest)

	cmd := exec.CommandContext(ctx, "pg_dump", "--dbname", b.cfg.DatabaseURL, "--no-owner", "--format", "plain")
	cmd.Stdout = gz
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		gz.Close()
		return fmt.Errorf("pg_dump failed: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize dump: %w", err)
	}
	return nil
}

// archiveFiles writes a tar.gz of the uploads directory. A missing directory
// yields an empty archive rather than an error.
func (b *BackupRunner) archiveFiles(dest io.Writer) error {
	gz := gzip.NewWriter(dest)
	tw := tar.NewWriter(gz)

	root := b.cfg.UploadsDir
	if _, err := os.Stat(root); err == nil {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			header, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			header.Name = rel
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			f, err := os.Open(path) // #nosec G304 -- paths come from the uploads walk
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(tw, f)
			return err
		})
		if err != nil {
			tw.Close()
			gz.Close()
			return fmt.Errorf("failed to archive files: %w", err)
		}
	}

	if err := tw.Close(); err != nil {
		gz.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return gz.Close()
}

// exportFull bundles the database dump and the files archive into one tar.
func (b *BackupRunner) exportFull(ctx context.Context, dest io.Writer) error {
	tw := tar.NewWriter(dest)

	if err := b.addTempEntry(tw, "database.sql.gz", func(w io.Writer) error {
		return b.dumpDatabase(ctx, w)
	}); err != nil {
		tw.Close()
		return err
	}
	if err := b.addTempEntry(tw, "files.tar.gz", b.archiveFiles); err != nil {
		tw.Close()
		return err
	}
	return tw.Close()
}

func (b *BackupRunner) addTempEntry(tw *tar.Writer, name string, produce func(io.Writer) error) error {
	tmp, err := os.CreateTemp("", "mathservice-backup-part-*")
	if err != nil {
		return fmt.Errorf("failed to create temp part: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := produce(tmp); err != nil {
		return err
	}
	info, err := tmp.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat part %s: %w", name, err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind part %s: %w", name, err)
	}

	if err := tw.WriteHeader(&tar.Header{
		Name:    name,
		Mode:    0o600,
		Size:    info.Size(),
		ModTime: b.now(),
	}); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}
	if _, err := io.Copy(tw, tmp); err != nil {
		return fmt.Errorf("failed to write part %s: %w", name, err)
	}
	return nil
}

func (b *BackupRunner) storeLocal(name string, src io.Reader) (string, error) {
	if err := os.MkdirAll(b.cfg.BackupDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create backup dir: %w", err)
	}
	path := filepath.Join(b.cfg.BackupDir, name)

	out, err := os.Create(path) // #nosec G304 -- path built from server config
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}
	return path, nil
}

func (b *BackupRunner) uploadS3(ctx context.Context, name string, src io.Reader, size int64) (string, error) {
	client, err := minio.New(b.cfg.BackupS3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(b.cfg.BackupS3AccessKey, b.cfg.BackupS3SecretKey, ""),
		Secure: b.cfg.BackupS3UseSSL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create S3 client: %w", err)
	}

	_, err = client.PutObject(ctx, b.cfg.BackupS3Bucket, name, src, size, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", b.cfg.BackupS3Bucket, name), nil
}

func artifactName(backupType string, now time.Time) string {
	stamp := now.UTC().Format("20060102150405")
	switch backupType {
	case BackupDatabaseOnly:
		return fmt.Sprintf("backup_%s_%s.sql.gz", backupType, stamp)
	case BackupFilesOnly:
		return fmt.Sprintf("backup_%s_%s.tar.gz", backupType, stamp)
	default:
		return fmt.Sprintf("backup_%s_%s.tar", backupType, stamp)
	}
}
