package admin

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mathservice-vn/platform/app/internal/config"
)

func TestValidBackupType(t *testing.T) {
	for _, valid := range []string{"full", "database_only", "files_only"} {
		if !ValidBackupType(valid) {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []string{"", "incremental", "FULL", "database"} {
		if ValidBackupType(invalid) {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}

func TestArtifactName(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 30, 45, 0, time.UTC)

	tests := []struct {
		backupType string
		want       string
	}{
		{BackupDatabaseOnly, "backup_database_only_20250301123045.sql.gz"},
		{BackupFilesOnly, "backup_files_only_20250301123045.tar.gz"},
		{BackupFull, "backup_full_20250301123045.tar"},
	}
	for _, tc := range tests {
		if got := artifactName(tc.backupType, at); got != tc.want {
			t.Errorf("artifactName(%s) = %q, want %q", tc.backupType, got, tc.want)
		}
	}
}

func TestArchiveFilesRoundTrip(t *testing.T) {
	uploads := t.TempDir()
	if err := os.MkdirAll(filepath.Join(uploads, "images"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "images", "chart.svg"), []byte("<svg/>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(uploads, "notes.txt"), []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}

	runner := NewBackupRunner(nil, &config.ServerEnvironment{UploadsDir: uploads}, discardLogger())

	var buf bytes.Buffer
	if err := runner.archiveFiles(&buf); err != nil {
		t.Fatalf("archiveFiles: %v", err)
	}

	gz, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	tr := tar.NewReader(gz)

	entries := map[string]string{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("tar: %v", err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			t.Fatalf("read entry: %v", err)
		}
		entries[filepath.ToSlash(header.Name)] = string(content)
	}

	if entries["images/chart.svg"] != "<svg/>" {
		t.Errorf("missing or wrong chart.svg: %q", entries["images/chart.svg"])
	}
	if entries["notes.txt"] != "hello" {
		t.Errorf("missing or wrong notes.txt: %q", entries["notes.txt"])
	}
}

func TestArchiveFilesMissingDirIsEmpty(t *testing.T) {
	runner := NewBackupRunner(nil, &config.ServerEnvironment{
		UploadsDir: filepath.Join(t.TempDir(), "does-not-exist"),
	}, discardLogger())

	var buf bytes.Buffer
	if err := runner.archiveFiles(&buf); err != nil {
		t.Fatalf("archiveFiles: %v", err)
	}

	gz, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if _, err := tar.NewReader(gz).Next(); err != io.EOF {
		t.Errorf("expected empty archive, got %v", err)
	}
}

func TestStoreLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "backups")
	runner := NewBackupRunner(nil, &config.ServerEnvironment{BackupDir: dir}, discardLogger())

	location, err := runner.storeLocal("backup_full_test.tar", strings.NewReader("artifact-bytes"))
	if err != nil {
		t.Fatalf("storeLocal: %v", err)
	}
	if location != filepath.Join(dir, "backup_full_test.tar") {
		t.Errorf("unexpected location %q", location)
	}

	content, err := os.ReadFile(location)
	if err != nil {
		t.Fatalf("read stored backup: %v", err)
	}
	if string(content) != "artifact-bytes" {
		t.Errorf("stored content = %q", content)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
