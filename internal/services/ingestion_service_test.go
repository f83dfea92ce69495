package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeDataFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "STATION1.txt",
		"20230101\t250\t150\t0\n"+
			"20230102\t260\t160\t50\n")
	writeDataFile(t, dir, "STATION2.txt",
		"20230101\t-9999\t-9999\t-9999\n")

	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger, testMetrics)

	result, err := svc.IngestDirectory(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("IngestDirectory() error = %v", err)
	}

	if result.FilesProcessed != 2 {
		t.Errorf("FilesProcessed = %d, want 2", result.FilesProcessed)
	}
	if result.RowsInserted != 3 {
		t.Errorf("RowsInserted = %d, want 3", result.RowsInserted)
	}
	if result.DuplicatesSkipped != 0 {
		t.Errorf("DuplicatesSkipped = %d, want 0", result.DuplicatesSkipped)
	}
	if result.MalformedSkipped != 0 {
		t.Errorf("MalformedSkipped = %d, want 0", result.MalformedSkipped)
	}

	// Station ID must come from the file base name.
	for _, rec := range repo.records {
		if rec.StationID != "STATION1" && rec.StationID != "STATION2" {
			t.Errorf("unexpected station ID %q", rec.StationID)
		}
	}
}

func TestIngestDirectory_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "STATION1.txt",
		"20230101\t250\t150\t0\n"+
			"20230102\t260\t160\t50\n")

	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger, testMetrics)
	ctx := context.Background()

	first, err := svc.IngestDirectory(ctx, dir, 100)
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	if first.RowsInserted != 2 {
		t.Fatalf("first run RowsInserted = %d, want 2", first.RowsInserted)
	}

	second, err := svc.IngestDirectory(ctx, dir, 100)
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}

	if second.RowsInserted != 0 {
		t.Errorf("second run RowsInserted = %d, want 0", second.RowsInserted)
	}
	if second.DuplicatesSkipped != 2 {
		t.Errorf("second run DuplicatesSkipped = %d, want 2", second.DuplicatesSkipped)
	}
	if len(repo.records) != 2 {
		t.Errorf("store has %d records after re-run, want 2", len(repo.records))
	}
}

func TestIngestDirectory_MalformedLinesSkipped(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "STATION1.txt",
		"20230101\t250\t150\t0\n"+
			"not a data line\n"+
			"20230230\t250\t150\t0\n"+ // illogical calendar date
			"20230102\t260\t160\t50\n")

	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger, testMetrics)

	result, err := svc.IngestDirectory(context.Background(), dir, 100)
	if err != nil {
		t.Fatalf("IngestDirectory() error = %v", err)
	}

	if result.RowsInserted != 2 {
		t.Errorf("RowsInserted = %d, want 2", result.RowsInserted)
	}
	if result.MalformedSkipped != 2 {
		t.Errorf("MalformedSkipped = %d, want 2", result.MalformedSkipped)
	}
}

func TestIngestDirectory_SmallBatches(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "STATION1.txt",
		"20230101\t250\t150\t0\n"+
			"20230102\t260\t160\t50\n"+
			"20230103\t270\t170\t100\n")

	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger, testMetrics)

	result, err := svc.IngestDirectory(context.Background(), dir, 2)
	if err != nil {
		t.Fatalf("IngestDirectory() error = %v", err)
	}

	if result.RowsInserted != 3 {
		t.Errorf("RowsInserted = %d, want 3", result.RowsInserted)
	}
}

func TestIngestDirectory_NoFiles(t *testing.T) {
	repo := newFakeRepository()
	svc := NewIngestionService(repo, testLogger, testMetrics)

	if _, err := svc.IngestDirectory(context.Background(), t.TempDir(), 100); err == nil {
		t.Error("expected error for empty directory, got nil")
	}
}

func TestDryRunDirectory(t *testing.T) {
	dir := t.TempDir()
	writeDataFile(t, dir, "STATION1.txt",
		"20230101\t250\t150\t0\n"+
			"garbage\n")

	// nil repository: a dry run must never touch the store
	svc := NewIngestionService(nil, testLogger, testMetrics)

	result, err := svc.DryRunDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("DryRunDirectory() error = %v", err)
	}

	if result.FilesProcessed != 1 {
		t.Errorf("FilesProcessed = %d, want 1", result.FilesProcessed)
	}
	if result.RowsInserted != 1 {
		t.Errorf("parseable rows = %d, want 1", result.RowsInserted)
	}
	if result.MalformedSkipped != 1 {
		t.Errorf("MalformedSkipped = %d, want 1", result.MalformedSkipped)
	}
}
