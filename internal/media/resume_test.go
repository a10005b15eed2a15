package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	"video-editor/internal/ffmpeg"
)

func testSegments(input string) []ffmpeg.Segment {
	return []ffmpeg.Segment{
		{Video: ffmpeg.Source{Path: input, Start: 90, Duration: 75, Ranged: true}},
		{Video: ffmpeg.Source{Path: input, Start: 195, Duration: 45, Ranged: true}},
	}
}

func TestSegmentMetaSaveLoadAndMatch(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "input.mp4")
	output := filepath.Join(tmpDir, "input_estratto.mp4")

	if err := os.WriteFile(input, []byte("source"), 0644); err != nil {
		t.Fatalf("write input failed: %v", err)
	}

	meta, err := buildSegmentMeta(output, testSegments(input))
	if err != nil {
		t.Fatalf("build meta failed: %v", err)
	}
	workDir := segmentWorkDir(output, meta)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := saveSegmentMeta(filepath.Join(workDir, metaFileName), meta); err != nil {
		t.Fatalf("save meta failed: %v", err)
	}
	segment := segmentFileName(workDir, 0)
	if err := os.WriteFile(segment, []byte("seg"), 0644); err != nil {
		t.Fatalf("write segment failed: %v", err)
	}

	loaded, err := loadSegmentMeta(filepath.Join(workDir, metaFileName))
	if err != nil {
		t.Fatalf("load meta failed: %v", err)
	}
	if !loaded.equal(*meta) {
		t.Fatalf("expected loaded meta to match")
	}

	if err := cleanupSegmentWorkspaceIfChanged(workDir, *meta); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(segment); err != nil {
		t.Fatalf("expected segment to survive unchanged input: %v", err)
	}
}

func TestSegmentMetaMismatchWhenInputChanges(t *testing.T) {
	tmpDir := t.TempDir()
	input := filepath.Join(tmpDir, "input.mp4")
	output := filepath.Join(tmpDir, "input_estratto.mp4")

	if err := os.WriteFile(input, []byte("source-v1"), 0644); err != nil {
		t.Fatalf("write input failed: %v", err)
	}
	before, err := buildSegmentMeta(output, testSegments(input))
	if err != nil {
		t.Fatalf("build meta failed: %v", err)
	}
	workDir := segmentWorkDir(output, before)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := saveSegmentMeta(filepath.Join(workDir, metaFileName), before); err != nil {
		t.Fatalf("save meta failed: %v", err)
	}

	if err := os.WriteFile(input, []byte("source-v2-with-change"), 0644); err != nil {
		t.Fatalf("mutate input failed: %v", err)
	}
	later := time.Now().Add(2 * time.Second)
	_ = os.Chtimes(input, later, later)

	after, err := buildSegmentMeta(output, testSegments(input))
	if err != nil {
		t.Fatalf("build meta failed: %v", err)
	}
	if before.equal(*after) {
		t.Fatalf("expected meta mismatch after input change")
	}
	if err := cleanupSegmentWorkspaceIfChanged(workDir, *after); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("expected stale workspace to be removed")
	}
}

func TestSegmentWorkDirDependsOnPlan(t *testing.T) {
	a := &segmentResumeMeta{Plan: []string{"v.mp4@90.000+75.000"}}
	b := &segmentResumeMeta{Plan: []string{"v.mp4@90.000+60.000"}}
	if segmentWorkDir("out/v_estratto.mp4", a) == segmentWorkDir("out/v_estratto.mp4", b) {
		t.Fatalf("expected different workspaces for different plans")
	}
}
