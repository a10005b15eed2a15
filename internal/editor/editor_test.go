package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"video-editor/internal/config"
	"video-editor/internal/ffmpeg"
	"video-editor/internal/logging"
	"video-editor/internal/media"
	"video-editor/internal/timecode"

	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	infos   map[string]*ffmpeg.ProbeInfo
	runs    [][]string
	concats int
}

func (f *fakeBackend) Probe(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.infos[path]; ok {
		return info, nil
	}
	return nil, errors.New("Invalid data found when processing input")
}

func (f *fakeBackend) Run(ctx context.Context, args []string, bar *progressbar.ProgressBar) error {
	f.mu.Lock()
	f.runs = append(f.runs, args)
	f.mu.Unlock()
	return os.WriteFile(args[len(args)-1], []byte("encoded"), 0644)
}

func (f *fakeBackend) ConcatSegments(ctx context.Context, listFile, outputFile string) error {
	f.mu.Lock()
	f.concats++
	f.mu.Unlock()
	return os.WriteFile(outputFile, []byte("joined"), 0644)
}

type fixture struct {
	dir string
	out string
	fb  *fakeBackend
	ed  *Editor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	fb := &fakeBackend{infos: map[string]*ffmpeg.ProbeInfo{}}
	cfg := config.Config{
		Preset:     config.PresetStandard,
		OutputPath: filepath.Join(dir, "out"),
		Workers:    1,
	}
	log := logging.Discard()
	engine := media.NewEngine(fb, cfg, log)
	return &fixture{dir: dir, out: cfg.OutputPath, fb: fb, ed: New(engine, cfg, log)}
}

func (f *fixture) file(t *testing.T, name string, info ffmpeg.ProbeInfo) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	f.fb.infos[path] = &info
	return path
}

func TestReplaceAudioClampsLongerAudio(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "holiday.mov", ffmpeg.ProbeInfo{DurationSec: 30, HasVideo: true, HasAudio: true})
	audio := f.file(t, "song.mp3", ffmpeg.ProbeInfo{DurationSec: 200, HasAudio: true})

	report, err := f.ed.ReplaceAudio(context.Background(), video, audio)
	require.NoError(t, err)

	assert.Equal(t, StatusProcessed, report.Status)
	assert.Equal(t, filepath.Join(f.out, "holiday_montato.mov"), report.OutputFile)
	assert.FileExists(t, report.OutputFile)
	require.Len(t, f.fb.runs, 1)
	joined := strings.Join(f.fb.runs[0], " ")
	assert.Contains(t, joined, "-ss 0.000 -t 30.000 -i "+audio)
	assert.Contains(t, joined, "-map 1:a:0")
}

func TestReplaceAudioKeepsShorterAudio(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "clip.mp4", ffmpeg.ProbeInfo{DurationSec: 90, HasVideo: true, HasAudio: true})
	audio := f.file(t, "voice.m4a", ffmpeg.ProbeInfo{DurationSec: 20, HasAudio: true})

	report, err := f.ed.ReplaceAudio(context.Background(), video, audio)
	require.NoError(t, err)
	assert.InDelta(t, 90, report.DurationSec, 1e-9)

	joined := strings.Join(f.fb.runs[0], " ")
	assert.NotContains(t, joined, "-ss")
	assert.Contains(t, joined, "-i "+video+" -i "+audio)
}

func TestReplaceAudioMissingAudioFile(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "clip.mp4", ffmpeg.ProbeInfo{DurationSec: 90, HasVideo: true})

	_, err := f.ed.ReplaceAudio(context.Background(), video, filepath.Join(f.dir, "nope.mp3"))
	assert.Equal(t, KindMediaOpen, KindOf(err))
	assert.Empty(t, f.fb.runs)
}

func TestExtractConcatenatesInOrder(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "match.mp4", ffmpeg.ProbeInfo{DurationSec: 300, HasVideo: true, HasAudio: true})
	intervals, err := timecode.ParseIntervals("1:30-2:45,3:15-4:00")
	require.NoError(t, err)

	report, err := f.ed.Extract(context.Background(), video, intervals)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.out, "match_estratto.mp4"), report.OutputFile)
	assert.InDelta(t, 120, report.DurationSec, 1e-9)
	require.Len(t, f.fb.runs, 2)
	assert.Contains(t, strings.Join(f.fb.runs[0], " "), "-ss 90.000 -t 75.000")
	assert.Contains(t, strings.Join(f.fb.runs[1], " "), "-ss 195.000 -t 45.000")
	assert.Equal(t, 1, f.fb.concats)
	assert.FileExists(t, report.OutputFile)
}

func TestExtractSingleIntervalSkipsConcat(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "match.mp4", ffmpeg.ProbeInfo{DurationSec: 300, HasVideo: true, HasAudio: true})

	_, err := f.ed.Extract(context.Background(), video, timecode.IntervalList{{Start: 10, End: 70}})
	require.NoError(t, err)
	assert.Len(t, f.fb.runs, 1)
	assert.Zero(t, f.fb.concats)
}

func TestExtractIntervalBeyondDuration(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "short.mp4", ffmpeg.ProbeInfo{DurationSec: 100, HasVideo: true, HasAudio: true})

	_, err := f.ed.Extract(context.Background(), video, timecode.IntervalList{{Start: 0, End: 30}, {Start: 90, End: 150}})
	require.Error(t, err)
	assert.Equal(t, KindRange, KindOf(err))
	assert.Contains(t, err.Error(), "interval #2")
	assert.Empty(t, f.fb.runs)
	assert.NoFileExists(t, filepath.Join(f.out, "short_estratto.mp4"))
}

func TestExtractEmpty(t *testing.T) {
	f := newFixture(t)
	_, err := f.ed.Extract(context.Background(), "x.mp4", nil)
	assert.ErrorIs(t, err, media.ErrEmpty)
}

func TestOverwriteDeclined(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "match.mp4", ffmpeg.ProbeInfo{DurationSec: 300, HasVideo: true, HasAudio: true})
	require.NoError(t, os.MkdirAll(f.out, 0755))
	existing := filepath.Join(f.out, "match_estratto.mp4")
	require.NoError(t, os.WriteFile(existing, []byte("keep"), 0644))

	var asked string
	f.ed.Confirm = func(path string) bool {
		asked = path
		return false
	}
	report, err := f.ed.Extract(context.Background(), video, timecode.IntervalList{{Start: 0, End: 60}})
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, report.Status)
	assert.Equal(t, existing, asked)
	assert.Empty(t, f.fb.runs)

	data, _ := os.ReadFile(existing)
	assert.Equal(t, "keep", string(data))
}

func TestLength(t *testing.T) {
	f := newFixture(t)
	video := f.file(t, "talk.mp4", ffmpeg.ProbeInfo{DurationSec: 125.48, HasVideo: true})

	report, err := f.ed.Length(context.Background(), video)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Minutes())
	assert.Equal(t, 5, report.Seconds())
}

func TestPromptOverwrite(t *testing.T) {
	var out bytes.Buffer
	confirm := PromptOverwrite(strings.NewReader("y\nn\n\nSI\n"), &out)
	assert.True(t, confirm("a.mp4"))
	assert.False(t, confirm("a.mp4"))
	assert.False(t, confirm("a.mp4"))
	assert.True(t, confirm("a.mp4"))
	assert.Contains(t, out.String(), "a.mp4")
}

func TestKindOf(t *testing.T) {
	_, parseErr := timecode.ParseTime("abc")
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{parseErr, KindFormat},
		{&media.OpenError{Path: "x", Err: os.ErrNotExist}, KindMediaOpen},
		{fmt.Errorf("wrap: %w", &media.WriteError{Path: "y", Err: errors.New("disk full")}), KindMediaWrite},
		{fmt.Errorf("interval #1: %w", media.ErrOutOfRange), KindRange},
		{context.Canceled, KindCanceled},
		{errors.New("other"), KindUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, KindOf(c.err), "%v", c.err)
	}
}
