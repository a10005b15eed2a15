package media

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"video-editor/internal/ffmpeg"
)

const metaFileName = "resume_meta.json"

type sourceStamp struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModUnix int64  `json:"mod_unix"`
}

type segmentResumeMeta struct {
	OutputFile    string        `json:"output_file"`
	Sources       []sourceStamp `json:"sources"`
	Plan          []string      `json:"plan"`
	TotalSegments int           `json:"total_segments"`
}

func describeSource(src ffmpeg.Source) string {
	if !src.Ranged {
		return src.Path
	}
	return fmt.Sprintf("%s@%.3f+%.3f", src.Path, src.Start, src.Duration)
}

// buildSegmentMeta 记录输入文件状态和分片计划，任一变化都会使旧分片失效
func buildSegmentMeta(outputFile string, segs []ffmpeg.Segment) (*segmentResumeMeta, error) {
	meta := &segmentResumeMeta{OutputFile: outputFile, TotalSegments: len(segs)}
	seen := map[string]bool{}

	stamp := func(path string) error {
		if seen[path] {
			return nil
		}
		seen[path] = true
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat input failed: %w", err)
		}
		meta.Sources = append(meta.Sources, sourceStamp{
			Path:    path,
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
		return nil
	}

	for _, seg := range segs {
		if err := stamp(seg.Video.Path); err != nil {
			return nil, err
		}
		step := describeSource(seg.Video)
		if seg.Audio != nil {
			if err := stamp(seg.Audio.Path); err != nil {
				return nil, err
			}
			step += " audio=" + describeSource(*seg.Audio)
		}
		meta.Plan = append(meta.Plan, step)
	}
	return meta, nil
}

func (m segmentResumeMeta) equal(o segmentResumeMeta) bool {
	if m.OutputFile != o.OutputFile || m.TotalSegments != o.TotalSegments ||
		len(m.Sources) != len(o.Sources) || len(m.Plan) != len(o.Plan) {
		return false
	}
	for i := range m.Sources {
		if m.Sources[i] != o.Sources[i] {
			return false
		}
	}
	for i := range m.Plan {
		if m.Plan[i] != o.Plan[i] {
			return false
		}
	}
	return true
}

func segmentWorkDir(outputFile string, meta *segmentResumeMeta) string {
	sum := sha1.Sum([]byte(outputFile + "|" + strings.Join(meta.Plan, ",")))
	hash := hex.EncodeToString(sum[:])[:10]
	base := strings.TrimSuffix(filepath.Base(outputFile), filepath.Ext(outputFile))
	return filepath.Join(filepath.Dir(outputFile), ".veparts", fmt.Sprintf("%s-%s", base, hash))
}

func loadSegmentMeta(path string) (*segmentResumeMeta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var meta segmentResumeMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func saveSegmentMeta(path string, meta *segmentResumeMeta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// cleanupSegmentWorkspaceIfChanged 元数据缺失或不一致时清空工作目录
func cleanupSegmentWorkspaceIfChanged(workDir string, expected segmentResumeMeta) error {
	meta, err := loadSegmentMeta(filepath.Join(workDir, metaFileName))
	if err != nil || !meta.equal(expected) {
		return os.RemoveAll(workDir)
	}
	return nil
}
