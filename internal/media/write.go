package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"video-editor/internal/ffmpeg"
	"video-editor/internal/utils"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// WriteFile 编码并写出到 path。先写临时文件，成功后再重命名。
// 失败时返回 *WriteError；ctx 被取消时返回 ctx.Err()。
func (c *Clip) WriteFile(ctx context.Context, path string, bar *progressbar.ProgressBar) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return &WriteError{Path: path, Err: err}
	}

	leaves := c.leaves()
	var err error
	if len(leaves) == 1 {
		err = c.engine.writeSingle(ctx, leaves[0], path, bar)
	} else {
		err = c.engine.writeSegmented(ctx, leaves, path, bar)
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var we *WriteError
	if errors.As(err, &we) {
		return err
	}
	return &WriteError{Path: path, Err: err}
}

func (e *Engine) writeSingle(ctx context.Context, leaf *Clip, path string, bar *progressbar.ProgressBar) error {
	seg, err := leaf.segment()
	if err != nil {
		return err
	}
	tmp := utils.PartPath(path)
	_ = os.Remove(tmp)

	if err := e.backend.Run(ctx, ffmpeg.BuildArgs(seg, tmp, e.cfg), bar); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize output failed: %w", err)
	}
	return nil
}

// writeSegmented 逐段渲染到工作目录，再用 concat demuxer 拼接
func (e *Engine) writeSegmented(ctx context.Context, leaves []*Clip, path string, bar *progressbar.ProgressBar) error {
	segs := make([]ffmpeg.Segment, len(leaves))
	for i, l := range leaves {
		seg, err := l.segment()
		if err != nil {
			return err
		}
		segs[i] = seg
	}

	expected, err := buildSegmentMeta(path, segs)
	if err != nil {
		return err
	}
	workDir := segmentWorkDir(path, expected)
	log := e.log.WithField("workdir", workDir)

	if e.cfg.DisableSegResume {
		if err := os.RemoveAll(workDir); err != nil {
			return fmt.Errorf("reset segment workspace failed: %w", err)
		}
		defer removeWorkDir(workDir)
	} else if err := cleanupSegmentWorkspaceIfChanged(workDir, *expected); err != nil {
		return fmt.Errorf("cleanup segment workspace failed: %w", err)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create segment workspace failed: %w", err)
	}
	if err := saveSegmentMeta(filepath.Join(workDir, metaFileName), expected); err != nil {
		return fmt.Errorf("save segment meta failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for idx, seg := range segs {
		segmentFile := segmentFileName(workDir, idx)

		if e.segmentDone(gctx, segmentFile, bar) {
			log.WithField("segment", idx).Info("reusing rendered segment")
			continue
		}

		idx, seg := idx, seg
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			segmentTmp := utils.PartPath(segmentFile)
			_ = os.Remove(segmentTmp)
			if err := e.backend.Run(gctx, ffmpeg.BuildArgs(seg, segmentTmp, e.cfg), bar); err != nil {
				_ = os.Remove(segmentTmp)
				return fmt.Errorf("segment %d: %w", idx+1, err)
			}
			if err := os.Rename(segmentTmp, segmentFile); err != nil {
				_ = os.Remove(segmentTmp)
				return fmt.Errorf("finalize segment failed: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	concatList := filepath.Join(workDir, "concat_list.txt")
	if err := writeConcatList(concatList, workDir, len(segs)); err != nil {
		return err
	}

	finalTmp := utils.PartPath(path)
	_ = os.Remove(finalTmp)
	if err := e.backend.ConcatSegments(ctx, concatList, finalTmp); err != nil {
		_ = os.Remove(finalTmp)
		return err
	}
	if err := os.Rename(finalTmp, path); err != nil {
		_ = os.Remove(finalTmp)
		return fmt.Errorf("finalize output failed: %w", err)
	}

	removeWorkDir(workDir)
	return nil
}

// removeWorkDir 删除分片工作目录，上级 .veparts 为空时一并删除
func removeWorkDir(workDir string) {
	_ = os.RemoveAll(workDir)
	_ = os.Remove(filepath.Dir(workDir))
}

// segmentDone 已存在且可探测的分片直接复用，并计入进度
func (e *Engine) segmentDone(ctx context.Context, segmentFile string, bar *progressbar.ProgressBar) bool {
	if _, err := os.Stat(segmentFile); err != nil {
		return false
	}
	info, err := e.backend.Probe(ctx, segmentFile)
	if err != nil || info.DurationSec <= 0 {
		_ = os.Remove(segmentFile)
		return false
	}
	if bar != nil {
		_ = bar.Add64(int64(info.DurationSec * 1000000))
	}
	return true
}

func segmentFileName(workDir string, idx int) string {
	return filepath.Join(workDir, fmt.Sprintf("seg_%06d.mp4", idx))
}

func writeConcatList(concatList, workDir string, total int) error {
	listFile, err := os.Create(concatList)
	if err != nil {
		return fmt.Errorf("create concat list failed: %w", err)
	}
	for idx := 0; idx < total; idx++ {
		segmentFile := segmentFileName(workDir, idx)
		if _, err := os.Stat(segmentFile); err != nil {
			_ = listFile.Close()
			return fmt.Errorf("missing segment for concat: %s", filepath.Base(segmentFile))
		}
		abs, err := filepath.Abs(segmentFile)
		if err != nil {
			abs = segmentFile
		}
		escaped := strings.ReplaceAll(abs, "'", "'\\''")
		if _, err := fmt.Fprintf(listFile, "file '%s'\n", escaped); err != nil {
			_ = listFile.Close()
			return fmt.Errorf("write concat list failed: %w", err)
		}
	}
	if err := listFile.Close(); err != nil {
		return fmt.Errorf("close concat list failed: %w", err)
	}
	return nil
}
