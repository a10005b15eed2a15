package editor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"video-editor/internal/config"
	"video-editor/internal/media"
	"video-editor/internal/timecode"
	"video-editor/internal/utils"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

const (
	SuffixAudio   = "_montato"
	SuffixExtract = "_estratto"
)

const (
	StatusProcessed = "Processed"
	StatusSkipped   = "Skipped"
)

// Report 存储单次操作的结果
type Report struct {
	Operation   string
	InputFile   string
	OutputFile  string
	Status      string
	Reason      string
	DurationSec float64
	NewSize     int64
}

// Minutes / Seconds 按整分整秒拆分时长，均向下取整
func (r Report) Minutes() int { return int(math.Floor(r.DurationSec / 60)) }
func (r Report) Seconds() int { return int(math.Mod(r.DurationSec, 60)) }

// Editor 执行三种编辑操作
type Editor struct {
	engine *media.Engine
	cfg    config.Config
	log    *logrus.Entry

	// Confirm 目标文件已存在时询问是否覆盖，为 nil 时直接覆盖
	Confirm func(path string) bool
	// Progress 根据总时长 (秒) 创建进度条，为 nil 时不显示
	Progress func(totalSec float64) *progressbar.ProgressBar
}

func New(engine *media.Engine, cfg config.Config, logger *logrus.Entry) *Editor {
	return &Editor{
		engine: engine,
		cfg:    cfg,
		log:    logger.WithField("component", "editor"),
	}
}

// PromptOverwrite 从 in 读取 y/N 回答
func PromptOverwrite(in io.Reader, out io.Writer) func(string) bool {
	reader := bufio.NewReader(in)
	return func(path string) bool {
		fmt.Fprintf(out, "\n⚠️  Il file di destinazione esiste già: %s\n", path)
		fmt.Fprint(out, "❓ Sovrascrivere? (y/N): ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		return input == "y" || input == "yes" || input == "s" || input == "si" || input == "sì"
	}
}

// allowWrite 目标已存在且用户拒绝覆盖时返回 false
func (e *Editor) allowWrite(output string) bool {
	if _, err := os.Stat(output); err != nil {
		return true
	}
	if e.cfg.AssumeYes || e.Confirm == nil {
		return true
	}
	return e.Confirm(output)
}

func (e *Editor) release(c *media.Clip) {
	if err := c.Close(); err != nil {
		e.log.WithError(err).Warn("close media handle")
	}
}

func (e *Editor) write(ctx context.Context, clip *media.Clip, output string) error {
	var bar *progressbar.ProgressBar
	if e.Progress != nil {
		bar = e.Progress(clip.Duration())
	}
	err := clip.WriteFile(ctx, output, bar)
	if bar != nil {
		if err == nil {
			_ = bar.Finish()
		} else {
			_ = bar.Clear()
		}
	}
	return err
}

func (e *Editor) finish(r Report) Report {
	r.Status = StatusProcessed
	if info, err := os.Stat(r.OutputFile); err == nil {
		r.NewSize = info.Size()
	}
	return r
}

func skipped(r Report) Report {
	r.Status = StatusSkipped
	r.Reason = "output exists, overwrite declined"
	return r
}

// ReplaceAudio 用 audioPath 的音轨替换视频音轨，音频超长时截断到视频时长
func (e *Editor) ReplaceAudio(ctx context.Context, videoPath, audioPath string) (Report, error) {
	log := e.log.WithFields(logrus.Fields{"video": videoPath, "audio": audioPath})
	log.Info("audio replace started")

	output := utils.OutputPath(videoPath, SuffixAudio, e.cfg.OutputPath)
	report := Report{Operation: config.ModeAudio, InputFile: videoPath, OutputFile: output}
	if !e.allowWrite(output) {
		log.Info("audio replace skipped: output exists")
		return skipped(report), nil
	}

	video, err := e.engine.Open(ctx, videoPath)
	if err != nil {
		return report, err
	}
	defer e.release(video)

	audio, err := e.engine.Open(ctx, audioPath)
	if err != nil {
		return report, err
	}
	defer e.release(audio)

	track := audio
	if audio.Duration() > video.Duration() {
		track, err = audio.Subclip(0, video.Duration())
		if err != nil {
			return report, err
		}
		defer e.release(track)
		log.WithField("duration", video.Duration()).Info("audio clamped to video length")
	}

	final, err := video.WithAudio(track)
	if err != nil {
		return report, err
	}
	defer e.release(final)

	report.DurationSec = final.Duration()
	if err := e.write(ctx, final, output); err != nil {
		return report, err
	}

	log.WithField("output", output).Info("audio replace completed")
	return e.finish(report), nil
}

// Extract 按顺序截取 intervals 并拼接为一个文件
func (e *Editor) Extract(ctx context.Context, videoPath string, intervals timecode.IntervalList) (Report, error) {
	log := e.log.WithFields(logrus.Fields{"video": videoPath, "intervals": intervals.String()})
	log.Info("interval extraction started")

	output := utils.OutputPath(videoPath, SuffixExtract, e.cfg.OutputPath)
	report := Report{Operation: config.ModeExtract, InputFile: videoPath, OutputFile: output}
	if len(intervals) == 0 {
		return report, media.ErrEmpty
	}
	if !e.allowWrite(output) {
		log.Info("interval extraction skipped: output exists")
		return skipped(report), nil
	}

	video, err := e.engine.Open(ctx, videoPath)
	if err != nil {
		return report, err
	}
	defer e.release(video)

	clips := make([]*media.Clip, 0, len(intervals))
	for i, iv := range intervals {
		clip, err := video.Subclip(float64(iv.Start), float64(iv.End))
		if err != nil {
			return report, fmt.Errorf("interval #%d %s: %w", i+1, iv, err)
		}
		defer e.release(clip)
		clips = append(clips, clip)
	}

	final, err := e.engine.Concatenate(clips...)
	if err != nil {
		return report, err
	}
	defer e.release(final)

	report.DurationSec = final.Duration()
	if err := e.write(ctx, final, output); err != nil {
		return report, err
	}

	log.WithField("output", output).Info("interval extraction completed")
	return e.finish(report), nil
}

// Length 获取视频时长
func (e *Editor) Length(ctx context.Context, videoPath string) (Report, error) {
	log := e.log.WithField("video", videoPath)
	log.Info("length requested")

	report := Report{Operation: config.ModeLength, InputFile: videoPath}
	video, err := e.engine.Open(ctx, videoPath)
	if err != nil {
		return report, err
	}
	defer e.release(video)

	report.DurationSec = video.Duration()
	report.Status = StatusProcessed
	log.WithFields(logrus.Fields{
		"minutes": report.Minutes(),
		"seconds": report.Seconds(),
	}).Info("length obtained")
	return report, nil
}

// Kind 错误分类
type Kind string

const (
	KindFormat     Kind = "format"
	KindMediaOpen  Kind = "media_open"
	KindMediaWrite Kind = "media_write"
	KindRange      Kind = "range"
	KindCanceled   Kind = "canceled"
	KindUnknown    Kind = "unknown"
)

// KindOf 区分解析错误与媒体引擎错误
func KindOf(err error) Kind {
	var fe *timecode.FormatError
	var oe *media.OpenError
	var we *media.WriteError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.As(err, &fe):
		return KindFormat
	case errors.As(err, &oe), errors.Is(err, media.ErrNoAudio), errors.Is(err, media.ErrNoVideo):
		return KindMediaOpen
	case errors.As(err, &we):
		return KindMediaWrite
	case errors.Is(err, media.ErrOutOfRange), errors.Is(err, media.ErrEmpty):
		return KindRange
	default:
		return KindUnknown
	}
}
