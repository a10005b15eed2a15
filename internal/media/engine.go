package media

import (
	"context"
	"os"
	"video-editor/internal/config"
	"video-editor/internal/ffmpeg"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

// Backend 实际执行探测与编码的外部工具，默认为 *ffmpeg.Tool
type Backend interface {
	Probe(ctx context.Context, path string) (*ffmpeg.ProbeInfo, error)
	Run(ctx context.Context, cmdArgs []string, bar *progressbar.ProgressBar) error
	ConcatSegments(ctx context.Context, listFile, outputFile string) error
}

// Engine 打开媒体文件并负责写出
type Engine struct {
	backend Backend
	cfg     config.Config
	log     *logrus.Entry
}

func NewEngine(backend Backend, cfg config.Config, logger *logrus.Entry) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		backend: backend,
		cfg:     cfg,
		log:     logger.WithField("component", "media"),
	}
}

// Open 打开并探测媒体文件，失败时返回 *OpenError
func (e *Engine) Open(ctx context.Context, path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}
	info, err := e.backend.Probe(ctx, path)
	if err != nil {
		_ = f.Close()
		return nil, &OpenError{Path: path, Err: err}
	}
	e.log.WithFields(logrus.Fields{
		"path":     path,
		"format":   info.FormatName,
		"duration": info.DurationSec,
	}).Info("opened media")

	return &Clip{
		engine: e,
		src:    &source{path: path, file: f, info: info},
		owner:  true,
		start:  0,
		end:    info.DurationSec,
	}, nil
}

// Concatenate 按顺序拼接多个句柄
func (e *Engine) Concatenate(clips ...*Clip) (*Clip, error) {
	if len(clips) == 0 {
		return nil, ErrEmpty
	}
	for _, c := range clips {
		if err := c.usable(); err != nil {
			return nil, err
		}
	}
	parts := make([]*Clip, len(clips))
	copy(parts, clips)
	return &Clip{engine: e, parts: parts}, nil
}
