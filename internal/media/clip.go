package media

import (
	"fmt"
	"os"
	"video-editor/internal/ffmpeg"
)

// epsilon 容忍 ffprobe 时长的浮点误差
const epsilon = 0.001

type source struct {
	path   string
	file   *os.File
	info   *ffmpeg.ProbeInfo
	closed bool
}

// Clip 媒体句柄。Open 返回的句柄持有文件描述符，
// Subclip / WithAudio / Concatenate 得到的派生句柄只引用原始文件。
// 每个句柄都必须 Close 且只能 Close 一次。
type Clip struct {
	engine *Engine
	src    *source
	owner  bool

	start, end float64
	audio      *Clip
	parts      []*Clip

	closed bool
}

// Duration 时长 (秒)
func (c *Clip) Duration() float64 {
	if len(c.parts) > 0 {
		var total float64
		for _, p := range c.parts {
			total += p.Duration()
		}
		return total
	}
	return c.end - c.start
}

// Subclip 截取 [start, end) 秒，相对于本片段起点
func (c *Clip) Subclip(start, end float64) (*Clip, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if len(c.parts) > 0 || c.audio != nil {
		return nil, fmt.Errorf("media: subclip of a composed clip is not supported")
	}
	dur := c.Duration()
	if start < 0 || end <= start || end > dur+epsilon {
		return nil, fmt.Errorf("%w: [%.3f, %.3f] not within [0, %.3f] of %s", ErrOutOfRange, start, end, dur, c.src.path)
	}
	if end > dur {
		end = dur
	}
	return &Clip{
		engine: c.engine,
		src:    c.src,
		start:  c.start + start,
		end:    c.start + end,
	}, nil
}

// WithAudio 返回视频取自 c、音频取自 audio 的新句柄
func (c *Clip) WithAudio(audio *Clip) (*Clip, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	if err := audio.usable(); err != nil {
		return nil, err
	}
	if len(c.parts) > 0 || len(audio.parts) > 0 || audio.audio != nil {
		return nil, fmt.Errorf("media: audio replacement on a composed clip is not supported")
	}
	if !audio.src.info.HasAudio {
		return nil, fmt.Errorf("%w: %s", ErrNoAudio, audio.src.path)
	}
	return &Clip{
		engine: c.engine,
		src:    c.src,
		start:  c.start,
		end:    c.end,
		audio:  audio,
	}, nil
}

// Close 释放句柄；原始句柄会关闭底层文件
func (c *Clip) Close() error {
	if c.closed {
		return ErrClosed
	}
	c.closed = true
	if c.owner && c.src != nil {
		c.src.closed = true
		return c.src.file.Close()
	}
	return nil
}

// usable 检查句柄及其引用的所有原始文件都未关闭
func (c *Clip) usable() error {
	if c.closed {
		return ErrClosed
	}
	if c.src != nil && c.src.closed {
		return ErrClosed
	}
	if c.audio != nil {
		if err := c.audio.usable(); err != nil {
			return err
		}
	}
	for _, p := range c.parts {
		if err := p.usable(); err != nil {
			return err
		}
	}
	return nil
}

// ranged 是否只取原始文件的一部分
func (c *Clip) ranged() bool {
	return c.start > 0 || c.end < c.src.info.DurationSec-epsilon
}

func (c *Clip) asSource() ffmpeg.Source {
	return ffmpeg.Source{
		Path:     c.src.path,
		Start:    c.start,
		Duration: c.end - c.start,
		Ranged:   c.ranged(),
	}
}

// segment 将非拼接句柄转换为一次 ffmpeg 渲染
func (c *Clip) segment() (ffmpeg.Segment, error) {
	if !c.src.info.HasVideo {
		return ffmpeg.Segment{}, fmt.Errorf("%w: %s", ErrNoVideo, c.src.path)
	}
	seg := ffmpeg.Segment{Video: c.asSource()}
	if c.audio != nil {
		a := c.audio.asSource()
		seg.Audio = &a
	}
	return seg, nil
}

// leaves 拼接句柄按顺序展开
func (c *Clip) leaves() []*Clip {
	if len(c.parts) == 0 {
		return []*Clip{c}
	}
	var out []*Clip
	for _, p := range c.parts {
		out = append(out, p.leaves()...)
	}
	return out
}
