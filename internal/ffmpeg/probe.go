package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeInfo ffprobe 返回的媒体信息
type ProbeInfo struct {
	FormatName  string
	DurationSec float64
	HasVideo    bool
	HasAudio    bool
}

type probeOutput struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe 获取文件的容器格式、时长与流类型
func (t *Tool) Probe(ctx context.Context, path string) (*ProbeInfo, error) {
	args := ProbeArgs(path)
	t.log.Infoln(t.FFprobe, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, t.FFprobe, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		t.log.Errorf("ffprobe error: %v\n%s", err, stderr.String())
		return nil, fmt.Errorf("ffprobe: %w: %s", err, lastLine(stderr.String()))
	}
	return ParseProbe(stdout.Bytes())
}

// ParseProbe 解析 ffprobe -print_format json 的输出
func ParseProbe(data []byte) (*ProbeInfo, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := &ProbeInfo{FormatName: out.Format.FormatName}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
	}

	durStr := strings.TrimSpace(out.Format.Duration)
	if durStr == "" || durStr == "N/A" {
		return nil, fmt.Errorf("ffprobe reported no duration")
	}
	dur, err := strconv.ParseFloat(durStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse duration %q: %w", durStr, err)
	}
	info.DurationSec = dur
	return info, nil
}
