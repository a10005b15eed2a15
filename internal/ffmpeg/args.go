package ffmpeg

import (
	"fmt"
	"strconv"
	"video-editor/internal/config"
)

// Source 一路输入：文件及可选的时间范围
type Source struct {
	Path     string
	Start    float64
	Duration float64
	// Ranged 为 false 时读取整个文件
	Ranged bool
}

// Segment 一次渲染：视频取自 Video，音频取自 Audio (为 nil 时沿用 Video 的音轨)
type Segment struct {
	Video Source
	Audio *Source
}

func inputArgs(src Source) []string {
	var args []string
	if src.Ranged {
		// -ss 放在 -i 之前做快速定位，-t 限定时长
		args = append(args,
			"-ss", fmt.Sprintf("%.3f", src.Start),
			"-t", fmt.Sprintf("%.3f", src.Duration),
		)
	}
	return append(args, "-i", src.Path)
}

// BuildArgs 构建单次渲染的 FFmpeg 参数
func BuildArgs(seg Segment, outputFile string, cfg config.Config) []string {
	// 1. 基础参数
	args := []string{"-y", "-hide_banner", "-nostats", "-progress", "pipe:1"}

	// 2. 输入
	args = append(args, inputArgs(seg.Video)...)
	if seg.Audio != nil {
		args = append(args, inputArgs(*seg.Audio)...)
	}

	// 3. 流映射
	args = append(args, "-map", "0:v:0")
	if seg.Audio != nil {
		args = append(args, "-map", "1:a:0")
	} else {
		// 源文件可能没有音轨
		args = append(args, "-map", "0:a:0?")
	}
	args = append(args, "-map_metadata", "0")

	// 4. 视频编码
	args = append(args,
		"-c:v", "libx264",
		"-crf", strconv.Itoa(cfg.CRF()),
		"-preset", cfg.EncoderPreset(),
		"-pix_fmt", "yuv420p",
	)

	// 5. 音频统一重编码，保证分片拼接兼容
	args = append(args, "-c:a", "aac", "-b:a", cfg.AudioBitrate())

	args = append(args, "-movflags", "+faststart", outputFile)
	return args
}

// ConcatArgs 构建 concat demuxer 无损拼接参数
func ConcatArgs(listFile, outputFile string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		"-movflags", "+faststart",
		outputFile,
	}
}

// ProbeArgs 构建 ffprobe JSON 查询参数
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}
