package ffmpeg

import (
	"github.com/sirupsen/logrus"
)

// Tool 封装 ffmpeg / ffprobe 可执行文件及其日志
type Tool struct {
	FFmpeg  string
	FFprobe string
	log     *logrus.Entry
}

func New(logger *logrus.Entry) *Tool {
	return &Tool{
		FFmpeg:  "ffmpeg",
		FFprobe: "ffprobe",
		log:     logger.WithField("component", "ffmpeg"),
	}
}
