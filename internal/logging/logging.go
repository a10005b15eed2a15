package logging

import (
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// New 创建写入 w 的 logger，每条记录带有本次运行的 run id
func New(w io.Writer) *logrus.Entry {
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log.WithField("run", uuid.NewString())
}

// OpenFile 以追加模式打开日志文件
func OpenFile(path string) (*logrus.Entry, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return New(f), f, nil
}

// Discard 丢弃所有日志，供测试使用
func Discard() *logrus.Entry {
	return New(io.Discard)
}
