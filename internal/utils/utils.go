package utils

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultExt = ".mp4"

// OutputPath 生成 <basename><suffix><ext>，dir 为空时写到当前目录
func OutputPath(input, suffix, dir string) string {
	ext := filepath.Ext(input)
	name := strings.TrimSuffix(filepath.Base(input), ext)
	if ext == "" {
		ext = defaultExt
	}
	return filepath.Join(dir, name+suffix+ext)
}

// PartPath 生成临时文件名，保留扩展名以便 ffmpeg 推断容器格式
func PartPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".vepart" + ext
}

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
