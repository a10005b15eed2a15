package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// Run 执行 FFmpeg 命令并根据 out_time_us 更新进度条 (bar 可为 nil)
func (t *Tool) Run(ctx context.Context, cmdArgs []string, bar *progressbar.ProgressBar) error {
	t.log.Infoln(t.FFmpeg, strings.Join(cmdArgs, " "))
	cmd := exec.CommandContext(ctx, t.FFmpeg, cmdArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(stdoutPipe)
	var lastTimeUs int64 = 0

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "out_time_us=") {
			usStr := strings.TrimPrefix(line, "out_time_us=")
			currentUs, _ := strconv.ParseInt(usStr, 10, 64)

			if currentUs > lastTimeUs {
				if bar != nil {
					_ = bar.Add64(currentUs - lastTimeUs)
				}
				lastTimeUs = currentUs
			}
		}
	}

	if err := cmd.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		t.log.Errorf("ffmpeg error: %v\n%s", err, stderr.String())
		return fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// ConcatSegments 将分片文件无损拼接为最终文件
func (t *Tool) ConcatSegments(ctx context.Context, listFile, outputFile string) error {
	args := ConcatArgs(listFile, outputFile)
	t.log.Infoln(t.FFmpeg, strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, t.FFmpeg, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return ctx.Err()
		}
		t.log.Errorf("ffmpeg concat error: %v\n%s", err, stderr.String())
		return fmt.Errorf("ffmpeg concat: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

// lastLine 取 stderr 最后一行非空内容，通常就是 ffmpeg 的报错原因
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return "no output"
}
