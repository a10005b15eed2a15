package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultWindow 只给出起点时截取的默认秒数
const DefaultWindow = 60

// MaxSeconds 可表示的最大时间点 (596523:14:07)，超出即视为格式错误
const MaxSeconds = math.MaxInt32

// FormatError 表示时间或区间字符串格式不合法
type FormatError struct {
	Input  string // 出错的原始片段
	Token  int    // 区间序号 (从 0 开始)，单个时间解析时为 -1
	Reason string
}

func (e *FormatError) Error() string {
	if e.Token >= 0 {
		return fmt.Sprintf("invalid interval #%d %q: %s", e.Token+1, e.Input, e.Reason)
	}
	return fmt.Sprintf("invalid time %q: %s", e.Input, e.Reason)
}

const formatHint = "expected MM:SS or HH:MM:SS"

// Interval 以秒表示的 [Start, End] 区间
type Interval struct {
	Start int
	End   int
}

// Duration 区间长度 (秒)，不保证为正
func (iv Interval) Duration() int {
	return iv.End - iv.Start
}

func (iv Interval) String() string {
	return Format(iv.Start) + "-" + Format(iv.End)
}

// IntervalList 保持输入顺序的区间列表
type IntervalList []Interval

// String 输出规范形式，可被 ParseIntervals 原样解析回来
func (l IntervalList) String() string {
	parts := make([]string, len(l))
	for i, iv := range l {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ",")
}

// Total 所有区间长度之和
func (l IntervalList) Total() int {
	total := 0
	for _, iv := range l {
		total += iv.Duration()
	}
	return total
}

// ParseTime 将 MM:SS 或 HH:MM:SS 转换为秒数。
// 分、秒超过 59 不做进位校验，"1:90" 得到 150。
func ParseTime(text string) (int, error) {
	parts := strings.Split(text, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, &FormatError{Input: text, Token: -1, Reason: formatHint}
	}

	values := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, &FormatError{Input: text, Token: -1, Reason: formatHint}
		}
		if n < 0 {
			return 0, &FormatError{Input: text, Token: -1, Reason: "negative component, " + formatHint}
		}
		if n > MaxSeconds {
			return 0, tooLarge(text)
		}
		values[i] = n
	}

	minutes, seconds := values[0], values[1]
	if len(values) == 3 {
		if values[0] > (MaxSeconds-values[1])/60 {
			return 0, tooLarge(text)
		}
		minutes = values[0]*60 + values[1]
		seconds = values[2]
	}
	if minutes > (MaxSeconds-seconds)/60 {
		return 0, tooLarge(text)
	}
	return minutes*60 + seconds, nil
}

func tooLarge(text string) *FormatError {
	return &FormatError{Input: text, Token: -1, Reason: fmt.Sprintf("value exceeds %s, %s", Format(MaxSeconds), formatHint)}
}

// ParseIntervals 解析 "1:30-2:45,3:15-4:00" 或 "1:30,2:45" 形式的区间串。
// 任一片段出错即整体失败，不返回部分结果。
func ParseIntervals(text string) (IntervalList, error) {
	tokens := strings.Split(text, ",")
	intervals := make(IntervalList, 0, len(tokens))

	for i, token := range tokens {
		bounds := strings.Split(token, "-")
		var iv Interval
		switch len(bounds) {
		case 1:
			start, err := ParseTime(bounds[0])
			if err != nil {
				return nil, tokenError(err, token, i)
			}
			if start > MaxSeconds-DefaultWindow {
				return nil, tokenError(tooLarge(token), token, i)
			}
			iv = Interval{Start: start, End: start + DefaultWindow}
		case 2:
			start, err := ParseTime(bounds[0])
			if err != nil {
				return nil, tokenError(err, token, i)
			}
			end, err := ParseTime(bounds[1])
			if err != nil {
				return nil, tokenError(err, token, i)
			}
			iv = Interval{Start: start, End: end}
		default:
			return nil, &FormatError{Input: token, Token: i, Reason: "expected START-END, " + formatHint}
		}
		intervals = append(intervals, iv)
	}
	return intervals, nil
}

func tokenError(err error, token string, idx int) error {
	if fe, ok := err.(*FormatError); ok {
		return &FormatError{Input: token, Token: idx, Reason: fe.Reason}
	}
	return err
}

// Format 将秒数格式化为 M:SS，超过一小时为 H:MM:SS
func Format(total int) string {
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
