package config

const (
	PresetHigh     = "high"
	PresetStandard = "standard"
	PresetLow      = "low"
)

const (
	ModeAudio   = "audio"
	ModeExtract = "extract"
	ModeLength  = "length"
)

const DefaultLogFile = "log.txt"

type Config struct {
	Mode       string
	VideoInput string
	AudioInput string
	Intervals  string
	OutputPath string
	LogFile    string
	Preset     string
	Quality    int
	Workers    int
	// 为 true 时不复用上次中断留下的分片
	DisableSegResume bool
	AssumeYes        bool
	Quiet            bool
}

// CRF 返回 libx264 使用的 CRF 值，Quality > 0 时优先
func (c Config) CRF() int {
	if c.Quality > 0 {
		return c.Quality
	}
	switch c.Preset {
	case PresetHigh:
		return 18
	case PresetLow:
		return 28
	default:
		return 23
	}
}

// EncoderPreset x264 速度预设
func (c Config) EncoderPreset() string {
	switch c.Preset {
	case PresetHigh:
		return "slow"
	case PresetLow:
		return "veryfast"
	default:
		return "medium"
	}
}

// AudioBitrate 音频码率
func (c Config) AudioBitrate() string {
	switch c.Preset {
	case PresetHigh:
		return "192k"
	case PresetLow:
		return "96k"
	default:
		return "160k"
	}
}

func ValidPreset(p string) bool {
	return p == PresetHigh || p == PresetStandard || p == PresetLow
}
