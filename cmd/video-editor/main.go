package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"video-editor/internal/config"
	"video-editor/internal/editor"
	"video-editor/internal/ffmpeg"
	"video-editor/internal/logging"
	"video-editor/internal/media"
	"video-editor/internal/timecode"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout))
}

// realMain 返回进程退出码，用户可见的结果写入 stdout
func realMain(argv []string, stdout io.Writer) int {
	// 1. 参数解析
	cfg, err := parseArgs(argv)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Errore: %v\n", err)
		return 2
	}

	// 2. 日志
	log, closer, err := logging.OpenFile(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠️ Impossibile aprire il file di log %s: %v\n", cfg.LogFile, err)
		log = logging.New(os.Stderr)
	} else {
		defer closer.Close()
	}

	// 3. 信号监听
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		fmt.Fprintln(stdout, "\n\n⚠️ Interruzione dell'utente, uscita in corso...")
		cancel()
	}()

	engine := media.NewEngine(ffmpeg.New(log), cfg, log)
	ed := editor.New(engine, cfg, log)
	if !cfg.AssumeYes {
		ed.Confirm = editor.PromptOverwrite(os.Stdin, stdout)
	}
	if !cfg.Quiet {
		ed.Progress = newProgressBar
	}

	// 4. 执行
	start := time.Now()
	report, err := run(ctx, ed, cfg, log)
	if err != nil {
		log.WithFields(logrus.Fields{
			"kind": editor.KindOf(err),
			"mode": cfg.Mode,
		}).Errorf("Si è verificato un errore durante l'esecuzione: %v", err)
		fmt.Fprintf(stdout, "Si è verificato un errore. Controlla il file %s per i dettagli.\n", cfg.LogFile)
		return 1
	}
	log.Info("Operazione completata con successo")

	// 5. 输出结果
	printReport(stdout, report, time.Since(start))
	return 0
}

func run(ctx context.Context, ed *editor.Editor, cfg config.Config, log *logrus.Entry) (editor.Report, error) {
	switch cfg.Mode {
	case config.ModeAudio:
		log.Infof("Avvio montaggio audio: %s, %s", cfg.VideoInput, cfg.AudioInput)
		return ed.ReplaceAudio(ctx, cfg.VideoInput, cfg.AudioInput)
	case config.ModeExtract:
		log.Infof("Avvio estrazione intervalli: %s, %s", cfg.VideoInput, cfg.Intervals)
		intervals, err := timecode.ParseIntervals(cfg.Intervals)
		if err != nil {
			return editor.Report{Operation: cfg.Mode, InputFile: cfg.VideoInput}, err
		}
		return ed.Extract(ctx, cfg.VideoInput, intervals)
	default:
		log.Infof("Richiesta lunghezza video: %s", cfg.VideoInput)
		return ed.Length(ctx, cfg.VideoInput)
	}
}

func parseArgs(argv []string) (config.Config, error) {
	fs := pflag.NewFlagSet("ved", pflag.ContinueOnError)
	var audio, extract, length bool
	cfg := config.Config{}

	fs.BoolVarP(&audio, "audio", "a", false, "Monta un audio su un video: VIDEO_INPUT AUDIO_INPUT")
	fs.BoolVarP(&extract, "extract", "e", false, "Estrai intervalli da un video: VIDEO_INPUT \"1:35-3:00,4:20-12:24,...\" o \"1:35,3:00,...\"")
	fs.BoolVarP(&length, "length", "l", false, "Ottieni la lunghezza del video: VIDEO_INPUT")
	fs.StringVarP(&cfg.OutputPath, "output", "o", "", "Directory di output (default: directory corrente)")
	fs.StringVarP(&cfg.Preset, "preset", "p", config.PresetStandard, "Preset di codifica: high, standard, low")
	fs.IntVarP(&cfg.Quality, "quality", "q", 0, "CRF personalizzato (0 = default del preset)")
	fs.IntVarP(&cfg.Workers, "workers", "w", 1, "Segmenti elaborati in parallelo durante l'estrazione")
	fs.StringVar(&cfg.LogFile, "log-file", config.DefaultLogFile, "File di log")
	fs.BoolVar(&cfg.DisableSegResume, "no-resume", false, "Non riutilizzare i segmenti di un'esecuzione interrotta")
	fs.BoolVarP(&cfg.AssumeYes, "yes", "y", false, "Sovrascrivi i file esistenti senza chiedere")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Nascondi la barra di avanzamento")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: ved (-a VIDEO_INPUT AUDIO_INPUT | -e VIDEO_INPUT INTERVALS | -l VIDEO_INPUT) [flags]")
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return cfg, err
	}

	modes := 0
	want := 0
	for _, m := range []struct {
		set  bool
		name string
		args int
	}{
		{audio, config.ModeAudio, 2},
		{extract, config.ModeExtract, 2},
		{length, config.ModeLength, 1},
	} {
		if m.set {
			modes++
			cfg.Mode = m.name
			want = m.args
		}
	}
	if modes != 1 {
		fs.Usage()
		return cfg, fmt.Errorf("%w: exactly one of -a, -e, -l is required", errUsage)
	}

	args := fs.Args()
	if len(args) != want {
		fs.Usage()
		return cfg, fmt.Errorf("%w: --%s expects %d argument(s), got %d", errUsage, cfg.Mode, want, len(args))
	}
	cfg.VideoInput = args[0]
	switch cfg.Mode {
	case config.ModeAudio:
		cfg.AudioInput = args[1]
	case config.ModeExtract:
		cfg.Intervals = args[1]
	}

	cfg.Preset = strings.ToLower(cfg.Preset)
	if !config.ValidPreset(cfg.Preset) {
		return cfg, fmt.Errorf("%w: unknown preset %q", errUsage, cfg.Preset)
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return cfg, nil
}

func newProgressBar(totalSec float64) *progressbar.ProgressBar {
	bar := progressbar.NewOptions64(
		int64(totalSec*1000000),
		progressbar.OptionSetDescription("Avanzamento"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	_ = bar.RenderBlank()
	return bar
}

// printReport 打印操作结果
func printReport(w io.Writer, r editor.Report, elapsed time.Duration) {
	if r.Operation == config.ModeLength {
		fmt.Fprintf(w, "La lunghezza del video è %d minuti e %d secondi.\n", r.Minutes(), r.Seconds())
		return
	}

	yellow := color.New(color.FgYellow)
	if r.Status == editor.StatusSkipped {
		yellow.Fprintf(w, "⚠️ Saltato: %s (%s)\n", filepath.Base(r.OutputFile), r.Reason)
		return
	}

	yellow.Fprint(w, "output: ")
	color.New(color.FgGreen).Fprintf(w, "%s\n", r.OutputFile)
	yellow.Fprint(w, "durata: ")
	color.New(color.FgMagenta).Fprintf(w, "%s (%s)\n", timecode.Format(int(r.DurationSec)), formatSize(r.NewSize))

	fmt.Fprintf(w, "\n✅ Completato! Tempo totale: %s\n", elapsed.Round(time.Second))
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
