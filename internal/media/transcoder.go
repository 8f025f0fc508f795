package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yt2mp3/internal/shared"
	"github.com/floostack/transcoder/ffmpeg"
)

// Transcoder converts an input media file into an audio file.
type Transcoder interface {
	// Convert writes out from in. onProgress, when set, receives percentages as ffmpeg reports them.
	Convert(ctx context.Context, in, out string, onProgress func(float64)) error
}

// FFmpegTranscoder implements [Transcoder] with the ffmpeg binary.
type FFmpegTranscoder struct {
	ffmpegPath  string
	ffprobePath string
	bitrate     string
	format      string
	logger      *log.Logger
}

// NewFFmpegTranscoder creates a transcoder producing format (mp3 when empty).
func NewFFmpegTranscoder(cfg shared.FFmpegConfig, format string, logger *log.Logger) *FFmpegTranscoder {
	if format == "" {
		format = "mp3"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &FFmpegTranscoder{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		bitrate:     cfg.AudioBitrate,
		format:      format,
		logger:      logger,
	}
}

// codec maps an output format to its ffmpeg audio encoder.
func codec(format string) string {
	switch format {
	case "mp3":
		return "libmp3lame"
	case "m4a", "aac":
		return "aac"
	case "ogg":
		return "libvorbis"
	case "opus":
		return "libopus"
	case "flac":
		return "flac"
	default:
		return format
	}
}

// Options builds the ffmpeg flags used for a conversion: drop video, encode audio, overwrite.
func (t *FFmpegTranscoder) Options() *ffmpeg.Options {
	format := t.format
	audioCodec := codec(t.format)
	overwrite := true
	skipVideo := true
	hideBanner := true

	opts := &ffmpeg.Options{
		OutputFormat: &format,
		AudioCodec:   &audioCodec,
		SkipVideo:    &skipVideo,
		Overwrite:    &overwrite,
		HideBanner:   &hideBanner,
	}
	if t.bitrate != "" {
		bitrate := t.bitrate
		opts.AudioBitrate = &bitrate
	}
	return opts
}

// Convert runs ffmpeg into a partial file next to out and renames it into place, so an
// existing out is only replaced by a complete conversion. The library neither reports the
// exit status nor stops ffmpeg on cancellation: the progress channel is always drained and
// an empty partial file is a failure.
func (t *FFmpegTranscoder) Convert(ctx context.Context, in, out string, onProgress func(float64)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := os.Stat(in); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConvertFailed, err)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("%w: failed to create output directory: %v", shared.ErrConvertFailed, err)
	}

	partial := partialPath(out)
	if err := os.Remove(partial); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove stale %s: %v", shared.ErrConvertFailed, partial, err)
	}
	defer os.Remove(partial)

	opts := t.Options()
	progress, err := ffmpeg.
		New(&ffmpeg.Config{
			ProgressEnabled: true,
			FfmpegBinPath:   t.ffmpegPath,
			FfprobeBinPath:  t.ffprobePath,
		}).
		Input(in).
		Output(partial).
		WithOptions(opts).
		Start(opts)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConvertFailed, err)
	}

	for msg := range progress {
		if onProgress != nil && ctx.Err() == nil {
			onProgress(msg.GetProgress())
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(partial)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("%w: ffmpeg produced no output for %s", shared.ErrConvertFailed, filepath.Base(in))
	}
	if err := os.Rename(partial, out); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrConvertFailed, err)
	}

	t.logger.Debug("converted", "in", in, "out", out, "bytes", info.Size())
	return nil
}

// partialPath is the in-progress name for out: ".<name>.part" in the same directory.
func partialPath(out string) string {
	return filepath.Join(filepath.Dir(out), "."+filepath.Base(out)+".part")
}
