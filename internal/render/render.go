// Package render composes the final vertical video with ffmpeg.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/rs/zerolog/log"

	"shorts-pipeline/internal/config"
)

// Inputs are the files one short is built from. Audio is optional.
type Inputs struct {
	Background  string
	TopImage    string
	BottomImage string
	Audio       string
}

// Renderer runs the external encoder
type Renderer struct {
	cfg config.ComposeConfig
}

func New(cfg config.ComposeConfig) *Renderer {
	return &Renderer{cfg: cfg}
}

// Compose renders in into outFile: the background is cropped to the frame and
// looped, the two images are stacked on top, the soundtrack is looped and
// the result cut to the configured duration.
func (r *Renderer) Compose(ctx context.Context, in Inputs, outFile string) error {
	if in.Background == "" || in.TopImage == "" || in.BottomImage == "" {
		return errors.New("compose needs a background and two images")
	}

	bin := r.cfg.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	args := r.args(in, outFile)
	log.Debug().Str("component", "render").Str("bin", bin).Strs("args", args).Msg("running ffmpeg")

	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg compose: %w, output: %s", err, tail(output, 2000))
	}

	fi, err := os.Stat(outFile)
	if err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("ffmpeg produced an empty file %s", outFile)
	}
	log.Info().Str("component", "render").Str("file", outFile).Int64("bytes", fi.Size()).Msg("video rendered")
	return nil
}

func (r *Renderer) args(in Inputs, outFile string) []string {
	w, h := r.cfg.Width, r.cfg.Height
	ow := r.cfg.OverlayWidth
	if ow <= 0 || ow > w {
		ow = w
	}
	margin := r.cfg.OverlayMargin
	fps := r.cfg.FPS
	if fps <= 0 {
		fps = 30
	}

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,fps=%d[bg];"+
			"[1:v]scale=%d:-2[top];"+
			"[2:v]scale=%d:-2[bottom];"+
			"[bg][top]overlay=x=(W-w)/2:y=%d[stage];"+
			"[stage][bottom]overlay=x=(W-w)/2:y=H-h-%d,format=yuv420p[vout]",
		w, h, w, h, fps,
		ow,
		ow,
		margin,
		margin,
	)

	args := []string{"-y",
		"-stream_loop", "-1", "-i", in.Background,
		"-loop", "1", "-i", in.TopImage,
		"-loop", "1", "-i", in.BottomImage,
	}
	if in.Audio != "" {
		args = append(args, "-stream_loop", "-1", "-i", in.Audio)
	}

	args = append(args, "-filter_complex", filter, "-map", "[vout]")
	if in.Audio != "" {
		vol := r.cfg.MusicVolume
		if vol <= 0 {
			vol = 1
		}
		args = append(args,
			"-map", "3:a",
			"-filter:a", "volume="+strconv.FormatFloat(vol, 'f', 2, 64),
			"-c:a", "aac",
			"-b:a", "192k",
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-t", strconv.FormatFloat(r.cfg.DurationSec, 'f', 2, 64),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-movflags", "+faststart", // optimize for web streaming
		outFile,
	)
	return args
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return "..." + string(b[len(b)-n:])
}
