package render

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shorts-pipeline/internal/config"
)

// fakeFFmpeg writes a script that records its arguments and creates the
// output file named by the last argument.
func fakeFFmpeg(t *testing.T, exitCode int) (bin, argsFile string) {
	t.Helper()
	dir := t.TempDir()
	argsFile = filepath.Join(dir, "args.txt")
	bin = filepath.Join(dir, "ffmpeg")
	script := `#!/usr/bin/env bash
set -euo pipefail
printf '%s\n' "$@" > "` + argsFile + `"
if [ "` + strconv.Itoa(exitCode) + `" != "0" ]; then
  echo "Invalid data found when processing input" >&2
  exit ` + strconv.Itoa(exitCode) + `
fi
for last; do true; done
printf 'mp4' > "$last"
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	return bin, argsFile
}

func testCompose(bin string) config.ComposeConfig {
	cfg := config.Default().Compose
	cfg.FFmpegPath = bin
	return cfg
}

func TestComposeRunsEncoder(t *testing.T) {
	bin, argsFile := fakeFFmpeg(t, 0)
	out := filepath.Join(t.TempDir(), "short.mp4")

	err := New(testCompose(bin)).Compose(context.Background(), Inputs{
		Background:  "bg.mp4",
		TopImage:    "top.jpg",
		BottomImage: "bottom.png",
		Audio:       "song.mp3",
	}, out)
	require.NoError(t, err)

	raw, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	args := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Equal(t, out, args[len(args)-1])
	assert.Contains(t, args, "bg.mp4")
	assert.Contains(t, args, "song.mp3")
	assert.Contains(t, args, "3:a")
	assert.NotContains(t, args, "-an")
}

func TestComposeWithoutAudioIsSilent(t *testing.T) {
	r := New(config.Default().Compose)
	args := r.args(Inputs{Background: "bg.mp4", TopImage: "a.jpg", BottomImage: "b.jpg"}, "out.mp4")

	assert.Contains(t, args, "-an")
	assert.NotContains(t, args, "3:a")
	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "crop=1080:1920")
	assert.Contains(t, joined, "-t 10.00")
}

func TestComposeFailureCarriesEncoderOutput(t *testing.T) {
	bin, _ := fakeFFmpeg(t, 1)
	out := filepath.Join(t.TempDir(), "short.mp4")

	err := New(testCompose(bin)).Compose(context.Background(), Inputs{
		Background: "bg.mp4", TopImage: "a.jpg", BottomImage: "b.jpg",
	}, out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid data")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestComposeRequiresInputs(t *testing.T) {
	err := New(config.Default().Compose).Compose(context.Background(), Inputs{Background: "bg.mp4"}, "out.mp4")
	assert.Error(t, err)
}
