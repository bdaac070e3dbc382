package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stnderror/firefly/internal/encoder"
)

func execute(t *testing.T, enc *encoder.Encoder, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newCommand(&stdout, &stderr, enc)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func missingBinary(t *testing.T) *encoder.Encoder {
	enc := encoder.New(filepath.Join(t.TempDir(), "no-such-ffmpeg"))
	enc.Stdout, enc.Stderr = nil, nil
	return enc
}

func TestOutputIsRequired(t *testing.T) {
	out, err := execute(t, missingBinary(t), "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
	assert.Empty(t, out)
}

func TestUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0000.png"), nil, 0o644))

	out, err := execute(t, missingBinary(t), "--dir", dir, "--output", "clip.mov")
	assert.ErrorIs(t, err, encoder.ErrUnsupportedFormat)
	assert.Empty(t, out)
}

func TestMissingFirstFrame(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0001.png"), nil, 0o644))

	out, err := execute(t, missingBinary(t), "-d", dir, "-o", "clip.gif")
	assert.ErrorIs(t, err, encoder.ErrMissingFirstFrame)
	assert.Empty(t, out)
}

func TestProcessFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0000.png"), nil, 0o644))
	output := filepath.Join(t.TempDir(), "clip.mp4")

	out, err := execute(t, missingBinary(t), "-d", dir, "-o", output, "-f", "24")

	var pe *encoder.ProcessError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.NotFound())
	assert.Equal(t, "Creating MP4 at 24 fps: "+output+"\n", out)
}
