package decoder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatProbeSniffsByExtension(t *testing.T) {
	p := NewFormatProbe()
	require.Contains(t, p.byExt, ".flac")
	require.Contains(t, p.byExt, ".mp3")
	require.Contains(t, p.byExt, ".webm")
}

func TestFormatProbeOpenUnsupportedExtensionFallsBackToSniff(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.unknownext")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all"), 0o644))

	p := NewFormatProbe()
	_, err := p.Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenWebmReturnsUnsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.webm")
	require.NoError(t, os.WriteFile(path, []byte{0x1A, 0x45, 0xDF, 0xA3}, 0o644))

	p := NewFormatProbe()
	_, err := p.Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
