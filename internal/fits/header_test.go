package fits

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/starfwhm/internal/fits/fitstest"
)

func TestRead(t *testing.T) {
	data := fitstest.Image(64, 48,
		fitstest.Card{Key: "OBJECT", Value: "M 13/NGC 6205"},
		fitstest.Card{Key: "EXPTIME", Value: 30.0},
		fitstest.Card{Key: "SATURATE", Value: 60000.0},
		fitstest.Card{Key: "GAIN", Value: 2},
		fitstest.Card{Key: "FOCUS", Value: "1.5D+03"},
	)

	h, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	w, ht, ok := h.Size()
	require.True(t, ok)
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, ht)

	assert.Equal(t, "M 13/NGC 6205", h.Object())
	assert.Equal(t, "M 13/NGC 6205", h.String("object"))

	exp, ok := h.ExposureTime()
	require.True(t, ok)
	assert.Equal(t, 30.0, exp)

	sat, ok := h.Saturation()
	require.True(t, ok)
	assert.Equal(t, 60000.0, sat)

	gain, ok := h.Int("GAIN")
	require.True(t, ok)
	assert.Equal(t, 2, gain)
	f, ok := h.Float("GAIN")
	require.True(t, ok)
	assert.Equal(t, 2.0, f)

	focus, ok := h.Float("FOCUS")
	require.True(t, ok)
	assert.Equal(t, 1500.0, focus)

	assert.True(t, h.Has("saturate"))
	assert.False(t, h.Has("AIRMASS"))
	_, ok = h.Float("AIRMASS")
	assert.False(t, ok)
}

func TestReadExposureFallback(t *testing.T) {
	h, err := Read(bytes.NewReader(fitstest.Header(fitstest.Card{Key: "EXPOSURE", Value: 12.5})))
	require.NoError(t, err)

	exp, ok := h.ExposureTime()
	require.True(t, ok)
	assert.Equal(t, 12.5, exp)

	_, _, ok = h.Size()
	assert.False(t, ok)
}

func TestReadNotFITS(t *testing.T) {
	_, err := Read(strings.NewReader(fmt.Sprintf("%-80s", "NUMBER 1 2 3")))
	assert.True(t, errors.Is(err, ErrNotFITS))

	_, err = Read(strings.NewReader(""))
	assert.True(t, errors.Is(err, ErrNotFITS))
}

func TestReadTruncated(t *testing.T) {
	data := fitstest.Image(10, 10)
	_, err := Read(bytes.NewReader(data[:160]))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFITS))
}

func TestReadHeaderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.fits")
	require.NoError(t, fitstest.WriteImage(path, 10, 20))

	h, err := ReadHeader(path)
	require.NoError(t, err)
	w, ht, ok := h.Size()
	require.True(t, ok)
	assert.Equal(t, [2]int{10, 20}, [2]int{w, ht})
}

func TestReadHeaderMissingFile(t *testing.T) {
	_, err := ReadHeader(filepath.Join(t.TempDir(), "missing.fits"))
	assert.Error(t, err)
}
