package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportWriteRead(t *testing.T) {
	r := New([]Measurement{
		{Image: "m13_001.fits", Object: "M 13", Exposure: 30, FWHM: 2.45, Stars: 10, Objects: 312, Threshold: 2.7, Attempts: 1, Elapsed: 1500 * time.Millisecond},
		{Image: "m13_002.fits", Stars: 0, Objects: 4, Threshold: 1.7, Attempts: 3, Error: "too few stars - 4, expected 10"},
	})

	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, Write(r, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "version: \"1.0\""))
	assert.Contains(t, string(data), "elapsed: 1.5s")

	loaded, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, r.Version, loaded.Version)
	assert.True(t, r.Created.Equal(loaded.Created))
	assert.Equal(t, r.Measurements, loaded.Measurements)
	assert.Equal(t, 1, loaded.Succeeded())
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMeasurementOK(t *testing.T) {
	assert.True(t, Measurement{FWHM: 2}.OK())
	assert.False(t, Measurement{Error: "cannot find any stars on the image"}.OK())
}
