package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("test"), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("m13.fits"))
	assert.True(t, IsImage("M13.FIT"))
	assert.True(t, IsImage("flat.fts"))
	assert.True(t, IsImage("raw.fits.fz"))
	assert.False(t, IsImage("m13.png"))
	assert.False(t, IsImage("fits"))
}

func TestFindLatestImage(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := []string{
		filepath.Join(dir, "light_001.fits"),
		filepath.Join(dir, "light_002.fits"),
		filepath.Join(dir, "light_003.fit"),
	}
	for i, f := range files {
		touch(t, f, now.Add(time.Duration(i)*time.Hour))
	}
	// newer, but not an image
	touch(t, filepath.Join(dir, "notes.txt"), now.Add(10*time.Hour))

	latest, err := FindLatestImage(dir)
	require.NoError(t, err)
	assert.Equal(t, files[len(files)-1], latest)
}

func TestFindLatestImageEmpty(t *testing.T) {
	_, err := FindLatestImage(t.TempDir())
	assert.Error(t, err)

	_, err = FindLatestImage(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExpandImages(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	touch(t, filepath.Join(dir, "b.fits"), now)
	touch(t, filepath.Join(dir, "a.fit"), now)
	touch(t, filepath.Join(dir, "readme.md"), now)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.fits"), 0755))

	single := filepath.Join(t.TempDir(), "single.fits")
	touch(t, single, now)

	got, err := ExpandImages([]string{single, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		single,
		filepath.Join(dir, "a.fit"),
		filepath.Join(dir, "b.fits"),
	}, got)

	_, err = ExpandImages([]string{filepath.Join(dir, "missing.fits")})
	assert.Error(t, err)
}

func TestLookupExtractor(t *testing.T) {
	bin := t.TempDir()
	fake := filepath.Join(bin, "sex")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\n"), 0755))
	t.Setenv("PATH", bin)

	path, err := LookupExtractor("")
	require.NoError(t, err)
	assert.Equal(t, fake, path)

	path, err = LookupExtractor(fake)
	require.NoError(t, err)
	assert.Equal(t, fake, path)

	_, err = LookupExtractor("no-such-extractor")
	assert.Error(t, err)
}

func TestLookupExtractorNothingOnPath(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := LookupExtractor("")
	assert.Error(t, err)
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}
