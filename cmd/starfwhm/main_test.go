package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/starfwhm/internal/catalog"
)

// freshCommand shares the flags of from; Changed marks are cleared after the test
func freshCommand(t *testing.T, from *cobra.Command) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: from.Use}
	cmd.Flags().AddFlagSet(from.Flags())
	t.Cleanup(func() {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
	})
	return cmd
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("STARFWHM_EXTRACTOR", "")
	configPath = ""
	cmd := freshCommand(t, fwhmCmd)
	t.Cleanup(func() {
		threshold, stars, noGalaxyFilter, timeout = 0, 0, false, 0
	})

	require.NoError(t, cmd.Flags().Set("threshold", "3.5"))
	require.NoError(t, cmd.Flags().Set("stars", "7"))
	require.NoError(t, cmd.Flags().Set("no-galaxy-filter", "true"))
	require.NoError(t, cmd.Flags().Set("timeout", "30s"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)
	assert.Equal(t, 3.5, cfg.Extraction.Threshold)
	assert.Equal(t, 7, cfg.Measure.Stars)
	assert.False(t, cfg.Measure.FilterGalaxies)
	assert.Equal(t, 30*time.Second, cfg.Extractor.Timeout)
	// untouched flags keep the defaults
	assert.Equal(t, 0.03, cfg.Extraction.DeblendMinCont)
	assert.Equal(t, 65535.0, cfg.Extraction.SaturLevel)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "starfwhm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extractor:\n  path: /opt/sex\nmeasure:\n  stars: 4\n"), 0644))
	configPath = path
	t.Cleanup(func() { configPath = "" })
	t.Setenv("STARFWHM_EXTRACTOR", "/usr/local/bin/source-extractor")

	cfg, err := loadConfig(freshCommand(t, configShowCmd))
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/source-extractor", cfg.Extractor.Path)
	assert.Equal(t, 4, cfg.Measure.Stars)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("STARFWHM_EXTRACTOR", "")
	configPath = ""
	cmd := freshCommand(t, fwhmCmd)
	t.Cleanup(func() { viewerKind = "" })

	require.NoError(t, cmd.Flags().Set("viewer", "overlay"))
	_, err := loadConfig(cmd)
	assert.ErrorContains(t, err, "overlay_dir")
}

func TestSortCatalog(t *testing.T) {
	newCat := func() *catalog.Catalog {
		return catalog.New(catalog.FieldList{"ID", "MAG_BEST"}, []catalog.Record{
			{1, 12.5}, {2, 10.1}, {3, 11.0},
		})
	}
	ids := func(c *catalog.Catalog) []float64 {
		var out []float64
		for _, r := range c.Records() {
			out = append(out, r[0])
		}
		return out
	}

	tests := []struct {
		name    string
		field   string
		reverse bool
		want    []float64
	}{
		{"file order", "", false, []float64{1, 2, 3}},
		{"reversed file order", "", true, []float64{3, 2, 1}},
		{"ascending", "mag_best", false, []float64{2, 3, 1}},
		{"descending", "MAG_BEST", true, []float64{1, 3, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newCat()
			require.NoError(t, sortCatalog(cat, tt.field, tt.reverse))
			assert.Equal(t, tt.want, ids(cat))
		})
	}

	assert.Error(t, sortCatalog(newCat(), "FWHM_IMAGE", false))
}
