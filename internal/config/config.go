package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvExtractor переопределяет Extractor.Path
const EnvExtractor = "STARFWHM_EXTRACTOR"

type Config struct {
	Extractor  Extractor  `yaml:"extractor"`
	Extraction Extraction `yaml:"extraction"`
	Measure    Measure    `yaml:"measure"`
	Relax      Relax      `yaml:"relax"`
	Viewer     Viewer     `yaml:"viewer"`
	// Workers - число параллельных запусков в пакетном режиме; 0 - по числу CPU
	Workers int `yaml:"workers"`
}

// Extractor - где искать SExtractor и его файлы данных
type Extractor struct {
	// Path - исполняемый файл; пусто - искать в PATH под обычными именами
	Path       string        `yaml:"path"`
	ConfigFile string        `yaml:"config_file"`
	StarNNW    string        `yaml:"star_nnw"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Extraction - параметры детектирования для каждого запуска
type Extraction struct {
	Threshold            float64  `yaml:"threshold"`
	DeblendMinCont       float64  `yaml:"deblend_mincont"`
	SaturLevel           float64  `yaml:"satur_level"`
	SaturationFromHeader bool     `yaml:"saturation_from_header"`
	Fields               []string `yaml:"fields"`
}

type Measure struct {
	Stars          int  `yaml:"stars"`
	FilterGalaxies bool `yaml:"filter_galaxies"`
}

// Relax снижает порог детектирования на Step, но не ниже MinThreshold,
// пока на изображении не хватает звёзд. Step 0 отключает снижение.
type Relax struct {
	Step         float64 `yaml:"step"`
	MinThreshold float64 `yaml:"min_threshold"`
}

type Viewer struct {
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	XPASet string `yaml:"xpaset"`
	// OverlayDir - куда писать <image>.png при Kind "overlay"
	OverlayDir string `yaml:"overlay_dir"`
}

// Default возвращает встроенную конфигурацию
func Default() *Config {
	return &Config{
		Extractor: Extractor{
			ConfigFile: "/usr/share/sextractor/default.sex",
			StarNNW:    "/usr/share/sextractor/default.nnw",
		},
		Extraction: Extraction{
			Threshold:      2.7,
			DeblendMinCont: 0.03,
			SaturLevel:     65535,
			Fields: []string{
				"X_IMAGE", "Y_IMAGE", "MAG_BEST", "FLAGS",
				"CLASS_STAR", "FWHM_IMAGE", "A_IMAGE", "B_IMAGE",
			},
		},
		Measure: Measure{
			Stars:          10,
			FilterGalaxies: true,
		},
		Relax: Relax{
			MinThreshold: 1.5,
		},
		Viewer: Viewer{
			Kind:   "none",
			Target: "ds9",
			XPASet: "xpaset",
		},
	}
}

// Load накладывает файл path на значения по умолчанию. Пустой path - только умолчания.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv применяет переменные окружения
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvExtractor); v != "" {
		c.Extractor.Path = v
	}
}

// Validate проверяет диапазоны значений. К файловой системе не обращается.
func (c *Config) Validate() error {
	e := c.Extraction
	if e.Threshold <= 0 {
		return fmt.Errorf("extraction.threshold must be positive, got %g", e.Threshold)
	}
	if e.DeblendMinCont < 0 || e.DeblendMinCont > 1 {
		return fmt.Errorf("extraction.deblend_mincont must be in [0, 1], got %g", e.DeblendMinCont)
	}
	if e.SaturLevel <= 0 {
		return fmt.Errorf("extraction.satur_level must be positive, got %g", e.SaturLevel)
	}
	if len(e.Fields) == 0 {
		return fmt.Errorf("extraction.fields must not be empty")
	}
	if c.Measure.Stars < 1 {
		return fmt.Errorf("measure.stars must be at least 1, got %d", c.Measure.Stars)
	}
	if c.Relax.Step < 0 {
		return fmt.Errorf("relax.step must not be negative, got %g", c.Relax.Step)
	}
	if c.Relax.Step > 0 && c.Relax.MinThreshold <= 0 {
		return fmt.Errorf("relax.min_threshold must be positive, got %g", c.Relax.MinThreshold)
	}
	if c.Extractor.Timeout < 0 {
		return fmt.Errorf("extractor.timeout must not be negative, got %s", c.Extractor.Timeout)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	switch c.Viewer.Kind {
	case "", "none", "ds9":
	case "overlay":
		if c.Viewer.OverlayDir == "" {
			return fmt.Errorf("viewer.overlay_dir is required for the overlay viewer")
		}
	default:
		return fmt.Errorf("unknown viewer.kind %q (none, ds9, overlay)", c.Viewer.Kind)
	}
	return nil
}

// Marshal сериализует конфигурацию в YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
