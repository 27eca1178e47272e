package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ivlev/starfwhm/internal/config"
	"github.com/ivlev/starfwhm/internal/extractor"
	"github.com/ivlev/starfwhm/internal/system"
)

var (
	// Глобальные флаги
	verbose    bool
	configPath string

	// Параметры измерения; применяются, только если заданы в командной строке
	stars          int
	noGalaxyFilter bool
	threshold      float64
	deblend        float64
	saturation     float64
	relaxStep      float64
	viewerKind     string
	overlayDir     string
	timeout        time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "starfwhm",
	Short: "Оценка качества изображения (seeing) по FITS-кадрам",
	Long: `starfwhm запускает SExtractor на FITS-изображениях и выводит медиану FWHM
самых ярких звёзд без флагов.

Путь к SExtractor берётся из --config, $STARFWHM_EXTRACTOR или первым
найденным в PATH из source-extractor, sex, sextractor.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный (debug) лог")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML-файл конфигурации")

	for _, cmd := range []*cobra.Command{fwhmCmd, batchCmd, catalogCmd} {
		f := cmd.Flags()
		f.Float64Var(&threshold, "threshold", 0, "Порог детектирования (DETECT_THRESH)")
		f.Float64Var(&deblend, "deblend", 0, "Контраст разделения (DEBLEND_MINCONT)")
		f.Float64Var(&saturation, "saturation", 0, "Уровень насыщения (SATUR_LEVEL)")
		f.DurationVar(&timeout, "timeout", 0, "Прервать SExtractor по истечении времени")
	}
	for _, cmd := range []*cobra.Command{fwhmCmd, batchCmd} {
		f := cmd.Flags()
		f.IntVarP(&stars, "stars", "n", 0, "Количество звёзд для медианы")
		f.BoolVar(&noGalaxyFilter, "no-galaxy-filter", false, "Не отбрасывать объекты с CLASS_STAR 0")
		f.Float64Var(&relaxStep, "relax", 0, "Шаг снижения порога, пока звёзд не хватает")
		f.StringVar(&viewerKind, "viewer", "", "Вывод меток: none, ds9, overlay")
		f.StringVar(&overlayDir, "overlay-dir", "", "Папка для PNG с метками")
	}

	rootCmd.AddCommand(fwhmCmd, batchCmd, catalogCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig применяет по порядку файл конфигурации, переменные окружения
// и изменённые флаги cmd
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	f := cmd.Flags()
	changed := func(name string) bool {
		return f.Lookup(name) != nil && f.Changed(name)
	}
	if changed("threshold") {
		cfg.Extraction.Threshold = threshold
	}
	if changed("deblend") {
		cfg.Extraction.DeblendMinCont = deblend
	}
	if changed("saturation") {
		cfg.Extraction.SaturLevel = saturation
		cfg.Extraction.SaturationFromHeader = false
	}
	if changed("timeout") {
		cfg.Extractor.Timeout = timeout
	}
	if changed("stars") {
		cfg.Measure.Stars = stars
	}
	if changed("no-galaxy-filter") {
		cfg.Measure.FilterGalaxies = !noGalaxyFilter
	}
	if changed("relax") {
		cfg.Relax.Step = relaxStep
	}
	if changed("viewer") {
		cfg.Viewer.Kind = viewerKind
	}
	if changed("overlay-dir") {
		cfg.Viewer.OverlayDir = overlayDir
	}
	if changed("workers") {
		cfg.Workers = workers
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newRunner находит исполняемый файл SExtractor для cfg
func newRunner(cfg *config.Config) (*extractor.Runner, error) {
	path, err := system.LookupExtractor(cfg.Extractor.Path)
	if err != nil {
		return nil, err
	}
	ecfg := cfg.Extractor
	ecfg.Path = path
	logger.Debug("найден SExtractor", zap.String("path", path))
	return extractor.New(ecfg, cfg.Extraction.Fields, logger), nil
}
