package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ivlev/starfwhm/internal/config"
	"github.com/ivlev/starfwhm/internal/engine"
	"github.com/ivlev/starfwhm/internal/report"
	"github.com/ivlev/starfwhm/internal/system"
)

var (
	workers    int
	reportPath string
)

var fwhmCmd = &cobra.Command{
	Use:   "fwhm [image]",
	Short: "Измерить FWHM одного изображения",
	Long: `Запускает SExtractor, сортирует каталог по звёздной величине и выводит
медиану FWHM_IMAGE самых ярких звёзд с FLAGS 0.

Без аргумента измеряется самый свежий FITS-файл в текущей папке.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFWHM,
}

var batchCmd = &cobra.Command{
	Use:   "batch <image|dir>...",
	Short: "Параллельно измерить много изображений",
	Long: `Измеряет все указанные изображения; папки раскрываются в лежащие в них
FITS-файлы. Изображения, где мало звёзд, попадают в отчёт и не
останавливают обработку.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&workers, "workers", "j", 0, "Число параллельных запусков (0 - по числу CPU)")
	batchCmd.Flags().StringVarP(&reportPath, "report", "o", "", "Записать YAML-отчёт в файл")
}

func newProject(cfg *config.Config) (*engine.Project, error) {
	runner, err := newRunner(cfg)
	if err != nil {
		return nil, err
	}
	var vf engine.ViewerFactory
	if cfg.Viewer.Kind != "" && cfg.Viewer.Kind != "none" {
		vf = engine.ViewerFromConfig(cfg.Viewer, logger)
	}
	return engine.NewProject(cfg, runner, vf, logger)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runFWHM(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var image string
	if len(args) == 1 {
		image = args[0]
	} else {
		image, err = system.FindLatestImage(".")
		if err != nil {
			return fmt.Errorf("%w; укажите путь к изображению", err)
		}
		fmt.Printf("[*] Выбран файл: %s\n", image)
	}

	project, err := newProject(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	m, err := project.Measure(ctx, image)
	if err != nil {
		return err
	}
	if m.Attempts > 1 {
		fmt.Printf("[*] Порог детектирования снижен до %g\n", m.Threshold)
	}
	fmt.Printf("FWHM = %.3f (звёзд: %d)\n", m.FWHM, m.Stars)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	images, err := system.ExpandImages(args)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("в %v нет FITS-файлов", args)
	}
	fmt.Printf("[*] Изображений к обработке: %d\n", len(images))

	project, err := newProject(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	results, batchErr := project.MeasureAll(ctx, images)
	printResults(results)

	r := report.New(results)
	if reportPath != "" {
		if err := report.Write(r, reportPath); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		fmt.Printf("[+] Отчёт записан: %s\n", reportPath)
	}
	if batchErr != nil {
		return batchErr
	}

	fmt.Printf("[+] Измерено %d из %d изображений\n", r.Succeeded(), len(results))
	return nil
}

func printResults(results []report.Measurement) {
	for _, m := range results {
		if m.Image == "" {
			continue
		}
		if m.OK() {
			fmt.Printf("%s\t%.3f\t%d\n", m.Image, m.FWHM, m.Stars)
		} else {
			fmt.Printf("[!] %s: %s\n", m.Image, m.Error)
		}
	}
}
