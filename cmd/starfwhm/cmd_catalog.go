package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/starfwhm/internal/catalog"
	"github.com/ivlev/starfwhm/internal/extractor"
)

var (
	sortField string
	reverse   bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <image>",
	Short: "Вывести каталог объектов изображения",
	Long: `Запускает SExtractor и выводит каталог в формате ASCII_HEAD,
при необходимости отсортированный по одному полю.`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().StringVarP(&sortField, "sort", "s", "", "Сортировать по возрастанию этого поля")
	catalogCmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "Обратный порядок")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := newRunner(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	cat, err := runner.Extract(ctx, args[0], extractor.ParamsFrom(cfg.Extraction))
	if err != nil {
		return err
	}

	if err := sortCatalog(cat, sortField, reverse); err != nil {
		return err
	}
	return catalog.Write(os.Stdout, cat.Fields(), cat.Records())
}

// sortCatalog упорядочивает cat по полю field. Без поля и с reverse
// просто разворачивает порядок из файла.
func sortCatalog(cat *catalog.Catalog, field string, reverse bool) error {
	if field == "" {
		if reverse {
			cat.Reverse()
		}
		return nil
	}

	col, err := cat.Column(field)
	if err != nil {
		return err
	}
	if reverse {
		return cat.ReverseSortBy(col)
	}
	return cat.SortBy(col)
}
