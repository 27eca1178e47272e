package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/starfwhm/internal/catalog"
	"github.com/ivlev/starfwhm/internal/config"
	"github.com/ivlev/starfwhm/internal/extractor"
	"github.com/ivlev/starfwhm/internal/fits"
	"github.com/ivlev/starfwhm/internal/fwhm"
	"github.com/ivlev/starfwhm/internal/report"
	"github.com/ivlev/starfwhm/internal/system"
	"github.com/ivlev/starfwhm/internal/viewer"
)

// ViewerFactory открывает вывод меток для одного изображения
type ViewerFactory func(imagePath string) (viewer.Bridge, error)

// ViewerFromConfig создаёт ViewerFactory для настроенного вида вывода.
// Overlay пишет <overlay_dir>/<имя изображения>.png.
func ViewerFromConfig(cfg config.Viewer, logger *zap.Logger) ViewerFactory {
	return func(imagePath string) (viewer.Bridge, error) {
		opts := viewer.Options{Target: cfg.Target, XPASet: cfg.XPASet}
		if cfg.OverlayDir != "" {
			name := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))
			opts.OverlayPath = filepath.Join(cfg.OverlayDir, name+".png")
		}
		return viewer.New(cfg.Kind, opts, logger)
	}
}

// Project измеряет изображения с одной конфигурацией
type Project struct {
	Config    *config.Config
	Extractor extractor.Extractor
	Viewer    ViewerFactory

	columns fwhm.Columns
	logger  *zap.Logger
}

// NewProject проверяет, что список полей содержит все колонки, нужные
// оценщику. При vf == nil метки не выводятся.
func NewProject(cfg *config.Config, ext extractor.Extractor, vf ViewerFactory, logger *zap.Logger) (*Project, error) {
	cols, err := fwhm.ColumnsFor(catalog.FieldList(cfg.Extraction.Fields))
	if err != nil {
		return nil, fmt.Errorf("extraction.fields: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Project{
		Config:    cfg,
		Extractor: ext,
		Viewer:    vf,
		columns:   cols,
		logger:    logger,
	}, nil
}

// Recoverable сообщает, означает ли err нехватку звёзд, а не сломанную
// настройку или сбой SExtractor
func Recoverable(err error) bool {
	var ise *fwhm.InsufficientStarsError
	return errors.As(err, &ise) || errors.Is(err, fwhm.ErrNoStarsFound)
}

// Measure запускает SExtractor на imagePath и оценивает FWHM. Если звёзд мало
// и снижение порога включено, порог уменьшается по шагам и запуск
// повторяется. Возвращаемое измерение описывает последнюю попытку, даже
// если err != nil.
func (p *Project) Measure(ctx context.Context, imagePath string) (report.Measurement, error) {
	start := time.Now()
	m := report.Measurement{Image: imagePath}
	params := extractor.ParamsFrom(p.Config.Extraction)
	log := p.logger.With(zap.String("image", imagePath))

	if hdr, err := fits.ReadHeader(imagePath); err == nil {
		m.Object = hdr.Object()
		m.Exposure, _ = hdr.ExposureTime()
		if sat, ok := hdr.Saturation(); ok && p.Config.Extraction.SaturationFromHeader {
			params.SaturLevel = sat
			log.Debug("уровень насыщения из заголовка", zap.Float64("satur_level", sat))
		}
	} else {
		log.Debug("заголовок изображения не прочитан", zap.Error(err))
	}

	var err error
	for {
		m.Attempts++
		m.Threshold = params.Threshold

		var res fwhm.Result
		res, m.Objects, err = p.attempt(ctx, imagePath, params)
		if err == nil {
			m.FWHM, m.Stars = res.FWHM, res.Count
			break
		}

		next := params.Threshold - p.Config.Relax.Step
		if !Recoverable(err) || p.Config.Relax.Step <= 0 || next < p.Config.Relax.MinThreshold-1e-9 {
			break
		}
		log.Info("мало звёзд, снижаем порог детектирования",
			zap.Float64("from", params.Threshold),
			zap.Float64("to", next),
			zap.Error(err))
		params.Threshold = next
	}

	m.Elapsed = time.Since(start)
	if err != nil {
		var ise *fwhm.InsufficientStarsError
		if errors.As(err, &ise) {
			m.Stars = ise.Found
		}
		m.Error = err.Error()
		return m, err
	}
	log.Info("FWHM измерен",
		zap.Float64("fwhm", m.FWHM),
		zap.Int("stars", m.Stars),
		zap.Int("objects", m.Objects),
		zap.Float64("threshold", m.Threshold))
	return m, nil
}

func (p *Project) attempt(ctx context.Context, imagePath string, params extractor.Params) (fwhm.Result, int, error) {
	cat, err := p.Extractor.Extract(ctx, imagePath, params)
	if err != nil {
		return fwhm.Result{}, 0, err
	}
	if err := cat.SortBy(p.columns.Mag); err != nil {
		return fwhm.Result{}, cat.Len(), err
	}

	bridge := p.openViewer(imagePath)
	defer func() {
		if err := bridge.Close(); err != nil {
			p.logger.Warn("ошибка закрытия вывода меток", zap.String("image", imagePath), zap.Error(err))
		}
	}()
	bridge.Load(imagePath)

	est := &fwhm.Estimator{Columns: p.columns, Viewer: bridge}
	res, err := est.Estimate(cat, p.Config.Measure.Stars, p.Config.Measure.FilterGalaxies)
	return res, cat.Len(), err
}

func (p *Project) openViewer(imagePath string) viewer.Bridge {
	if p.Viewer == nil {
		return viewer.Nop{}
	}
	b, err := p.Viewer(imagePath)
	if err != nil || b == nil {
		p.logger.Warn("вывод меток недоступен", zap.String("image", imagePath), zap.Error(err))
		return viewer.Nop{}
	}
	return b
}

// MeasureAll параллельно измеряет изображения и возвращает по измерению на
// каждое в исходном порядке. Нехватка звёзд или сбой SExtractor попадают в
// Measurement.Error. Отсутствующий SExtractor или отменённый контекст
// останавливают всю обработку.
func (p *Project) MeasureAll(ctx context.Context, images []string) ([]report.Measurement, error) {
	workers := p.Config.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	if p.Config.Viewer.Kind == "ds9" && workers > 1 {
		// одно окно DS9 не показывает несколько изображений сразу
		p.logger.Info("подключён DS9, изображения обрабатываются по одному")
		workers = 1
	}

	results := make([]report.Measurement, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, img := range images {
		i, img := i, img
		g.Go(func() error {
			m, err := p.Measure(gctx, img)
			results[i] = m
			if err == nil {
				return nil
			}
			if errors.Is(err, extractor.ErrProcessLaunch) || gctx.Err() != nil {
				return err
			}
			p.logger.Warn("измерение не удалось", zap.String("image", img), zap.Error(err))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
