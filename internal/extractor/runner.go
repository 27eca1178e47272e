// Package extractor запускает SExtractor на изображении и загружает полученный каталог.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivlev/starfwhm/internal/catalog"
	"github.com/ivlev/starfwhm/internal/config"
)

var (
	// ErrProcessLaunch: SExtractor не удалось запустить
	ErrProcessLaunch = errors.New("cannot run extractor")
	// ErrExtractionFailed: SExtractor запустился, но завершился с ошибкой
	ErrExtractionFailed = errors.New("extraction failed")
)

// LaunchError хранит причину, по которой процесс не запустился
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("cannot run extractor %q: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() []error { return []error{ErrProcessLaunch, e.Err} }

// ExitError - код выхода и вывод неудачного запуска
type ExitError struct {
	Code   int
	Output string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("extractor exited with code %d, output: %s", e.Code, e.Output)
}

func (e *ExitError) Is(target error) bool { return target == ErrExtractionFailed }

// Params - параметры детектирования одного запуска, передаются как есть
type Params struct {
	Threshold      float64
	DeblendMinCont float64
	SaturLevel     float64
}

// ParamsFrom берёт параметры детектирования из конфигурации
func ParamsFrom(e config.Extraction) Params {
	return Params{
		Threshold:      e.Threshold,
		DeblendMinCont: e.DeblendMinCont,
		SaturLevel:     e.SaturLevel,
	}
}

// Extractor строит каталог для изображения
type Extractor interface {
	Extract(ctx context.Context, imagePath string, p Params) (*catalog.Catalog, error)
}

// Runner - Extractor на основе консольного SExtractor
type Runner struct {
	cfg    config.Extractor
	fields catalog.FieldList
	logger *zap.Logger
}

// New создаёт Runner. cfg.Path уже должен указывать на исполняемый файл.
func New(cfg config.Extractor, fields catalog.FieldList, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, fields: fields, logger: logger}
}

func (r *Runner) Fields() catalog.FieldList { return r.fields }

// Extract запускает SExtractor на imagePath и разбирает каталог.
// Временные файлы лежат в отдельной папке, она удаляется при любом выходе.
func (r *Runner) Extract(ctx context.Context, imagePath string, p Params) (*catalog.Catalog, error) {
	tmpDir, err := os.MkdirTemp("", "starfwhm_")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	paramsPath := filepath.Join(tmpDir, "fields.param")
	catalogPath := filepath.Join(tmpDir, "output.cat")
	if err := r.fields.WriteParamsFile(paramsPath); err != nil {
		return nil, err
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	args := r.buildArgs(imagePath, paramsPath, catalogPath, p)
	r.logger.Debug("запуск SExtractor",
		zap.String("binary", r.cfg.Path),
		zap.Strings("args", args))

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.cfg.Path, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, r.classify(ctx, err, out)
	}

	records, err := catalog.ParseFile(catalogPath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("SExtractor завершился",
		zap.String("image", imagePath),
		zap.Int("objects", len(records)),
		zap.Duration("elapsed", time.Since(start)))

	return catalog.New(r.fields, records), nil
}

func (r *Runner) buildArgs(imagePath, paramsPath, catalogPath string, p Params) []string {
	return []string{
		imagePath,
		"-c", r.cfg.ConfigFile,
		"-PARAMETERS_NAME", paramsPath,
		"-DETECT_THRESH", formatFloat(p.Threshold),
		"-DEBLEND_MINCONT", formatFloat(p.DeblendMinCont),
		"-SATUR_LEVEL", formatFloat(p.SaturLevel),
		"-FILTER", "N",
		"-STARNNW_NAME", r.cfg.StarNNW,
		"-CATALOG_NAME", catalogPath,
		"-VERBOSE_TYPE", "QUIET",
	}
}

func (r *Runner) classify(ctx context.Context, err error, out []byte) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("extractor %s: %w", r.cfg.Path, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode(), Output: strings.TrimSpace(string(out))}
	}
	return &LaunchError{Path: r.cfg.Path, Err: err}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
