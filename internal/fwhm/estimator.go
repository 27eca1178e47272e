// Package fwhm оценивает качество изображения (seeing) по каталогу объектов.
package fwhm

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/starfwhm/internal/catalog"
	"github.com/ivlev/starfwhm/internal/viewer"
)

var (
	// ErrNoStarsFound: ни одна запись не прошла фильтр по флагам и классу
	ErrNoStarsFound = errors.New("cannot find any stars on the image")
	// ErrInvalidStarCount: запрошено меньше одной звезды
	ErrInvalidStarCount = errors.New("star count must be at least 1")
)

// InsufficientStarsError: каталог закончился раньше, чем набралось нужное число звёзд
type InsufficientStarsError struct {
	Found    int
	Expected int
}

func (e *InsufficientStarsError) Error() string {
	return fmt.Sprintf("too few stars - %d, expected %d", e.Found, e.Expected)
}

// Columns - индексы колонок каталога, которые читает оценщик
type Columns struct {
	X     int
	Y     int
	Mag   int
	Flags int
	Class int
	FWHM  int
}

// ColumnsFor находит Columns по списку полей, с которым запускался SExtractor
func ColumnsFor(fields catalog.FieldList) (Columns, error) {
	var c Columns
	for _, col := range []struct {
		name string
		dst  *int
	}{
		{"X_IMAGE", &c.X},
		{"Y_IMAGE", &c.Y},
		{"MAG_BEST", &c.Mag},
		{"FLAGS", &c.Flags},
		{"CLASS_STAR", &c.Class},
		{"FWHM_IMAGE", &c.FWHM},
	} {
		i, err := fields.MustIndex(col.name)
		if err != nil {
			return Columns{}, err
		}
		*col.dst = i
	}
	return c, nil
}

func (c Columns) max() int {
	return max(c.X, c.Y, c.Mag, c.Flags, c.Class, c.FWHM)
}

// Result - медиана FWHM по Count звёздам
type Result struct {
	FWHM  float64
	Count int
}

// Estimator вычисляет медиану FWHM самых ярких звёзд без флагов.
// Viewer получает метку для каждой просмотренной записи; nil - без вывода.
type Estimator struct {
	Columns Columns
	Viewer  viewer.Bridge
}

// NewEstimator создаёт оценщик без вывода меток
func NewEstimator(cols Columns) *Estimator {
	return &Estimator{Columns: cols, Viewer: viewer.Nop{}}
}

// Estimate проходит cat в текущем порядке, самые яркие должны идти первыми.
// Запись подходит, если флаги равны нулю и, при filterGalaxies, класс звезды
// не нулевой. Проход останавливается на starCount-й подходящей записи.
func (e *Estimator) Estimate(cat *catalog.Catalog, starCount int, filterGalaxies bool) (Result, error) {
	if starCount < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidStarCount, starCount)
	}
	v := e.Viewer
	if v == nil {
		v = viewer.Nop{}
	}

	fwhms := make([]float64, 0, starCount)
	need := e.Columns.max()
	for i, rec := range cat.Records() {
		if need >= len(rec) {
			return Result{}, &catalog.IndexOutOfRangeError{Column: need, Row: i, Length: len(rec)}
		}
		x, y := rec[e.Columns.X], rec[e.Columns.Y]
		flags, class := rec[e.Columns.Flags], rec[e.Columns.Class]

		if flags == 0 && (!filterGalaxies || class != 0) {
			fwhms = append(fwhms, rec[e.Columns.FWHM])
			v.Circle(x, y, 10)
			if len(fwhms) >= starCount {
				break
			}
			continue
		}
		v.Cross(x, y)
		v.Text(x, y-15, formatLabel(flags)+" "+formatLabel(class))
	}

	switch {
	case len(fwhms) >= starCount:
		return Result{FWHM: Median(fwhms), Count: len(fwhms)}, nil
	case len(fwhms) > 0:
		return Result{}, &InsufficientStarsError{Found: len(fwhms), Expected: starCount}
	default:
		return Result{}, ErrNoStarsFound
	}
}

// formatLabel оставляет ".0" у целых значений и переходит на экспоненту
// ниже 1e-4 и от 1e16
func formatLabel(v float64) string {
	abs := math.Abs(v)
	if v != 0 && (abs < 1e-4 || abs >= 1e16) || math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Median возвращает медиану values; при чётном числе - среднее двух средних.
// values не изменяется. Для пустого среза возвращает 0.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2.0
	}
	return sorted[n/2]
}
