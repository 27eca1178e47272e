// Package fits читает первичный заголовок FITS-изображения.
package fits

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/astrogo/fitsio"
)

// ErrNotFITS возвращается, если первая карточка не SIMPLE
var ErrNotFITS = errors.New("not a FITS file")

// Header оборачивает заголовок первичного HDU
type Header struct {
	hdr *fitsio.Header
}

func (h *Header) card(key string) *fitsio.Card {
	return h.hdr.Get(strings.ToUpper(key))
}

func (h *Header) Has(key string) bool {
	return h.card(key) != nil
}

func (h *Header) String(key string) string {
	c := h.card(key)
	if c == nil || c.Value == nil {
		return ""
	}
	if s, ok := c.Value.(string); ok {
		return strings.TrimRight(s, " ")
	}
	return fmt.Sprint(c.Value)
}

func (h *Header) Float(key string) (float64, bool) {
	c := h.card(key)
	if c == nil {
		return 0, false
	}
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		// некоторые камеры пишут числа строками, иногда с экспонентой D
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), "D", "E"), 64)
		return f, err == nil
	}
	return 0, false
}

func (h *Header) Int(key string) (int, bool) {
	c := h.card(key)
	if c == nil {
		return 0, false
	}
	switch v := c.Value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	}
	return 0, false
}

// Size возвращает NAXIS1 x NAXIS2; ok=false, если в HDU нет двумерного изображения
func (h *Header) Size() (width, height int, ok bool) {
	axes := h.hdr.Axes()
	if len(axes) < 2 || axes[0] <= 0 || axes[1] <= 0 {
		return 0, 0, false
	}
	return axes[0], axes[1], true
}

// Saturation возвращает ключ SATURATE, если он есть
func (h *Header) Saturation() (float64, bool) { return h.Float("SATURATE") }

func (h *Header) Object() string { return h.String("OBJECT") }

// ExposureTime берёт EXPTIME, а при его отсутствии EXPOSURE
func (h *Header) ExposureTime() (float64, bool) {
	if v, ok := h.Float("EXPTIME"); ok {
		return v, true
	}
	return h.Float("EXPOSURE")
}

// ReadHeader читает первичный заголовок файла path
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read декодирует первичный HDU из r.
// Поток без карточки SIMPLE в начале сразу отклоняется с ErrNotFITS.
func Read(r io.Reader) (*Header, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(80)
	if err != nil || strings.TrimSpace(string(first[:min(8, len(first))])) != "SIMPLE" {
		return nil, ErrNotFITS
	}

	f, err := fitsio.Open(br)
	if err != nil {
		return nil, fmt.Errorf("decoding FITS header: %w", err)
	}
	defer f.Close()

	if len(f.HDUs()) == 0 {
		return nil, ErrNotFITS
	}
	return &Header{hdr: f.HDU(0).Header()}, nil
}
