// Package viewer передаёт метки найденных объектов в просмотрщик изображений.
// Вызовы рисования не возвращают ошибок и не влияют на результат измерения.
package viewer

import (
	"fmt"

	"go.uber.org/zap"
)

// Bridge - односторонний канал к просмотрщику.
// Координаты - координаты каталога (с 1, y вверх).
type Bridge interface {
	Load(imagePath string)
	Circle(x, y, radius float64)
	Cross(x, y float64)
	Text(x, y float64, text string)
	Close() error
}

// Nop отбрасывает все метки
type Nop struct{}

func (Nop) Load(string)                      {}
func (Nop) Circle(float64, float64, float64) {}
func (Nop) Cross(float64, float64)           {}
func (Nop) Text(float64, float64, string)    {}
func (Nop) Close() error                     { return nil }

// Options настраивает вывод, создаваемый New
type Options struct {
	// XPA-имя окна DS9
	Target string
	// утилита xpaset, относительный путь ищется в PATH
	XPASet string
	// PNG, который overlay пишет при Close
	OverlayPath string
}

// New создаёт вывод меток заданного вида
func New(kind string, opts Options, logger *zap.Logger) (Bridge, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch kind {
	case "none", "":
		return Nop{}, nil
	case "ds9":
		return NewDS9(opts.Target, opts.XPASet, logger), nil
	case "overlay":
		if opts.OverlayPath == "" {
			return nil, fmt.Errorf("overlay viewer needs an output path")
		}
		return NewOverlay(opts.OverlayPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown viewer kind: %s", kind)
	}
}
