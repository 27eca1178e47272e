package viewer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/starfwhm/internal/fits"
	"github.com/ivlev/starfwhm/internal/system"
)

const (
	overlayMaxWidth = 1600
	overlayMargin   = 20
	crossHalfSize   = 4
)

var (
	starColor     = color.RGBA{0, 220, 0, 255}
	rejectedColor = color.RGBA{230, 40, 40, 255}
	labelColor    = color.RGBA{255, 210, 0, 255}
)

type markerKind int

const (
	markerCircle markerKind = iota
	markerCross
	markerText
)

type marker struct {
	kind   markerKind
	x, y   float64
	radius float64
	text   string
}

// Overlay собирает метки и при закрытии рисует их в PNG.
// Холст равен NAXIS1 x NAXIS2 загруженного изображения, если заголовок
// читается, иначе подбирается по меткам.
type Overlay struct {
	path   string
	logger *zap.Logger

	mu            sync.Mutex
	width, height int
	markers       []marker
}

// NewOverlay создаёт вывод меток в файл path
func NewOverlay(path string, logger *zap.Logger) *Overlay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Overlay{path: path, logger: logger}
}

func (o *Overlay) Load(imagePath string) {
	h, err := fits.ReadHeader(imagePath)
	if err != nil {
		o.logger.Debug("overlay: заголовок не прочитан, размер холста по меткам",
			zap.String("image", imagePath), zap.Error(err))
		return
	}
	w, ht, ok := h.Size()
	if !ok {
		return
	}
	o.mu.Lock()
	o.width, o.height = w, ht
	o.mu.Unlock()
}

func (o *Overlay) Circle(x, y, radius float64) {
	o.add(marker{kind: markerCircle, x: x, y: y, radius: radius})
}

func (o *Overlay) Cross(x, y float64) {
	o.add(marker{kind: markerCross, x: x, y: y})
}

func (o *Overlay) Text(x, y float64, text string) {
	o.add(marker{kind: markerText, x: x, y: y, text: text})
}

func (o *Overlay) add(m marker) {
	o.mu.Lock()
	o.markers = append(o.markers, m)
	o.mu.Unlock()
}

// Close рисует собранные метки и записывает PNG
func (o *Overlay) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	img := o.render()
	defer system.PutCanvas(img)

	f, err := os.Create(o.path)
	if err != nil {
		return fmt.Errorf("create overlay file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode overlay: %w", err)
	}
	return f.Close()
}

func (o *Overlay) render() *image.RGBA {
	w, h := o.width, o.height
	if w == 0 || h == 0 {
		w, h = 100, 100
		for _, m := range o.markers {
			w = max(w, int(math.Ceil(m.x+m.radius))+overlayMargin)
			h = max(h, int(math.Ceil(m.y+m.radius))+overlayMargin)
		}
	}

	scale := 1.0
	if w > overlayMaxWidth {
		scale = float64(overlayMaxWidth) / float64(w)
	}
	imgW := max(1, int(float64(w)*scale))
	imgH := max(1, int(float64(h)*scale))

	img := system.GetCanvas(image.Rect(0, 0, imgW, imgH))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	// координаты каталога начинаются с 1, ось y направлена вверх
	toPixel := func(x, y float64) (int, int) {
		px := int(math.Round((x - 1) * scale))
		py := imgH - 1 - int(math.Round((y-1)*scale))
		return px, py
	}

	face := basicfont.Face7x13
	for _, m := range o.markers {
		px, py := toPixel(m.x, m.y)
		switch m.kind {
		case markerCircle:
			r := max(2, int(math.Round(m.radius*scale)))
			drawCircle(img, px, py, r, starColor)
		case markerCross:
			drawLine(img, px-crossHalfSize, py, px+crossHalfSize, py, rejectedColor)
			drawLine(img, px, py-crossHalfSize, px, py+crossHalfSize, rejectedColor)
		case markerText:
			drawCenteredText(img, face, m.text, px, py, labelColor)
		}
	}
	return img
}

func drawCenteredText(img *image.RGBA, face font.Face, s string, cx, cy int, c color.RGBA) {
	advance := font.MeasureString(face, s)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(cx-advance.Round()/2, cy),
	}
	d.DrawString(s)
}

// drawCircle рисует окружность алгоритмом средней точки
func drawCircle(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	x, y, err := radius, 0, 0
	for x >= y {
		img.Set(cx+x, cy+y, c)
		img.Set(cx+y, cy+x, c)
		img.Set(cx-y, cy+x, c)
		img.Set(cx-x, cy+y, c)
		img.Set(cx-x, cy-y, c)
		img.Set(cx-y, cy-x, c)
		img.Set(cx+y, cy-x, c)
		img.Set(cx+x, cy-y, c)

		y++
		err += 1 + 2*y
		if 2*(err-x)+1 > 0 {
			x--
			err += 1 - 2*x
		}
	}
}

// drawLine рисует линию в 1px алгоритмом Брезенхэма
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
