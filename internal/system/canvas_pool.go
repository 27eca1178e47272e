package system

import (
	"image"
	"sync"
)

// CanvasPool переиспользует холсты image.RGBA по размеру для снижения
// нагрузки на GC при пакетной отрисовке меток.
type CanvasPool struct {
	mu    sync.RWMutex
	pools map[image.Rectangle]*sync.Pool
}

var canvases = &CanvasPool{pools: make(map[image.Rectangle]*sync.Pool)}

// GetCanvas возвращает очищенный холст размера rect
func GetCanvas(rect image.Rectangle) *image.RGBA {
	return canvases.Get(rect)
}

// PutCanvas возвращает img в пул
func PutCanvas(img *image.RGBA) {
	canvases.Put(img)
}

func (p *CanvasPool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		if pool, ok = p.pools[rect]; !ok {
			pool = &sync.Pool{
				New: func() any { return image.NewRGBA(rect) },
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

func (p *CanvasPool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}
