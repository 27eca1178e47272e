package system

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanvasPoolClearsReusedCanvas(t *testing.T) {
	rect := image.Rect(0, 0, 8, 4)
	img := GetCanvas(rect)
	assert.Equal(t, rect, img.Rect)

	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	PutCanvas(img)

	again := GetCanvas(rect)
	assert.Equal(t, rect, again.Rect)
	for _, b := range again.Pix {
		if b != 0 {
			t.Fatalf("canvas from pool is not cleared")
		}
	}
}

func TestCanvasPoolUnknownSize(t *testing.T) {
	// canvases not handed out by the pool are dropped
	PutCanvas(image.NewRGBA(image.Rect(0, 0, 3, 3)))
	PutCanvas(nil)

	img := GetCanvas(image.Rect(0, 0, 5, 5))
	assert.Len(t, img.Pix, 5*5*4)
}
