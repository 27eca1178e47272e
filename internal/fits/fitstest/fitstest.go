// Package fitstest пишет минимальные FITS-файлы для тестов.
package fitstest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const blockSize = 2880

// Card - ключ заголовка со значением string, bool, int или float64
type Card struct {
	Key   string
	Value any
}

// Image возвращает 8-битный FITS width x height с нулевыми пикселями и
// дополнительными карточками после обязательных
func Image(width, height int, cards ...Card) []byte {
	head := []Card{
		{"SIMPLE", true},
		{"BITPIX", 8},
		{"NAXIS", 2},
		{"NAXIS1", width},
		{"NAXIS2", height},
	}
	return build(append(head, cards...), width*height)
}

// Header возвращает первичный HDU без данных (NAXIS = 0)
func Header(cards ...Card) []byte {
	head := []Card{
		{"SIMPLE", true},
		{"BITPIX", 8},
		{"NAXIS", 0},
	}
	return build(append(head, cards...), 0)
}

// WriteImage записывает Image в path
func WriteImage(path string, width, height int, cards ...Card) error {
	return os.WriteFile(path, Image(width, height, cards...), 0644)
}

func build(cards []Card, dataSize int) []byte {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(format(c))
	}
	b.WriteString(fmt.Sprintf("%-80s", "END"))
	pad(&b, ' ')

	out := []byte(b.String())
	if dataSize > 0 {
		out = append(out, make([]byte, padded(dataSize))...)
	}
	return out
}

func format(c Card) string {
	var value string
	switch v := c.Value.(type) {
	case bool:
		value = fmt.Sprintf("%20s", map[bool]string{true: "T", false: "F"}[v])
	case int:
		value = fmt.Sprintf("%20d", v)
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.ContainsAny(s, ".") {
			s += ".0"
		}
		value = fmt.Sprintf("%20s", s)
	case string:
		value = fmt.Sprintf("'%-8s'", strings.ReplaceAll(v, "'", "''"))
	default:
		panic(fmt.Sprintf("fitstest: unsupported value %T", c.Value))
	}
	return fmt.Sprintf("%-80s", fmt.Sprintf("%-8s= %s", c.Key, value))
}

func pad(b *strings.Builder, c byte) {
	for b.Len()%blockSize != 0 {
		b.WriteByte(c)
	}
}

func padded(n int) int {
	return (n + blockSize - 1) / blockSize * blockSize
}
