package catalog

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// FieldList - упорядоченный список выходных параметров SExtractor.
// Позиция поля в списке равна индексу его колонки в каждой Record.
type FieldList []string

// DefaultFWHMFields - набор колонок для измерения FWHM
var DefaultFWHMFields = FieldList{
	"X_IMAGE",
	"Y_IMAGE",
	"MAG_BEST",
	"FLAGS",
	"CLASS_STAR",
	"FWHM_IMAGE",
	"A_IMAGE",
	"B_IMAGE",
}

// Index возвращает индекс колонки name или -1, если такого поля нет
func (f FieldList) Index(name string) int {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, field := range f {
		if strings.ToUpper(field) == name {
			return i
		}
	}
	return -1
}

// MustIndex как Index, но отсутствие поля возвращает ошибкой
func (f FieldList) MustIndex(name string) (int, error) {
	i := f.Index(name)
	if i < 0 {
		return -1, fmt.Errorf("field %q is not in the field list %v", name, []string(f))
	}
	return i, nil
}

// WriteParams пишет список в формате .param: по одному имени в строке
func (f FieldList) WriteParams(w io.Writer) error {
	for _, field := range f {
		if _, err := fmt.Fprintln(w, field); err != nil {
			return err
		}
	}
	return nil
}

// WriteParamsFile создаёт файл параметров path
func (f FieldList) WriteParamsFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parameter file: %w", err)
	}
	if err := f.WriteParams(file); err != nil {
		file.Close()
		return fmt.Errorf("write parameter file: %w", err)
	}
	return file.Close()
}
