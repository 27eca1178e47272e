package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Write пишет записи в формате ASCII_HEAD, который читает Parse:
// по комментарию "#   N NAME" на поле, затем по строке значений на запись.
// Числа пишутся в кратчайшей форме без потери точности.
// Пустая запись отклоняется до начала записи.
func Write(w io.Writer, fields FieldList, records []Record) error {
	for n, rec := range records {
		// пустая строка для Parse означает конец каталога
		if len(rec) == 0 {
			return fmt.Errorf("%w: record %d", ErrEmptyRecord, n)
		}
	}

	bw := bufio.NewWriter(w)
	for i, name := range fields {
		fmt.Fprintf(bw, "#%4d %s\n", i+1, name)
	}
	for _, rec := range records {
		for i, v := range rec {
			if i > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
