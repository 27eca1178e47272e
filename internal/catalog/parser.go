package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record - один найденный объект: по значению на поле в порядке списка полей
type Record []float64

// Parse читает ASCII-каталог.
//
// Строки, начинающиеся с '#', - комментарии заголовка, они пропускаются. Первая
// пустая строка завершает каталог. Остальные строки состоят из чисел через
// пробелы; первый нечисловой токен прерывает разбор с *MalformedRecordError.
// Записи возвращаются в порядке файла.
func Parse(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			break
		}

		rec := make(Record, len(tokens))
		for i, tok := range tokens {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, &MalformedRecordError{Line: lineNo, Token: tok, Err: err}
			}
			rec[i] = v
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return records, nil
}

// ParseFile разбирает каталог из файла path
func ParseFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}
