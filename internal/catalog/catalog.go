package catalog

import (
	"slices"
	"sort"
)

// Catalog хранит записи одного запуска SExtractor вместе со списком полей,
// задающим их колонки. Порядок меняют только SortBy, ReverseSortBy и Reverse.
type Catalog struct {
	fields  FieldList
	records []Record
}

// New оборачивает записи для fields. Срез переходит во владение каталога.
func New(fields FieldList, records []Record) *Catalog {
	return &Catalog{fields: fields, records: records}
}

func (c *Catalog) Fields() FieldList { return c.fields }
func (c *Catalog) Records() []Record { return c.records }
func (c *Catalog) Len() int          { return len(c.records) }

// Column возвращает индекс колонки по имени поля
func (c *Catalog) Column(name string) (int, error) {
	return c.fields.MustIndex(name)
}

// SortBy устойчиво сортирует записи по возрастанию колонки col.
// Если хотя бы одна запись короче col+1, порядок не меняется.
func (c *Catalog) SortBy(col int) error {
	if err := c.checkColumn(col); err != nil {
		return err
	}
	sort.SliceStable(c.records, func(i, j int) bool {
		return c.records[i][col] < c.records[j][col]
	})
	return nil
}

// ReverseSortBy сортирует по возрастанию col и разворачивает весь срез.
// Записи с равными ключами тоже оказываются в обратном порядке, это не то же
// самое, что устойчивая сортировка по убыванию.
func (c *Catalog) ReverseSortBy(col int) error {
	if err := c.SortBy(col); err != nil {
		return err
	}
	slices.Reverse(c.records)
	return nil
}

// Reverse разворачивает текущий порядок записей
func (c *Catalog) Reverse() {
	slices.Reverse(c.records)
}

func (c *Catalog) checkColumn(col int) error {
	for i, rec := range c.records {
		if col < 0 || col >= len(rec) {
			return &IndexOutOfRangeError{Column: col, Row: i, Length: len(rec)}
		}
	}
	return nil
}
