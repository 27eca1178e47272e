package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord: в строке каталога нечисловой токен
	ErrMalformedRecord = errors.New("malformed catalog record")
	// ErrIndexOutOfRange: индекс колонки за концом записи.
	// Значит, список полей и индексы колонок не совпадают.
	ErrIndexOutOfRange = errors.New("column index out of range")
	// ErrEmptyRecord: пустую запись нельзя записать строкой каталога
	ErrEmptyRecord = errors.New("empty catalog record")
)

// MalformedRecordError указывает первый токен, который не разобрался
type MalformedRecordError struct {
	Line  int
	Token string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("line %d: cannot parse %q as a number: %v", e.Line, e.Token, e.Err)
}

func (e *MalformedRecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// IndexOutOfRangeError: какая запись оказалась короче какой колонки
type IndexOutOfRangeError struct {
	Column int
	Row    int
	Length int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("column %d out of range for record %d with %d values", e.Column, e.Row, e.Length)
}

func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}
