package report

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report - YAML-отчёт пакетной обработки
type Report struct {
	Version      string        `yaml:"version"`
	Created      time.Time     `yaml:"created"`
	Measurements []Measurement `yaml:"measurements"`
}

// Measurement - результат для одного изображения. Error заполнен, если FWHM
// измерить не удалось; остальные поля описывают последнюю попытку.
type Measurement struct {
	Image     string        `yaml:"image"`
	Object    string        `yaml:"object,omitempty"`
	Exposure  float64       `yaml:"exposure,omitempty"`
	FWHM      float64       `yaml:"fwhm,omitempty"`
	Stars     int           `yaml:"stars"`
	Objects   int           `yaml:"objects"`
	Threshold float64       `yaml:"threshold"`
	Attempts  int           `yaml:"attempts"`
	Elapsed   time.Duration `yaml:"elapsed"`
	Error     string        `yaml:"error,omitempty"`
}

func (m Measurement) OK() bool { return m.Error == "" }

// New создаёт отчёт по измерениям
func New(measurements []Measurement) *Report {
	return &Report{
		Version:      "1.0",
		Created:      time.Now().UTC().Truncate(time.Second),
		Measurements: measurements,
	}
}

// Succeeded считает измерения без ошибки
func (r *Report) Succeeded() int {
	n := 0
	for _, m := range r.Measurements {
		if m.OK() {
			n++
		}
	}
	return n
}

// Write сохраняет отчёт в YAML-файл
func Write(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Read читает отчёт из YAML-файла
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, err
	}

	return &r, nil
}
