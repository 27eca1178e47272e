package system

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// ExtractorNames перебираются по порядку, если путь к SExtractor не задан.
// В разных дистрибутивах программа называется по-разному.
var ExtractorNames = []string{"source-extractor", "sex", "sextractor"}

var imageExtensions = []string{".fits", ".fit", ".fts", ".fits.gz", ".fits.fz"}

// LookupExtractor находит исполняемый файл SExtractor. Непустой preferred
// ищется как есть, иначе в PATH перебираются ExtractorNames.
func LookupExtractor(preferred string) (string, error) {
	if preferred != "" {
		path, err := exec.LookPath(preferred)
		if err != nil {
			return "", fmt.Errorf("extractor %q not found: %w", preferred, err)
		}
		return path, nil
	}
	for _, name := range ExtractorNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("SExtractor не найден в PATH (пробовали %s)", strings.Join(ExtractorNames, ", "))
}

// DefaultWorkers возвращает число логических CPU
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

// IsImage сообщает, есть ли у name расширение FITS
func IsImage(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ExpandImages заменяет каждую папку в paths на лежащие в ней FITS-файлы,
// отсортированные по имени. Обычные файлы остаются как есть.
func ExpandImages(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				found = append(found, filepath.Join(p, entry.Name()))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// FindLatestImage возвращает самый свежий FITS-файл в папке dir
func FindLatestImage(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !IsImage(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено FITS-файлов", dir)
	}
	return latestFile, nil
}
