package viewer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const xpaTimeout = 5 * time.Second

// CircleRegion формирует регион-окружность DS9 в координатах изображения
func CircleRegion(x, y, radius float64) string {
	return fmt.Sprintf("image; circle %v %v %v", x, y, radius)
}

// CrossRegion формирует регион-крестик DS9
func CrossRegion(x, y float64) string {
	return fmt.Sprintf("image; point %v %v # point=cross", x, y)
}

// TextRegion формирует текстовый регион DS9
func TextRegion(x, y float64, text string) string {
	return fmt.Sprintf("image; text %v %v # text={%s}", x, y, text)
}

// DS9 управляет запущенным SAOImage DS9 через утилиты XPA.
// После первой неудачной команды пишет предупреждение и дальше метки не шлёт.
type DS9 struct {
	target string
	xpaset string
	logger *zap.Logger

	// подменяется в тестах
	run func(ctx context.Context, name string, args []string, stdin string) error

	mu     sync.Mutex
	broken bool
}

// NewDS9 создаёт вывод в экземпляр DS9 с XPA-именем target
func NewDS9(target, xpaset string, logger *zap.Logger) *DS9 {
	if target == "" {
		target = "ds9"
	}
	if xpaset == "" {
		xpaset = "xpaset"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DS9{target: target, xpaset: xpaset, logger: logger, run: runXPA}
}

func (d *DS9) Load(imagePath string) {
	d.send([]string{"-p", d.target, "file", imagePath}, "")
}

func (d *DS9) Circle(x, y, radius float64) {
	d.region(CircleRegion(x, y, radius))
}

func (d *DS9) Cross(x, y float64) {
	d.region(CrossRegion(x, y))
}

func (d *DS9) Text(x, y float64, text string) {
	d.region(TextRegion(x, y, text))
}

func (d *DS9) Close() error { return nil }

func (d *DS9) region(cmd string) {
	d.send([]string{d.target, "regions"}, cmd+"\n")
}

func (d *DS9) send(args []string, stdin string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.broken {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), xpaTimeout)
	defer cancel()

	if err := d.run(ctx, d.xpaset, args, stdin); err != nil {
		d.broken = true
		d.logger.Warn("DS9 недоступен, метки отключены",
			zap.String("target", d.target),
			zap.Strings("args", args),
			zap.Error(err))
	}
}

func runXPA(ctx context.Context, name string, args []string, stdin string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w, output: %s", name, strings.Join(args, " "), err, strings.TrimSpace(out.String()))
	}
	return nil
}
