package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner запускает внешний извлекатель и возвращает его stdout
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// execRunner запускает бинарник через os/exec; отмена ctx убивает процесс
type execRunner struct {
	binary string
}

func (r *execRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed: %s", r.binary, lastErrorLine(stderr.String(), err))
	}
	return stdout.Bytes(), nil
}

// lastErrorLine достает из stderr yt-dlp строку "ERROR: ..." - она и есть причина
func lastErrorLine(stderr string, fallback error) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	if last := strings.TrimSpace(lines[len(lines)-1]); last != "" {
		return last
	}
	return fallback.Error()
}
