// Package backup copies a file aside before a risky in-place rewrite, so
// status-update, organize-collision, and sync auto-fix code paths can all
// share one "create a backup first" primitive.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shuu5/obsclip/internal/clock"
)

const dirPerm = 0o750
const filePerm = 0o600

// Copy copies src into dir (created if absent), suffixing the stored name
// with a clock-derived timestamp so repeated backups of the same file don't
// collide. It returns the backup's path.
func Copy(src, dir string, clk clock.Clock) (string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open backup source: %w", err)
	}
	defer in.Close()

	stamp := clk.Now().Format("20060102_150405.000000")
	base := filepath.Base(src)
	dst := filepath.Join(dir, fmt.Sprintf("%s.%s.bak", base, stamp))

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("copy backup contents: %w", err)
	}

	return dst, nil
}
