package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/tools/imports"

	"github.com/syssam/schemaflow/schema"
)

// format runs goimports over a generated file.
func format(name string, src []byte) ([]byte, error) {
	out, err := imports.Process(name, src, nil)
	if err != nil {
		return nil, NewGenerationError("", "", "format "+name, err)
	}
	return out, nil
}

// WriteGoModel renders the Go model of s and writes it to path, creating
// the parent directory. When formatting fails the unformatted source is
// written next to path with an .error suffix.
func WriteGoModel(s *schema.Schema, path string, opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}
	src, err := renderGoModel(s, cfg)
	if err != nil {
		return err
	}
	out, err := format(filepath.Base(path), src)
	if err != nil {
		// Already failing; the debug copy is best effort.
		debugPath := path + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, src, 0o644)
		cfg.Logger.Error("go model formatting failed", zap.String("path", path), zap.String("unformatted", debugPath), zap.Error(err))
		return fmt.Errorf("%w (unformatted written to %s)", err, debugPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	cfg.Logger.Info("go model written", zap.String("path", path), zap.Int("bytes", len(out)))
	return nil
}
