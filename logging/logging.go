// Package logging sets up the daily log file and optional console output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logFileName returns the log file name for a given day, log-YYYY-MM-DD.log.
func logFileName(day time.Time) string {
	return fmt.Sprintf("log-%s.log", day.Format("2006-01-02"))
}

// New builds a logger writing JSON to today's file under logDir and, when
// console is true, human-readable lines to stdout. The returned func flushes
// and closes the file. The file is truncated on each start, matching the
// one-file-per-day behavior of the service this replaces.
func New(logDir string, console bool) (*zap.Logger, func(), error) {
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("could not create log directory %s: %w", logDir, err)
	}

	path := filepath.Join(logDir, logFileName(time.Now()))
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create log file %s: %w", path, err)
	}

	fileEnc := zap.NewProductionEncoderConfig()
	fileEnc.EncodeTime = zapcore.ISO8601TimeEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEnc), zapcore.AddSync(file), zap.InfoLevel),
	}

	if console {
		consoleEnc := zap.NewDevelopmentEncoderConfig()
		consoleEnc.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores,
			zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEnc), zapcore.Lock(os.Stdout), zap.InfoLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	cleanup := func() {
		logger.Sync()
		file.Close()
	}
	return logger, cleanup, nil
}

// CompressOld xz-compresses log files from previous days and removes the
// originals. Today's file and anything already compressed are left alone.
func CompressOld(logDir string) error {
	today := logFileName(time.Now())

	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read log directory %s: %w", logDir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == today {
			continue
		}
		if !strings.HasPrefix(name, "log-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		if err := compressFile(filepath.Join(logDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func compressFile(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.Create(path + ".xz")
	if err != nil {
		return fmt.Errorf("could not create %s.xz: %w", path, err)
	}

	w, err := xz.NewWriter(out)
	if err != nil {
		out.Close()
		return fmt.Errorf("could not start xz writer: %w", err)
	}

	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		out.Close()
		return fmt.Errorf("could not compress %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		out.Close()
		return fmt.Errorf("could not finish compressing %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not close %s.xz: %w", path, err)
	}

	return os.Remove(path)
}
