// Package rcfile finds and runs the psqlrc startup files.
package rcfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"pgshell/internal/logger"
	"pgshell/internal/version"
	"pgshell/pkg/shelltypes"
)

const (
	systemFile = "psqlrc"
	userFile   = ".psqlrc"
)

// Options controls where Load looks. Zero fields take their defaults.
type Options struct {
	// SystemDir holds the system-wide psqlrc; defaults to DefaultSystemDir().
	SystemDir string
	// Home is the user's home directory; defaults to os.UserHomeDir.
	Home string
	// Getenv reads PSQLRC; defaults to os.Getenv.
	Getenv func(string) string
	// Minor and Major are the version suffixes tried first, e.g. "17.2" and "17".
	Minor string
	Major string
}

// DefaultSystemDir returns $PGSYSCONFDIR, or /etc/pgshell when it is unset.
func DefaultSystemDir() string {
	if dir := os.Getenv("PGSYSCONFDIR"); dir != "" {
		return dir
	}
	return "/etc/pgshell"
}

// Load runs the system psqlrc and then the user's, $PSQLRC or ~/.psqlrc.
// For each, the first readable of file-MINOR, file-MAJOR and file is used.
// Failures inside the files are reported by the processor and otherwise
// ignored. Load returns the files it ran.
func Load(ctx context.Context, processor shelltypes.FileProcessor, opts Options) []string {
	opts = opts.withDefaults()

	var ran []string
	run := func(base string) {
		path, ok := pick(base, opts.Minor, opts.Major)
		if !ok {
			logger.Debug("No startup file", "file", base)
			return
		}
		logger.Debug("Running startup file", "file", path)
		processor.ProcessFile(ctx, path, false)
		ran = append(ran, path)
	}

	if opts.SystemDir != "" {
		run(filepath.Join(opts.SystemDir, systemFile))
	}

	if envrc := opts.Getenv("PSQLRC"); envrc != "" {
		run(expandTilde(envrc, opts.Home))
	} else if opts.Home != "" {
		run(filepath.Join(opts.Home, userFile))
	}
	return ran
}

func (o Options) withDefaults() Options {
	if o.SystemDir == "" {
		o.SystemDir = DefaultSystemDir()
	}
	if o.Home == "" {
		o.Home, _ = os.UserHomeDir()
	}
	if o.Getenv == nil {
		o.Getenv = os.Getenv
	}
	if o.Minor == "" {
		o.Minor = version.Name()
	}
	if o.Major == "" {
		o.Major = version.Major()
	}
	return o
}

// pick returns the first readable of base-minor, base-major and base.
func pick(base, minor, major string) (string, bool) {
	for _, candidate := range []string{base + "-" + minor, base + "-" + major, base} {
		if readable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	info, err := f.Stat()
	return err == nil && !info.IsDir()
}

// ExpandTilde replaces a leading "~" or "~/" with the user's home directory.
// Paths naming another user's home ("~bob/x") are returned unchanged.
func ExpandTilde(path string) string {
	home, _ := os.UserHomeDir()
	return expandTilde(path, home)
}

func expandTilde(path, home string) string {
	if home == "" || !strings.HasPrefix(path, "~") {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
