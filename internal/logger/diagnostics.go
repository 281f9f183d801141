package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Diagnostics is the user-facing error channel. Every message is written as
// "progname: level: message", or "progname:file:line: level: message" while
// a file is being read, and mirrored to the debug log.
type Diagnostics struct {
	progname string
	w        io.Writer
	color    bool
	locus    func() (string, int)
}

// NewDiagnostics creates a diagnostic sink writing to w.
// Colouring follows PG_COLOR: "always" colours, "auto" colours terminals, anything else never.
func NewDiagnostics(progname string, w io.Writer) *Diagnostics {
	return &Diagnostics{
		progname: progname,
		w:        w,
		color:    colorEnabled(os.Getenv("PG_COLOR"), w),
	}
}

func colorEnabled(mode string, w io.Writer) bool {
	switch strings.ToLower(mode) {
	case "always":
		return true
	case "auto":
		f, ok := w.(*os.File)
		return ok && term.IsTerminal(int(f.Fd()))
	default:
		return false
	}
}

// SetLocus installs a callback reporting the file and line currently being read.
// A callback returning an empty file name means there is no locus.
func (d *Diagnostics) SetLocus(locus func() (string, int)) {
	d.locus = locus
}

// Errorf reports an error.
func (d *Diagnostics) Errorf(format string, args ...any) {
	d.emit("error", "1", format, args...)
}

// Warnf reports a warning.
func (d *Diagnostics) Warnf(format string, args ...any) {
	d.emit("warning", "5", format, args...)
}

func (d *Diagnostics) emit(level, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Debug("Diagnostic", "level", level, "message", msg)

	prefix := d.progname
	if d.locus != nil {
		if file, line := d.locus(); file != "" {
			prefix = fmt.Sprintf("%s:%s:%d", d.progname, file, line)
		}
	}

	label := level + ":"
	if d.color {
		prefix = termenv.String(prefix).Bold().String()
		label = termenv.String(label).Foreground(termenv.ANSI.Color(color)).Bold().String()
	}

	_, _ = fmt.Fprintf(d.w, "%s: %s %s\n", prefix, label, msg)
}
