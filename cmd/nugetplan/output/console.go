package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Verbosity levels
type Verbosity int

const (
	// VerbosityQuiet shows errors only
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows errors, warnings, and the plan (default)
	VerbosityNormal
	// VerbosityDetailed shows above + resolver decisions
	VerbosityDetailed
	// VerbosityDiagnostic shows above + source lookups and timing
	VerbosityDiagnostic
)

// ParseVerbosity maps quiet, normal, detailed or diagnostic (or their first
// letter) to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(s) {
	case "q", "quiet":
		return VerbosityQuiet, nil
	case "", "n", "normal":
		return VerbosityNormal, nil
	case "d", "detailed":
		return VerbosityDetailed, nil
	case "diag", "diagnostic":
		return VerbosityDiagnostic, nil
	default:
		return VerbosityNormal, fmt.Errorf("invalid verbosity %q (want quiet, normal, detailed or diagnostic)", s)
	}
}

// Console provides output abstraction
type Console struct {
	out       io.Writer
	err       io.Writer
	verbosity Verbosity
	mu        sync.Mutex
	colors    bool
}

// NewConsole creates a new console
func NewConsole(out, err io.Writer, verbosity Verbosity) *Console {
	c := &Console{
		out:       out,
		err:       err,
		verbosity: verbosity,
		colors:    IsColorEnabled(out),
	}

	if !c.colors {
		DisableColors()
	}

	return c
}

// DefaultConsole creates a console with stdout/stderr and normal verbosity
func DefaultConsole() *Console {
	return NewConsole(os.Stdout, os.Stderr, VerbosityNormal)
}

// Out returns the writer for regular output.
func (c *Console) Out() io.Writer { return c.out }

// Err returns the writer for diagnostics.
func (c *Console) Err() io.Writer { return c.err }

// SetVerbosity sets the verbosity level
func (c *Console) SetVerbosity(v Verbosity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verbosity = v
}

// GetVerbosity returns the current verbosity level
func (c *Console) GetVerbosity() Verbosity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verbosity
}

// SetColors enables or disables color output
func (c *Console) SetColors(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.colors = enabled
	if enabled {
		EnableColors()
	} else {
		DisableColors()
	}
}

// Println writes line to output
func (c *Console) Println(a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, a...)
}

// Printf writes formatted output
func (c *Console) Printf(format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, a...)
}

// Header writes a bold section heading
func (c *Console) Header(format string, a ...any) {
	if c.GetVerbosity() < VerbosityNormal {
		return
	}
	c.write(c.out, ColorHeader, "", format, a...)
}

// Success writes success message (green)
func (c *Console) Success(format string, a ...any) {
	if c.GetVerbosity() < VerbosityNormal {
		return
	}
	c.write(c.out, ColorSuccess, "", format, a...)
}

// Error writes error message (red)
func (c *Console) Error(format string, a ...any) {
	c.write(c.err, ColorError, "Error: ", format, a...)
}

// Warning writes warning message (yellow)
func (c *Console) Warning(format string, a ...any) {
	if c.GetVerbosity() < VerbosityNormal {
		return
	}
	c.write(c.err, ColorWarning, "Warning: ", format, a...)
}

// Info writes info message (cyan)
func (c *Console) Info(format string, a ...any) {
	if c.GetVerbosity() < VerbosityNormal {
		return
	}
	c.write(c.out, ColorInfo, "", format, a...)
}

// Detail writes detailed message
func (c *Console) Detail(format string, a ...any) {
	if c.GetVerbosity() < VerbosityDetailed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", a...)
}

// Debug writes debug message (white)
func (c *Console) Debug(format string, a ...any) {
	if c.GetVerbosity() < VerbosityDiagnostic {
		return
	}
	c.write(c.out, ColorDebug, "[DEBUG] ", format, a...)
}

func (c *Console) write(w io.Writer, col colorPrinter, prefix, format string, a ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.colors {
		_, _ = col.Fprintf(w, prefix+format+"\n", a...)
		return
	}
	fmt.Fprintf(w, prefix+format+"\n", a...)
}

type colorPrinter interface {
	Fprintf(w io.Writer, format string, a ...any) (int, error)
}
