package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the console verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final report)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows per-account progress (default)
	LogLevelNormal
	// LogLevelVerbose shows every workflow step
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

// Console prints operator-facing progress lines. It is safe for concurrent use
// by the per-account workflows.
type Console struct {
	mu     sync.Mutex
	level  LogLevel
	writer io.Writer
	color  bool

	startTime time.Time
}

const (
	colorReset     = "\033[0m"
	colorCyan      = "\033[36m"
	colorSalmon    = "\033[38;5;217m" // Salmon pink #FFB3BA
	colorYellow    = "\033[33m"
	colorGray      = "\033[90m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
	colorBoldWhite = "\033[1;37m"
)

// NewConsole creates a console logger writing colored output to stdout.
func NewConsole(level LogLevel) *Console {
	return &Console{
		level:     level,
		writer:    os.Stdout,
		color:     true,
		startTime: time.Now(),
	}
}

// NewConsoleWriter creates an uncolored console logger writing to w.
func NewConsoleWriter(level LogLevel, w io.Writer) *Console {
	return &Console{
		level:     level,
		writer:    w,
		startTime: time.Now(),
	}
}

func (c *Console) paint(color, text string) string {
	if !c.color {
		return text
	}
	return color + text + colorReset
}

func (c *Console) println(at LogLevel, color, text string) {
	if c.level < at {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, c.paint(color, text))
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	rule := strings.Repeat("=", 70)
	c.println(LogLevelNormal, colorBoldWhite, rule+"\n  "+message+"\n"+rule)
}

// Section prints a section divider
func (c *Console) Section(title string) {
	c.println(LogLevelNormal, colorCyan, "\n▶ "+title+"\n"+strings.Repeat("─", 50))
}

// Successf prints a success message with checkmark
func (c *Console) Successf(format string, args ...interface{}) {
	c.println(LogLevelNormal, colorBoldGreen, "✓ "+fmt.Sprintf(format, args...))
}

// Infof prints an informational message
func (c *Console) Infof(format string, args ...interface{}) {
	c.println(LogLevelNormal, colorSalmon, fmt.Sprintf(format, args...))
}

// Warnf prints a warning message
func (c *Console) Warnf(format string, args ...interface{}) {
	c.println(LogLevelQuiet, colorYellow, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	c.println(LogLevelQuiet, colorBoldRed, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	c.println(LogLevelVerbose, colorGray, "→ "+fmt.Sprintf(format, args...))
}

// Debugf prints debug information (only in debug mode)
func (c *Console) Debugf(format string, args ...interface{}) {
	c.println(LogLevelDebug, colorGray, "[DEBUG] "+fmt.Sprintf(format, args...))
}

// Block prints a multi-line block verbatim, regardless of level.
func (c *Console) Block(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer)
	fmt.Fprintln(c.writer, text)
}

// Elapsed returns the time since the console was created.
func (c *Console) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

// ParseLogLevel converts a string log level to LogLevel type
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}
