// Package logging sets up apex/log for sheetcalc
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel overrides the configured log level when set
const EnvLevel = "SHEETCALC_LOG"

// InitLogger sets up Apex with a custom handler writing to w and a log
// level taken from the SHEETCALC_LOG env variable, falling back to level.
func InitLogger(w io.Writer, level string) error {
	if env := os.Getenv(EnvLevel); env != "" {
		level = env
	}
	if level == "" {
		level = "error"
	}

	parsed, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	log.SetHandler(NewCustomHandler(w))
	log.SetLevel(parsed)
	return nil
}

// CustomHandler formats log messages as a single line with sorted
// key=value fields
type CustomHandler struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewCustomHandler creates a handler writing to w
func NewCustomHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{w: w, now: time.Now}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := h.now().Format("2006-01-02 15:04:05")
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp, level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields.Get(name))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}
