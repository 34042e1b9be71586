// Package journal implements the append-only activity log. The journal
// file is the sole durable record of what the personas did; every
// statistic elsewhere in the system is derived by re-parsing it.
package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Kind classifies a journal event.
type Kind string

const (
	KindLogin     Kind = "LOGIN"
	KindLearn     Kind = "LEARN"
	KindInteract  Kind = "INTERACT"
	KindPost      Kind = "POST"
	KindScheduler Kind = "SCHEDULER"
)

// TimeLayout is the second-precision timestamp prefix of every line.
const TimeLayout = "2006-01-02 15:04:05"

// SuccessMarker is the free-text token that marks a countable outcome.
// Kept from the original journal vocabulary so existing journals parse.
const SuccessMarker = "成功"

// Scheduler cycle boundary markers carried in SCHEDULER event details.
const (
	CycleStartMarker = "开始执行"
	CycleDoneMarker  = "执行完成"
)

// PersonaTag formats the persona attribution token carried in the
// detail text, e.g. "persona=tech".
func PersonaTag(name string) string {
	return "persona=" + name
}

// Writer appends events to the journal file. A write failure is
// reported to the caller and logged there; it never aborts a cycle.
type Writer struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger *slog.Logger
}

// NewWriter creates a journal writer for the given file path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{path: path, now: time.Now, logger: logger}
}

// Append writes one event line. Lines are written whole and in call
// order; nothing previously written is ever touched.
func (w *Writer) Append(kind Kind, detail string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("journal: create log dir: %w", err)
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("journal: open: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] [%s] %s\n", w.now().Format(TimeLayout), kind, detail)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("journal: append: %w", err)
	}
	return nil
}

// Record appends an event and logs (instead of returning) any write
// failure. Losing a journal line is non-fatal to the running cycle.
func (w *Writer) Record(kind Kind, detail string) {
	if err := w.Append(kind, detail); err != nil {
		w.logger.Error("journal write failed", "kind", string(kind), "error", err)
	}
}

// Clear truncates the journal. This is the only destructive journal
// operation and is reachable only through the operator CLI.
func (w *Writer) Clear() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("journal: create log dir: %w", err)
	}
	if err := os.WriteFile(w.path, nil, 0o644); err != nil {
		return fmt.Errorf("journal: clear: %w", err)
	}
	return nil
}

// Line is one parsed journal event.
type Line struct {
	Time   time.Time
	Kind   Kind
	Detail string
	Raw    string
}

// Persona extracts the persona attribution tag from the detail text,
// or "" when the event is not attributed.
func (l Line) Persona() string {
	for _, field := range strings.Fields(l.Detail) {
		if name, ok := strings.CutPrefix(field, "persona="); ok {
			return name
		}
	}
	return ""
}

// Parse decodes one journal line. Malformed lines are reported via
// ok=false and are skipped by consumers, never rewritten.
func Parse(raw string) (Line, bool) {
	rest, ok := strings.CutPrefix(raw, "[")
	if !ok {
		return Line{}, false
	}
	ts, rest, ok := strings.Cut(rest, "] [")
	if !ok {
		return Line{}, false
	}
	kind, detail, ok := strings.Cut(rest, "] ")
	if !ok {
		// A line may have an empty detail: "[ts] [KIND]".
		kind, ok = strings.CutSuffix(rest, "]")
		if !ok {
			return Line{}, false
		}
		detail = ""
	}
	t, err := time.ParseInLocation(TimeLayout, ts, time.Local)
	if err != nil {
		return Line{}, false
	}
	return Line{Time: t, Kind: Kind(kind), Detail: detail, Raw: raw}, true
}

// Reader is a read-only view of the journal file.
type Reader struct {
	path string
}

// NewReader creates a journal reader for the given file path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the journal file location.
func (r *Reader) Path() string { return r.path }

// Raw returns every non-blank line in file order. A missing journal
// is an empty journal, not an error.
func (r *Reader) Raw() ([]string, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("journal: read: %w", err)
	}
	var lines []string
	for _, l := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// Lines returns every well-formed event in chronological (file) order.
func (r *Reader) Lines() ([]Line, error) {
	raw, err := r.Raw()
	if err != nil {
		return nil, err
	}
	var lines []Line
	for _, l := range raw {
		if parsed, ok := Parse(l); ok {
			lines = append(lines, parsed)
		}
	}
	return lines, nil
}

// Tail returns the last n raw lines in file order.
func (r *Reader) Tail(n int) ([]string, error) {
	raw, err := r.Raw()
	if err != nil {
		return nil, err
	}
	if n >= len(raw) {
		return raw, nil
	}
	return raw[len(raw)-n:], nil
}
