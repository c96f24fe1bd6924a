package audit

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"time"
)

// Structured data IDs. 32473 is the enterprise number reserved for
// documentation (RFC 5612).
const (
	SDIDToken  = "token@32473"
	SDIDKey    = "key@32473"
	SDIDAction = "action@32473"
)

// Syslog facility constants
const (
	FacilityAuth     = 4  // LOG_AUTH - security/authorization messages
	FacilityAuthPriv = 10 // LOG_AUTHPRIV - security/authorization messages (private)
)

// Severity levels matching syslog (RFC5424)
type Severity int

const (
	SeverityEmergency Severity = iota // 0
	SeverityAlert                     // 1
	SeverityCritical                  // 2
	SeverityError                     // 3
	SeverityWarning                   // 4
	SeverityNotice                    // 5
	SeverityInfo                      // 6
	SeverityDebug                     // 7
)

// Event represents an audit event
type Event interface {
	MessageID() string
	Message() string
	Severity() Severity
	Facility() int
	StructuredData() map[string]map[string]string
}

// Logger handles audit logging in RFC5424 syslog format
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	hostname string
	appName  string
	pid      int
	now      func() time.Time
}

// NewLogger creates a new audit logger writing to stderr
func NewLogger() *Logger {
	hostname, _ := os.Hostname()
	return &Logger{
		writer:   os.Stderr,
		hostname: hostname,
		appName:  "amtt",
		pid:      os.Getpid(),
		now:      time.Now,
	}
}

// SetWriter sets the output writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	l.writer = w
	l.mu.Unlock()
}

// Format renders event as one RFC5424 line:
// <PRI>1 TIMESTAMP HOSTNAME APP-NAME PROCID MSGID SD MSG
func (l *Logger) Format(event Event) string {
	return fmt.Sprintf("<%d>1 %s %s %s %d %s %s %s\n",
		event.Facility()*8+int(event.Severity()),
		l.now().UTC().Format("2006-01-02T15:04:05.000Z"),
		nilValue(l.hostname),
		l.appName,
		l.pid,
		event.MessageID(),
		nilValue(formatStructuredData(event.StructuredData())),
		event.Message(),
	)
}

// Log writes event to the logger's writer.
func (l *Logger) Log(event Event) {
	line := l.Format(event)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.writer, line)
}

// nilValue substitutes the RFC5424 NILVALUE for empty fields.
func nilValue(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatStructuredData renders [sdid key="value" ...] elements, sorted by
// SD-ID and then by parameter name.
func formatStructuredData(sd map[string]map[string]string) string {
	var b strings.Builder
	for _, sdid := range slices.Sorted(maps.Keys(sd)) {
		params := sd[sdid]
		b.WriteString("[" + sdid)
		for _, key := range slices.Sorted(maps.Keys(params)) {
			b.WriteString(" " + key + "=" + escapeSDValue(params[key]))
		}
		b.WriteString("]")
	}
	return b.String()
}

// sdEscaper escapes PARAM-VALUE characters (RFC5424 section 6.3.3).
var sdEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `]`, `\]`)

// escapeSDValue returns value quoted and escaped.
func escapeSDValue(value string) string {
	return `"` + sdEscaper.Replace(value) + `"`
}

// Default logger instance
var DefaultLogger = NewLogger()

// Default store for JSON-lines persistence (nil unless SetStore was called)
var DefaultStore *Store

var (
	stateMu      sync.RWMutex
	auditEnabled bool
)

// IsEnabled returns whether audit logging is enabled
func IsEnabled() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return auditEnabled
}

// SetEnabled turns audit logging on or off. It is off by default.
func SetEnabled(enabled bool) {
	stateMu.Lock()
	auditEnabled = enabled
	stateMu.Unlock()
}

// SetStore installs the store every logged event is also saved to.
func SetStore(store *Store) {
	stateMu.Lock()
	DefaultStore = store
	stateMu.Unlock()
}

// Log writes an event to the default logger and store (if audit is enabled)
func Log(event Event) {
	if !IsEnabled() {
		return
	}
	DefaultLogger.Log(event)

	stateMu.RLock()
	store := DefaultStore
	stateMu.RUnlock()

	if store != nil {
		if err := store.Save(event); err != nil {
			fmt.Fprintf(os.Stderr, "audit: failed to save event: %v\n", err)
		}
	}
}
