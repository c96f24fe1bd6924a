package audit

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Store appends audit messages to a file as JSON lines
type Store struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// Message represents an audit message for persistence
type Message struct {
	Facility  int                          `json:"facility"`
	Severity  int                          `json:"severity"`
	Timestamp time.Time                    `json:"timestamp"`
	Hostname  string                       `json:"hostname"`
	Appname   string                       `json:"appname"`
	Procid    int                          `json:"procid"`
	Msgid     string                       `json:"msgid"`
	Sdata     map[string]map[string]string `json:"sdata"`
	Message   string                       `json:"message"`
}

// NewStore opens path for appending, creating it with 0600 if needed.
// Returns nil if path is empty (audit file disabled).
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &Store{w: f, closer: f, now: time.Now}, nil
}

// NewStoreWithWriter creates a store over an existing writer
// Useful for testing
func NewStoreWithWriter(w io.Writer) *Store {
	return &Store{w: w, now: time.Now}
}

// Close closes the underlying file
func (s *Store) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// Save persists an audit event
func (s *Store) Save(event Event) error {
	hostname, _ := os.Hostname()

	line, err := json.Marshal(Message{
		Facility:  event.Facility(),
		Severity:  int(event.Severity()),
		Timestamp: s.now().UTC(),
		Hostname:  hostname,
		Appname:   "amtt",
		Procid:    os.Getpid(),
		Msgid:     event.MessageID(),
		Sdata:     event.StructuredData(),
		Message:   event.Message(),
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(append(line, '\n'))
	return err
}
