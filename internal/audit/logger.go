package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Action string

const (
	ActionLogin             Action = "auth.login"
	ActionLogout            Action = "auth.logout"
	ActionPostStatus        Action = "post.status"
	ActionPostPublish       Action = "post.publish"
	ActionPostDelete        Action = "post.delete"
	ActionAccountConnect    Action = "account.connect"
	ActionAccountDisconnect Action = "account.disconnect"
	ActionAdminRole         Action = "admin.role"
	ActionContentDelete     Action = "content.delete"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomePending = "pending"
)

type Event struct {
	At      string `json:"at"`
	Actor   string `json:"actor"`
	Action  Action `json:"action"`
	Target  string `json:"target,omitempty"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Logger appends events to a JSON-lines file. A Logger with no path records
// nothing.
type Logger struct {
	path    string
	nowFunc func() time.Time
	mu      sync.Mutex
}

func NewLogger(path string) *Logger {
	return &Logger{path: path, nowFunc: time.Now}
}

func (l *Logger) Enabled() bool { return l != nil && l.path != "" }

// Record writes one event. The outcome and detail come from err: nil is a
// success, anything else is a failure carrying the error text.
func (l *Logger) Record(actor string, action Action, target string, err error) error {
	e := Event{Actor: actor, Action: action, Target: target, Outcome: OutcomeSuccess}
	if err != nil {
		e.Outcome = OutcomeFailed
		e.Detail = err.Error()
	}
	return l.Log(e)
}

// RecordPending writes an action that was accepted but had not finished when
// the console stopped following it.
func (l *Logger) RecordPending(actor string, action Action, target, detail string) error {
	return l.Log(Event{Actor: actor, Action: action, Target: target, Outcome: OutcomePending, Detail: detail})
}

func (l *Logger) Log(e Event) error {
	if !l.Enabled() {
		return nil
	}
	if e.At == "" {
		e.At = l.nowFunc().UTC().Format(time.RFC3339)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("mkdir audit log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write audit log entry: %w", err)
	}
	return nil
}

// Recent returns up to n of the newest events, oldest first. Lines that do
// not decode are skipped. A missing file yields no events.
func (l *Logger) Recent(n int) ([]Event, error) {
	if !l.Enabled() || n <= 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open audit log file: %w", err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		events = append(events, e)
		if len(events) > n {
			events = events[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read audit log file: %w", err)
	}
	return events, nil
}
