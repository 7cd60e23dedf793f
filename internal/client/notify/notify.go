// Package notify is a single-slot, auto-dismissing notification channel.
// A new message replaces the current one.
package notify

import (
	"sync"
	"time"
)

type Severity int

const (
	Info Severity = iota
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

type Message struct {
	Severity Severity
	Text     string
}

// Sink receives every published message, for example to print it.
type Sink func(Message)

type Notifier struct {
	ttl  time.Duration
	sink Sink

	mu      sync.Mutex
	current *Message
	gen     uint64
	timer   *time.Timer
}

// New returns a Notifier that dismisses messages after ttl. A ttl <= 0 keeps
// messages until replaced or dismissed. sink may be nil.
func New(ttl time.Duration, sink Sink) *Notifier {
	return &Notifier{ttl: ttl, sink: sink}
}

func (n *Notifier) Notify(sev Severity, text string) {
	m := Message{Severity: sev, Text: text}

	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.current = &m
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.ttl > 0 {
		n.timer = time.AfterFunc(n.ttl, func() { n.expire(gen) })
	}
	n.mu.Unlock()

	if n.sink != nil {
		n.sink(m)
	}
}

func (n *Notifier) Info(text string)    { n.Notify(Info, text) }
func (n *Notifier) Success(text string) { n.Notify(Success, text) }
func (n *Notifier) Error(text string)   { n.Notify(Error, text) }

// Current returns the visible message, if any.
func (n *Notifier) Current() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Message{}, false
	}
	return *n.current, true
}

// Dismiss hides the current message.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.gen++
	n.current = nil
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) expire(gen uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return
	}
	n.current = nil
	n.timer = nil
}
