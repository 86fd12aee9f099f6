// Package signal implements the global session-error broadcast: any part of
// the client can raise a "you must log in again" message, and exactly one
// subscriber (the re-auth prompt) consumes it. Raising with no subscriber
// mounted falls back to an injected last-resort handler so the notification
// is never silently dropped.
package signal

import "sync"

// DefaultMessage is used when a caller raises without a message.
const DefaultMessage = "Your session has expired. Please log in again."

// SessionError is the broadcast state. At most one subscriber is active at
// a time; a later Subscribe replaces the earlier one.
type SessionError struct {
	mu         sync.Mutex
	msg        string
	subscriber func(string)
	subGen     uint64
	fallback   func(string)
}

// New returns a SessionError whose fallback runs when Raise finds no
// subscriber. The fallback must surface the message to the user and steer
// them back to a recoverable state (the application root).
func New(fallback func(string)) *SessionError {
	return &SessionError{fallback: fallback}
}

// Raise sets the message and delivers it to the subscriber, or to the
// fallback when none is mounted. An empty message becomes DefaultMessage.
func (s *SessionError) Raise(msg string) {
	if msg == "" {
		msg = DefaultMessage
	}

	s.mu.Lock()
	s.msg = msg
	sub := s.subscriber
	fb := s.fallback
	s.mu.Unlock()

	switch {
	case sub != nil:
		sub(msg)
	case fb != nil:
		fb(msg)
	}
}

// Clear resets the message. Clearing when nothing is set is a no-op.
func (s *SessionError) Clear() {
	s.mu.Lock()
	s.msg = ""
	s.mu.Unlock()
}

// Message returns the current message, or "" when none is set.
func (s *SessionError) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msg
}

// Subscribe mounts fn as the single subscriber and returns an unsubscribe
// function. If a message is already pending it is delivered immediately, so
// a raise that races a mount is not lost. Subscribing again replaces the
// previous subscriber.
func (s *SessionError) Subscribe(fn func(string)) func() {
	s.mu.Lock()
	s.subscriber = fn
	s.subGen++
	gen := s.subGen
	pending := s.msg
	s.mu.Unlock()

	if pending != "" && fn != nil {
		fn(pending)
	}

	return func() {
		s.mu.Lock()
		// Only unmount if no newer subscriber has replaced us.
		if s.subGen == gen {
			s.subscriber = nil
		}
		s.mu.Unlock()
	}
}
