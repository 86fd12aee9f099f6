// Package notify abstracts the two user-facing surfaces the gateway needs:
// one-shot transient messages, and the host environment (current route,
// reload, navigate-to-root). Both are injected so tests can record instead
// of printing.
package notify

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Notifier surfaces a one-shot, user-facing message. Transient errors
// (rate limits, server errors, connectivity) go through here; they carry no
// state mutation and no escalation.
type Notifier interface {
	Notify(msg string)
}

// Env models the host the client runs in: the current logical route, a
// full restart of the current surface, and navigation back to the
// application root.
type Env interface {
	Path() string
	Reload()
	NavigateRoot()
}

// WriterNotifier prints messages to a terminal-style writer.
type WriterNotifier struct {
	mu sync.Mutex
	W  io.Writer
}

func (n *WriterNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.W, "! %s\n", msg)
}

// LogNotifier routes messages to the structured logger. Useful for
// headless/bot deployments where nobody watches a terminal.
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) Notify(msg string) {
	n.Log.Warn("user notice", "message", msg)
}

// FuncEnv is an Env built from plain functions. Nil hooks are no-ops.
type FuncEnv struct {
	PathFunc         func() string
	ReloadFunc       func()
	NavigateRootFunc func()
}

func (e *FuncEnv) Path() string {
	if e.PathFunc == nil {
		return "/"
	}
	return e.PathFunc()
}

func (e *FuncEnv) Reload() {
	if e.ReloadFunc != nil {
		e.ReloadFunc()
	}
}

func (e *FuncEnv) NavigateRoot() {
	if e.NavigateRootFunc != nil {
		e.NavigateRootFunc()
	}
}
