// Package session implements the LSP lifecycle state machine: the single
// writer that tracks uninitialized/initializing/initialized/shutdown/exited
// transitions and the error codes that apply to requests made in the wrong
// state. It has no knowledge of JSON-RPC framing or transport; callers feed
// it events and ask it what to do.
package session

import "sync"

// State is one of the five LSP session states.
type State int

const (
	// Uninitialized is the state before the client's initialize request
	// has been accepted.
	Uninitialized State = iota
	// Initializing is the transient state while the initialize handler
	// is running.
	Initializing
	// Initialized is the steady state in which ordinary requests are served.
	Initialized
	// ShutdownRequested is entered once the client sends shutdown and the
	// server has replied Ok(null); every request is rejected from here on,
	// while notifications (including exit) are still dispatched.
	ShutdownRequested
	// Exited is terminal; the server loop has stopped.
	Exited
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Initialized:
		return "initialized"
	case ShutdownRequested:
		return "shutdown-requested"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// Verdict tells the dispatcher what to do with a message under the current
// state, without the machine needing to know about JSON-RPC at all.
type Verdict int

const (
	// Proceed means: dispatch this message to its handler normally.
	Proceed Verdict = iota
	// RejectNotInitialized means: reply with ServerNotInitialized (requests only).
	RejectNotInitialized
	// RejectInvalidRequest means: reply with InvalidRequest (requests only).
	RejectInvalidRequest
	// Drop means: silently discard (notifications only).
	Drop
	// HandleInitialize means: this is the initialize request; run the
	// special-cased initialize flow.
	HandleInitialize
	// HandleShutdown means: this is the shutdown request; run the
	// special-cased shutdown flow.
	HandleShutdown
	// HandleExit means: this is the exit notification; terminate the loop.
	HandleExit
)

// Machine is the single-writer LSP session state machine described in
// spec.md §4.3. All mutating methods must be called from one logical
// owner (the dispatcher's message loop); concurrent readers use Snapshot.
type Machine struct {
	mu    sync.RWMutex
	state State
	// sawShutdown records whether ShutdownRequested was reached before
	// exit, which determines the process exit code.
	sawShutdown bool
}

// New creates a machine in the Uninitialized state.
func New() *Machine {
	return &Machine{state: Uninitialized}
}

// Snapshot returns the current state for advisory, non-authoritative reads
// from other goroutines (spec.md §5: "reads from other tasks go through an
// atomic snapshot sufficient for advisory checks").
func (m *Machine) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ClassifyRequest decides what should happen to an inbound request with the
// given method name, given the current state. The only transition it makes
// itself is Uninitialized -> Initializing when it returns HandleInitialize;
// callers complete transitions via FinishInitialize or AcceptShutdown once
// the handler's outcome is known.
func (m *Machine) ClassifyRequest(method string) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch method {
	case "initialize":
		if m.state == Uninitialized {
			m.state = Initializing
			return HandleInitialize
		}
		// A second initialize after the first succeeded (or while a
		// third races in) is rejected per spec.md's transition table.
		return RejectInvalidRequest
	case "shutdown":
		switch m.state {
		case Initialized:
			return HandleShutdown
		case ShutdownRequested:
			return RejectInvalidRequest
		default:
			return RejectNotInitialized
		}
	}

	switch m.state {
	case Uninitialized, Initializing:
		return RejectNotInitialized
	case Initialized:
		return Proceed
	case ShutdownRequested:
		return RejectInvalidRequest
	default:
		return RejectInvalidRequest
	}
}

// ClassifyNotification decides what should happen to an inbound
// notification with the given method name.
func (m *Machine) ClassifyNotification(method string) Verdict {
	m.mu.Lock()
	defer m.mu.Unlock()

	if method == "exit" {
		return HandleExit
	}
	if method == "$/cancelRequest" {
		if m.state == Uninitialized || m.state == Initializing {
			return Drop
		}
		return Proceed
	}

	switch m.state {
	case Uninitialized, Initializing:
		return Drop
	default:
		return Proceed
	}
}

// FinishInitialize completes the Initializing -> Initialized (or, on
// failure, -> Uninitialized) transition once the initialize handler returns.
func (m *Machine) FinishInitialize(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Initializing {
		return
	}
	if ok {
		m.state = Initialized
	} else {
		m.state = Uninitialized
	}
}

// AcceptShutdown completes the Initialized -> ShutdownRequested transition.
func (m *Machine) AcceptShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Initialized {
		m.state = ShutdownRequested
		m.sawShutdown = true
	}
}

// Exit completes the transition to Exited and reports whether a prior
// shutdown had been accepted, which determines the process exit code
// (spec.md §4.3 / §6).
func (m *Machine) Exit() (priorShutdown bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	priorShutdown = m.sawShutdown
	m.state = Exited
	return priorShutdown
}
