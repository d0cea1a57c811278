package session_test

import (
	"testing"

	"github.com/relaylsp/relay/session"
)

func TestLifecycleOK(t *testing.T) {
	m := session.New()

	if v := m.ClassifyRequest("initialize"); v != session.HandleInitialize {
		t.Fatalf("initialize: got %v, want HandleInitialize", v)
	}
	if got := m.Snapshot(); got != session.Initializing {
		t.Fatalf("state after initialize request: got %v, want Initializing", got)
	}
	m.FinishInitialize(true)
	if got := m.Snapshot(); got != session.Initialized {
		t.Fatalf("state after successful initialize: got %v, want Initialized", got)
	}

	if v := m.ClassifyRequest("shutdown"); v != session.HandleShutdown {
		t.Fatalf("shutdown: got %v, want HandleShutdown", v)
	}
	m.AcceptShutdown()
	if got := m.Snapshot(); got != session.ShutdownRequested {
		t.Fatalf("state after shutdown: got %v, want ShutdownRequested", got)
	}

	if v := m.ClassifyNotification("exit"); v != session.HandleExit {
		t.Fatalf("exit: got %v, want HandleExit", v)
	}
	if prior := m.Exit(); !prior {
		t.Fatalf("Exit() reported no prior shutdown, want true")
	}
	if got := m.Snapshot(); got != session.Exited {
		t.Fatalf("state after exit: got %v, want Exited", got)
	}
}

func TestEarlyRequestRejected(t *testing.T) {
	m := session.New()
	if v := m.ClassifyRequest("textDocument/hover"); v != session.RejectNotInitialized {
		t.Fatalf("got %v, want RejectNotInitialized", v)
	}
	if got := m.Snapshot(); got != session.Uninitialized {
		t.Fatalf("state should remain Uninitialized, got %v", got)
	}
}

func TestDoubleInitialize(t *testing.T) {
	m := session.New()
	m.ClassifyRequest("initialize")
	m.FinishInitialize(true)

	if v := m.ClassifyRequest("initialize"); v != session.RejectInvalidRequest {
		t.Fatalf("second initialize: got %v, want RejectInvalidRequest", v)
	}
}

func TestShutdownThenAnyRequestRejected(t *testing.T) {
	m := session.New()
	m.ClassifyRequest("initialize")
	m.FinishInitialize(true)
	m.ClassifyRequest("shutdown")
	m.AcceptShutdown()

	if v := m.ClassifyRequest("textDocument/hover"); v != session.RejectInvalidRequest {
		t.Fatalf("got %v, want RejectInvalidRequest", v)
	}
	if v := m.ClassifyRequest("shutdown"); v != session.RejectInvalidRequest {
		t.Fatalf("second shutdown: got %v, want RejectInvalidRequest", v)
	}
}

func TestExitWithoutShutdownReportsNoPriorShutdown(t *testing.T) {
	m := session.New()
	if prior := m.Exit(); prior {
		t.Fatalf("Exit() reported prior shutdown, want false")
	}
}

func TestCancelRequestDroppedBeforeInitialized(t *testing.T) {
	m := session.New()
	if v := m.ClassifyNotification("$/cancelRequest"); v != session.Drop {
		t.Fatalf("got %v, want Drop", v)
	}
}

func TestNonExitNotificationDroppedBeforeInitialized(t *testing.T) {
	m := session.New()
	if v := m.ClassifyNotification("textDocument/didOpen"); v != session.Drop {
		t.Fatalf("got %v, want Drop", v)
	}
}

func TestFailedInitializeReturnsToUninitialized(t *testing.T) {
	m := session.New()
	m.ClassifyRequest("initialize")
	m.FinishInitialize(false)
	if got := m.Snapshot(); got != session.Uninitialized {
		t.Fatalf("state after failed initialize: got %v, want Uninitialized", got)
	}
}
