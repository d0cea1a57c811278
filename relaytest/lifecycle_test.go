package relaytest_test

import (
	"time"

	"testing"

	"github.com/relaylsp/relay"
	"github.com/relaylsp/relay/relaytest"
)

func TestClientShutdownThenExitReportsOk(t *testing.T) {
	s := relay.NewServer("test-server", "0.1.0")
	c := relaytest.NewClient(t, s)

	c.Shutdown()
	if code := c.Exit(2 * time.Second); code != relay.ExitOk {
		t.Fatalf("got exit code %v, want ExitOk", code)
	}
}
