package controlserver

import (
	"bufio"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/drgolem/playout/internal/params"
	"github.com/drgolem/playout/pkg/engine"
)

type fakeEngine struct{}

func (fakeEngine) Status() engine.Status {
	return engine.Status{FallbackOn: true}
}

func startTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := params.Open(filepath.Join(t.TempDir(), "params.json"))
	if err != nil {
		t.Fatalf("params.Open: %v", err)
	}
	srv := New(fakeEngine{}, store, "127.0.0.1:0", "127.0.0.1:0")
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Stop)
	return srv
}

func TestTCPStatusCommand(t *testing.T) {
	srv := startTestServer(t)

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintln(conn, "status")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if reply == "" {
		t.Errorf("expected non-empty status reply")
	}
}

func TestTCPSetAndGetParam(t *testing.T) {
	srv := startTestServer(t)

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	fmt.Fprintln(conn, "set inputGain 3.0")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if reply != "ok\n" {
		t.Errorf("expected ok reply, got %q", reply)
	}

	got := srv.params.Get()
	if got.InputGainDB != 3.0 {
		t.Errorf("expected persisted inputGain 3.0, got %v", got.InputGainDB)
	}
}

func TestTCPQuitClosesConnection(t *testing.T) {
	srv := startTestServer(t)

	conn, err := net.Dial("tcp", srv.ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	fmt.Fprintln(conn, "quit")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if reply != "bye\n" {
		t.Errorf("expected bye reply, got %q", reply)
	}
}
