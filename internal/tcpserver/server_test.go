package tcpserver

import (
	"fmt"
	"net"
	"testing"
	"time"
)

func TestNewServer_DefaultLocalhostAddress(t *testing.T) {
	t.Parallel()

	s := NewServer("")
	if got := s.Addr(); got != DefaultAddr {
		t.Fatalf("Addr() = %q, want %q", got, DefaultAddr)
	}
}

func TestNewServer_UsesConfiguredAddressAndBuffers(t *testing.T) {
	t.Parallel()

	s := NewServer("0.0.0.0:5000", ServerConfig{
		LineChannelSize: 64,
		MaxLineSize:     2048,
		MaxConnections:  3,
	})

	if got := s.Addr(); got != "0.0.0.0:5000" {
		t.Fatalf("Addr() = %q, want %q", got, "0.0.0.0:5000")
	}
	if got := cap(s.lineChan); got != 64 {
		t.Fatalf("line channel cap = %d, want %d", got, 64)
	}
	if got := s.maxLineSize; got != 2048 {
		t.Fatalf("max line size = %d, want %d", got, 2048)
	}
	if got := s.maxConnections; got != 3 {
		t.Fatalf("max connections = %d, want %d", got, 3)
	}
}

func TestServer_ReceivesLines(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	for i := 0; i < 3; i++ {
		fmt.Fprintf(conn, "{\"id\":\"%d\",\"description\":\"x\"}\n\n", i)
	}

	for i := 0; i < 3; i++ {
		select {
		case env := <-s.Lines():
			if env.Source != "tcp" {
				t.Fatalf("source = %q, want tcp", env.Source)
			}
			want := fmt.Sprintf("{\"id\":\"%d\",\"description\":\"x\"}", i)
			if env.Line != want {
				t.Fatalf("line = %q, want %q", env.Line, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}
	if s.Received() != 3 {
		t.Fatalf("Received = %d, want 3", s.Received())
	}
}

func TestServer_StopClosesLinesWithOpenConnection(t *testing.T) {
	t.Parallel()

	s := NewServer("127.0.0.1:0")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	conn, err := net.Dial("tcp", s.Addr())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		s.Stop()
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on open connection")
	}
	if _, ok := <-s.Lines(); ok {
		t.Fatal("expected closed lines channel")
	}
}
