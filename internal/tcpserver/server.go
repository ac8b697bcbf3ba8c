package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

const (
	// DefaultAddr is the loopback address the issue feed listens on.
	DefaultAddr = "127.0.0.1:4000"

	// DefaultLineChannelSize is the default buffer size for received issue lines.
	DefaultLineChannelSize = 10_000

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single issue line.
	DefaultMaxLineSize = 1024 * 1024 // 1MB

	// DefaultMaxConnections caps concurrent feed connections.
	DefaultMaxConnections = 64
)

// ServerConfig holds tunable parameters for the TCP server.
type ServerConfig struct {
	LineChannelSize int
	MaxLineSize     int
	MaxConnections  int
}

// Server accepts newline-delimited JSON issues over TCP.
type Server struct {
	listener       net.Listener
	addr           string
	lineChan       chan model.IngestEnvelope
	maxLineSize    int
	maxConnections int
	active         atomic.Int64
	received       atomic.Int64
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
}

// NewServer creates a new TCP server. An empty addr means DefaultAddr.
func NewServer(addr string, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	lineChannelSize := DefaultLineChannelSize
	maxLineSize := DefaultMaxLineSize
	maxConnections := DefaultMaxConnections
	if len(conf) > 0 {
		if conf[0].LineChannelSize > 0 {
			lineChannelSize = conf[0].LineChannelSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
		if conf[0].MaxConnections > 0 {
			maxConnections = conf[0].MaxConnections
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:           addr,
		lineChan:       make(chan model.IngestEnvelope, lineChannelSize),
		maxLineSize:    maxLineSize,
		maxConnections: maxConnections,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start begins accepting TCP connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		if s.active.Load() >= int64(s.maxConnections) {
			log.Printf("tcpserver: rejecting %s, %d connections already open", conn.RemoteAddr(), s.maxConnections)
			conn.Close()
			continue
		}
		s.active.Add(1)
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.active.Add(-1)
	defer conn.Close()

	// Unblock the scanner when the server stops.
	go func() {
		<-s.ctx.Done()
		conn.Close()
	}()

	scanner := bufio.NewScanner(conn)
	buf := make([]byte, s.maxLineSize)
	scanner.Buffer(buf, s.maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case s.lineChan <- model.IngestEnvelope{Source: "tcp", Line: line}:
			s.received.Add(1)
		case <-s.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Printf("tcpserver: dropped connection %s, line exceeded %d bytes", conn.RemoteAddr(), s.maxLineSize)
			return
		}
		if s.ctx.Err() == nil {
			log.Printf("tcpserver: scanner error from %s: %v", conn.RemoteAddr(), err)
		}
	}
}

// Stop shuts the server down and closes Lines. Safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.cancel()
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		close(s.lineChan)
	})
	return nil
}

// Lines returns the channel of received issue lines.
func (s *Server) Lines() <-chan model.IngestEnvelope {
	return s.lineChan
}

// ActiveConnections returns the number of open feed connections.
func (s *Server) ActiveConnections() int64 {
	return s.active.Load()
}

// Received returns the number of lines accepted since start.
func (s *Server) Received() int64 {
	return s.received.Load()
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
