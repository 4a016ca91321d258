// Package controlserver exposes two operator-facing surfaces over the
// running Engine: a JSON REST API (built on gin, following the handler
// conventions in arung-agamani-denpa-radio's internal/radio/handler
// package) and a plain TCP line-oriented command stream, matching the
// original's bare socket server with no framework on that side.
package controlserver

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/drgolem/playout/pkg/engine"
	"github.com/drgolem/playout/internal/params"
)

// StatusSource is the subset of *engine.Engine the control server reads.
type StatusSource interface {
	Status() engine.Status
}

// Server owns the REST listener and the TCP line-protocol listener.
type Server struct {
	eng    StatusSource
	params *params.Store

	httpAddr   string
	socketPath string

	mu      sync.Mutex
	token   string
	httpSrv *http.Server
	ln      net.Listener
	wg      sync.WaitGroup
}

// New creates a Server bound to eng and the persisted params store. Neither
// listener is opened until Start.
func New(eng StatusSource, store *params.Store, httpAddr, socketPath string) *Server {
	return &Server{
		eng:        eng,
		params:     store,
		httpAddr:   httpAddr,
		socketPath: socketPath,
		token:      newToken(),
	}
}

// Start opens the REST listener and the TCP command listener, each on its
// own goroutine.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/status", s.handleStatus)
	r.GET("/params", s.handleGetParams)
	r.PUT("/params", s.handlePutParams)
	r.GET("/token", s.handleToken)

	s.httpSrv = &http.Server{Addr: s.httpAddr, Handler: r}

	ln, err := net.Listen("tcp", s.socketPath)
	if err != nil {
		return fmt.Errorf("controlserver: listen %s: %w", s.socketPath, err)
	}
	s.ln = ln

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("controlserver: http server failed", "error", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ln)
	}()

	slog.Info("controlserver started", "http_addr", s.httpAddr, "socket", s.socketPath)
	return nil
}

// Stop closes both listeners and waits for their goroutines to exit.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.wg.Wait()
	slog.Info("controlserver stopped")
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": s.eng.Status()})
}

func (s *Server) handleGetParams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "params": s.params.Get()})
}

func (s *Server) handlePutParams(c *gin.Context) {
	var p params.Params
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "invalid request body"})
		return
	}
	if err := s.params.Set(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "params": s.params.Get()})
}

func (s *Server) handleToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "token": s.token})
}

func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// acceptLoop serves the `status` / `set <param> <value>` / `quit`
// line protocol, one goroutine per connection.
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	w := bufio.NewWriter(conn)
	defer w.Flush()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit":
			fmt.Fprintln(w, "bye")
			w.Flush()
			return
		case "status":
			st := s.eng.Status()
			fmt.Fprintf(w, "fallback=%v recording=%v streaming=%v silence=%v\n",
				st.FallbackOn, st.Recording, st.Streaming, st.SilenceNow)
		case "set":
			s.handleSet(w, fields)
		default:
			fmt.Fprintf(w, "error: unknown command %q\n", fields[0])
		}
		w.Flush()
	}
}

func (s *Server) handleSet(w *bufio.Writer, fields []string) {
	if len(fields) != 3 {
		fmt.Fprintln(w, "error: usage: set <param> <value>")
		return
	}
	value, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		fmt.Fprintf(w, "error: invalid value %q\n", fields[2])
		return
	}
	p := s.params.Get()
	switch fields[1] {
	case "inputGain":
		p.InputGainDB = value
	case "outputGain":
		p.OutputGainDB = value
	default:
		fmt.Fprintf(w, "error: unknown param %q\n", fields[1])
		return
	}
	if err := s.params.Set(p); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	fmt.Fprintln(w, "ok")
}
