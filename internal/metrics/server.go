package metrics

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/negurvulkan/BeichtBot/internal/logging"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Server exposes /metrics and /healthz.
type Server struct {
	addr    string
	ln      net.Listener
	server  *fasthttp.Server
	metrics fasthttp.RequestHandler
	ready   atomic.Bool
}

func NewServer(addr string) *Server {
	s := &Server{
		addr:    addr,
		metrics: fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})),
	}
	s.server = &fasthttp.Server{
		Handler:      s.handle,
		Name:         "beichtbot",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// SetReady flips the /healthz answer. The bot marks itself ready once the
// Discord session is open.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/metrics":
		s.metrics(ctx)
	case "/healthz":
		if !s.ready.Load() {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString("starting\n")
			return
		}
		ctx.SetBodyString("ok\n")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// Start binds the listen address and serves in the background until
// Shutdown is called. Bind errors are returned to the caller.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind metrics address %s: %w", s.addr, err)
	}
	s.ln = ln
	go func() {
		if err := s.server.Serve(ln); err != nil {
			logging.Error("Metrics server stopped: %v", err)
		}
	}()
	return nil
}

// Addr is the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

func (s *Server) Shutdown() error {
	if err := s.server.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop metrics server: %w", err)
	}
	return nil
}
