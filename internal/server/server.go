package server

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/gnet/v2"
	"github.com/valyala/bytebufferpool"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lojhan/hashtable/internal/resp"
)

const (
	DefaultPort = "6379"
)

var ErrNotRunning = errors.New("server is not running")

type CommandHandler func(args []resp.Value) resp.Value

type Config struct {
	Port      string
	Multicore bool
	ReusePort bool
}

// Server speaks RESP over gnet event loops. Handlers may run on several
// loops at once, so anything they share must do its own locking.
type Server struct {
	gnet.BuiltinEventEngine

	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	handlers map[string]CommandHandler
	engine   gnet.Engine
	running  bool
	stopped  bool
	// pendingStop is set when Stop arrives before the engine has booted.
	pendingStop bool
	ready       chan struct{}

	connected   atomic.Int64
	connections atomic.Int64
	commands    atomic.Int64
}

func NewServer(cfg Config, logger *zap.Logger) *Server {
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: make(map[string]CommandHandler),
		ready:    make(chan struct{}),
	}
}

func (s *Server) RegisterCommand(name string, handler CommandHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToUpper(name)] = handler
}

func (s *Server) GetHandler(name string) CommandHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[strings.ToUpper(name)]
}

// Commands returns the registered command names in sorted order.
func (s *Server) Commands() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start runs the event loops and blocks until the server is stopped.
func (s *Server) Start() error {
	addr := "tcp://:" + s.cfg.Port
	err := gnet.Run(s, addr,
		gnet.WithMulticore(s.cfg.Multicore),
		gnet.WithReusePort(s.cfg.ReusePort),
		gnet.WithTCPNoDelay(gnet.TCPNoDelay),
		gnet.WithLogger(s.logger.Sugar()),
	)
	if err != nil {
		return fmt.Errorf("failed to serve on port %s: %w", s.cfg.Port, err)
	}
	return nil
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop shuts the engine down. Called before the listener is bound, it makes
// the server shut down as soon as it boots.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.stopped = true
	if !s.running {
		s.pendingStop = true
		s.mu.Unlock()
		return nil
	}
	s.running = false
	eng := s.engine
	s.mu.Unlock()

	if err := eng.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop engine: %w", err)
	}
	return nil
}

func (s *Server) OnBoot(eng gnet.Engine) gnet.Action {
	s.mu.Lock()
	s.engine = eng
	pending := s.pendingStop
	s.running = !pending
	s.mu.Unlock()

	if pending {
		s.logger.Info("stop requested before boot, shutting down")
		close(s.ready)
		return gnet.Shutdown
	}

	s.logger.Info("server listening",
		zap.String("port", s.cfg.Port),
		zap.Bool("multicore", s.cfg.Multicore),
	)
	close(s.ready)
	return gnet.None
}

func (s *Server) OnShutdown(eng gnet.Engine) {
	s.logger.Info("server stopped")
}

func (s *Server) OnOpen(c gnet.Conn) ([]byte, gnet.Action) {
	s.connected.Inc()
	s.connections.Inc()
	s.logger.Debug("client connected", zap.Stringer("addr", c.RemoteAddr()))
	return nil, gnet.None
}

func (s *Server) OnClose(c gnet.Conn, err error) gnet.Action {
	s.connected.Dec()
	if err != nil {
		s.logger.Debug("client disconnected", zap.Stringer("addr", c.RemoteAddr()), zap.Error(err))
	} else {
		s.logger.Debug("client disconnected", zap.Stringer("addr", c.RemoteAddr()))
	}
	return gnet.None
}

func (s *Server) OnTraffic(c gnet.Conn) gnet.Action {
	in, err := c.Peek(-1)
	if err != nil {
		s.logger.Warn("failed to read inbound buffer", zap.Error(err))
		return gnet.Close
	}

	out := bytebufferpool.Get()
	defer bytebufferpool.Put(out)

	consumed, procErr := s.process(in, out)
	if _, err := c.Discard(consumed); err != nil {
		s.logger.Warn("failed to discard inbound bytes", zap.Error(err))
		return gnet.Close
	}

	if out.Len() > 0 {
		if _, err := c.Write(out.B); err != nil {
			s.logger.Warn("failed to write response", zap.Stringer("addr", c.RemoteAddr()), zap.Error(err))
			return gnet.Close
		}
	}

	if procErr != nil {
		s.logger.Info("closing client after protocol error",
			zap.Stringer("addr", c.RemoteAddr()),
			zap.Error(procErr),
		)
		return gnet.Close
	}
	return gnet.None
}

// process answers every complete frame at the start of in and returns how
// many bytes were used. A trailing partial frame is left for the next call.
func (s *Server) process(in []byte, out *bytebufferpool.ByteBuffer) (int, error) {
	consumed := 0
	for consumed < len(in) {
		value, n, err := resp.Decode(in[consumed:])
		if errors.Is(err, resp.ErrIncomplete) {
			break
		}
		if err != nil {
			resp.ErrorValue("ERR protocol error").Encode(out)
			return len(in), err
		}
		consumed += n

		s.processCommand(value).Encode(out)
	}
	return consumed, nil
}

func (s *Server) processCommand(value resp.Value) resp.Value {
	if value.Type != resp.Array {
		return resp.ErrorValue("ERR protocol error: expected array")
	}

	if len(value.Array) == 0 {
		return resp.ErrorValue("ERR empty command")
	}

	cmdValue := value.Array[0]
	if cmdValue.Type != resp.BulkString {
		return resp.ErrorValue("ERR protocol error: command must be bulk string")
	}

	cmdName := strings.ToUpper(cmdValue.Str)
	handler := s.GetHandler(cmdName)
	if handler == nil {
		return resp.ErrorValue(fmt.Sprintf("ERR unknown command '%s'", cmdName))
	}

	s.commands.Inc()
	return handler(value.Array[1:])
}

func (s *Server) ConnectedClients() int64 {
	return s.connected.Load()
}

func (s *Server) TotalConnections() int64 {
	return s.connections.Load()
}

func (s *Server) CommandsProcessed() int64 {
	return s.commands.Load()
}
