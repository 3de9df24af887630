package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/layerflow/internal/config"
	"github.com/specialistvlad/layerflow/internal/ctxlog"
	"github.com/specialistvlad/layerflow/internal/pipeline"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	defaultEvent   = "result"
	defaultTimeout = 15 * time.Second
)

// SocketIO emits the result to a socket.io server and, if an ack event is
// configured, waits for the server to answer with it.
type SocketIO struct {
	cfg config.SocketIO
}

// NewSocketIO validates cfg and fills in defaults.
func NewSocketIO(cfg config.SocketIO) (*SocketIO, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("socketio reporter: url is required")
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("socketio reporter: failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("socketio reporter: url %q must have a scheme and host", cfg.URL)
	}
	if cfg.Event == "" {
		cfg.Event = defaultEvent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &SocketIO{cfg: cfg}, nil
}

// Payload is the body of the emitted event.
func Payload(res pipeline.Result) map[string]any {
	return map[string]any{
		"x":        res.X,
		"result_a": res.A,
		"result_b": res.B,
	}
}

// Report implements Reporter.
func (s *SocketIO) Report(ctx context.Context, res pipeline.Result) error {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", s.cfg.URL)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	io, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer io.Disconnect()

	acked := make(chan []any, 1)
	if s.cfg.AckEvent != "" {
		io.Once(types.EventName(s.cfg.AckEvent), func(data ...any) {
			logger.Debug("Ack event received.", "event", s.cfg.AckEvent)
			acked <- data
		})
	}

	logger.Debug("Emitting result.", "event", s.cfg.Event, "x", res.X)
	if err := io.Emit(s.cfg.Event, Payload(res)); err != nil {
		return fmt.Errorf("socketio reporter: failed to emit %q: %w", s.cfg.Event, err)
	}
	if s.cfg.AckEvent == "" {
		logger.Info("📤 Result emitted", "event", s.cfg.Event)
		return nil
	}

	select {
	case <-acked:
		logger.Info("📤 Result acknowledged", "event", s.cfg.Event, "ack", s.cfg.AckEvent)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("socketio reporter: timed out after %v waiting for event '%s'", s.cfg.Timeout, s.cfg.AckEvent)
	}
}

func (s *SocketIO) connect(ctx context.Context) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", s.cfg.URL)

	parsedURL, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("socketio reporter: failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if s.cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(s.cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected.", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connection failed.", "error", err)
		select {
		case connected <- err:
		default:
		}
	})

	logger.Debug("Initiating connection.")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socketio reporter: connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("socketio reporter: waiting for connection: %w", ctx.Err())
	}
}
