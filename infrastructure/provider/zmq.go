package provider

import (
	"context"
	"sync"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// ZMQClient speaks the query protocol over a ZeroMQ REQ socket. One request is in
// flight at a time; a failed exchange tears the socket down and the next call redials.
type ZMQClient struct {
	endpoint string
	timeout  time.Duration

	mu     sync.Mutex
	sock   zmq4.Socket
	cancel context.CancelFunc
	closed bool
}

// NewZMQClient creates a client for endpoint, e.g. tcp://localhost:5454.
// A non-positive timeout falls back to config.DefaultTimeout.
func NewZMQClient(endpoint string, timeout time.Duration) *ZMQClient {
	return &ZMQClient{endpoint: endpoint, timeout: requestTimeout(timeout)}
}

func requestTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return config.DefaultTimeout
	}
	return timeout
}

type recvResult struct {
	msg zmq4.Msg
	err error
}

func (c *ZMQClient) transportError(op string, kind, err error) *TransportError {
	return &TransportError{Op: op, Endpoint: c.endpoint, Kind: kind, Err: err}
}

func (c *ZMQClient) connect() error {
	if c.sock != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewReq(ctx, zmq4.WithDialerRetry(100*time.Millisecond), zmq4.WithDialerMaxRetries(3))
	if err := sock.Dial(c.endpoint); err != nil {
		cancel()
		sock.Close()
		return err
	}
	c.sock = sock
	c.cancel = cancel
	logger.Debug("Connected REQ socket to %s", c.endpoint)
	return nil
}

// reset discards the socket so a late reply can never be read as the answer to the next request
func (c *ZMQClient) reset() {
	if c.sock == nil {
		return
	}
	c.cancel()
	c.sock.Close()
	c.sock = nil
	c.cancel = nil
}

// Query sends one request and waits for its reply, bounded by the client timeout and ctx
func (c *ZMQClient) Query(ctx context.Context, q entities.Query) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, c.transportError("query", ErrUnreachable, errors.New("client is closed"))
	}
	if err := ctx.Err(); err != nil {
		return nil, c.transportError("query", contextKind(err), err)
	}
	body, err := EncodeQuery(q)
	if err != nil {
		return nil, c.transportError("encode", ErrMalformedReply, err)
	}
	if err := c.connect(); err != nil {
		return nil, c.transportError("dial", ErrUnreachable, err)
	}
	if err := c.sock.Send(zmq4.NewMsg(body)); err != nil {
		c.reset()
		return nil, c.transportError("send", ErrUnreachable, err)
	}
	logger.Raw("request to "+c.endpoint, string(body))

	results := make(chan recvResult, 1)
	sock := c.sock
	go func() {
		msg, err := sock.Recv()
		results <- recvResult{msg: msg, err: err}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			c.reset()
			return nil, c.transportError("recv", ErrUnreachable, res.err)
		}
		payload, err := singleFrame(res.msg)
		if err != nil {
			c.reset()
			return nil, c.transportError("recv", ErrMalformedReply, err)
		}
		logger.Raw("reply from "+c.endpoint, string(payload))
		return payload, nil
	case <-timer.C:
		c.reset()
		return nil, c.transportError("recv", ErrTimeout, errors.Errorf("no reply within %s", c.timeout))
	case <-ctx.Done():
		c.reset()
		return nil, c.transportError("recv", contextKind(ctx.Err()), ctx.Err())
	}
}

func singleFrame(msg zmq4.Msg) ([]byte, error) {
	switch {
	case len(msg.Frames) != 1:
		return nil, errors.Errorf("expected 1 frame, got %d", len(msg.Frames))
	case len(msg.Frames[0]) == 0:
		return nil, errors.New("empty reply frame")
	}
	return msg.Frames[0], nil
}

// Close releases the socket; later queries fail with ErrUnreachable
func (c *ZMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.closed = true
	return nil
}

// ZMQServer answers queries on a ZeroMQ REP socket
type ZMQServer struct {
	sock   zmq4.Socket
	cancel context.CancelFunc
}

// ListenZMQ binds a REP socket on endpoint, e.g. tcp://*:5454
func ListenZMQ(endpoint string) (*ZMQServer, error) {
	ctx, cancel := context.WithCancel(context.Background())
	sock := zmq4.NewRep(ctx)
	if err := sock.Listen(endpoint); err != nil {
		cancel()
		sock.Close()
		return nil, errors.Wrapf(err, "failed to listen on %s", endpoint)
	}
	logger.Info("Listening for queries on %s", endpoint)
	return &ZMQServer{sock: sock, cancel: cancel}, nil
}

// Endpoint returns the bound address as a dialable endpoint
func (s *ZMQServer) Endpoint() string {
	return "tcp://" + s.sock.Addr().String()
}

// Serve answers requests until ctx is done or the socket fails
func (s *ZMQServer) Serve(ctx context.Context, handler Handler) error {
	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	for {
		msg, err := s.sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "failed to receive request")
		}
		var body []byte
		if len(msg.Frames) > 0 {
			body = msg.Frames[0]
		}
		reply := Respond(ctx, handler, body)
		if err := s.sock.Send(zmq4.NewMsg(reply)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// the requester may have given up and closed its socket
			logger.Warn("Failed to send reply: %v", err)
		}
	}
}

// Close unbinds the socket
func (s *ZMQServer) Close() error {
	s.cancel()
	return s.sock.Close()
}
