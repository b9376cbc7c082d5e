package provider

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const contentTypeJSON = "application/json"

// AMQPClient speaks the query protocol as RPC over an AMQP broker: requests go to a
// named queue and replies come back on a private queue matched by correlation ID.
type AMQPClient struct {
	url     string
	queue   string
	timeout time.Duration

	mu         sync.Mutex
	conn       *amqp.Connection
	channel    *amqp.Channel
	replyQueue string
	replies    <-chan amqp.Delivery
	closed     bool
}

// NewAMQPClient creates a client publishing to queue on the broker at url.
// A non-positive timeout falls back to config.DefaultTimeout.
func NewAMQPClient(url, queue string, timeout time.Duration) *AMQPClient {
	return &AMQPClient{url: url, queue: queue, timeout: requestTimeout(timeout)}
}

func (c *AMQPClient) transportError(op string, kind, err error) *TransportError {
	return &TransportError{Op: op, Endpoint: c.queue, Kind: kind, Err: err}
}

func (c *AMQPClient) connect() error {
	if c.conn != nil && !c.conn.IsClosed() {
		return nil
	}
	c.reset()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to broker")
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return errors.Wrap(err, "failed to open channel")
	}
	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return errors.Wrap(err, "failed to declare reply queue")
	}
	replies, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return errors.Wrap(err, "failed to consume reply queue")
	}

	c.conn = conn
	c.channel = ch
	c.replyQueue = q.Name
	c.replies = replies
	logger.Debug("Connected to broker, replies on %s", q.Name)
	return nil
}

func (c *AMQPClient) reset() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.channel = nil
	c.replies = nil
	c.replyQueue = ""
}

// Query publishes one request and waits for the reply carrying its correlation ID.
// Replies to earlier, abandoned requests are discarded.
func (c *AMQPClient) Query(ctx context.Context, q entities.Query) ([]byte, error) {
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

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	correlationID := uuid.NewString()
	err = c.channel.PublishWithContext(ctx,
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:   contentTypeJSON,
			CorrelationId: correlationID,
			ReplyTo:       c.replyQueue,
			Body:          body,
		},
	)
	if err != nil {
		c.reset()
		return nil, c.transportError("publish", ErrUnreachable, err)
	}
	logger.Raw("request "+correlationID, string(body))

	for {
		select {
		case d, ok := <-c.replies:
			if !ok {
				c.reset()
				return nil, c.transportError("recv", ErrUnreachable, errors.New("reply channel closed"))
			}
			if d.CorrelationId != correlationID {
				logger.Debug("Discarding stale reply %s", d.CorrelationId)
				continue
			}
			if len(d.Body) == 0 {
				return nil, c.transportError("recv", ErrMalformedReply, errors.New("empty reply body"))
			}
			logger.Raw("reply "+correlationID, string(d.Body))
			return d.Body, nil
		case <-ctx.Done():
			return nil, c.transportError("recv", contextKind(ctx.Err()), ctx.Err())
		}
	}
}

// Close closes the channel and connection
func (c *AMQPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
	c.closed = true
	return nil
}

// AMQPServer answers queries consumed from a request queue
type AMQPServer struct {
	url   string
	queue string
}

// NewAMQPServer creates a server consuming queue on the broker at url
func NewAMQPServer(url, queue string) *AMQPServer {
	return &AMQPServer{url: url, queue: queue}
}

// Serve consumes requests until ctx is done or the broker connection drops
func (s *AMQPServer) Serve(ctx context.Context, handler Handler) error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return errors.Wrap(err, "failed to connect to broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, "failed to open channel")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(s.queue, false, false, false, false, nil); err != nil {
		return errors.Wrapf(err, "failed to declare queue %s", s.queue)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return errors.Wrap(err, "failed to set prefetch")
	}
	deliveries, err := ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to consume queue %s", s.queue)
	}
	logger.Info("Listening for queries on AMQP queue %s", s.queue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			reply := Respond(ctx, handler, d.Body)
			if d.ReplyTo != "" {
				err := ch.PublishWithContext(ctx, "", d.ReplyTo, false, false, amqp.Publishing{
					ContentType:   contentTypeJSON,
					CorrelationId: d.CorrelationId,
					Body:          reply,
				})
				if err != nil {
					logger.Error("Failed to publish reply %s: %v", d.CorrelationId, err)
				}
			}
			if err := d.Ack(false); err != nil {
				logger.Warn("Failed to ack request %s: %v", d.CorrelationId, err)
			}
		}
	}
}
