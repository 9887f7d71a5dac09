package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"expensetracker/internal/log"
	"expensetracker/internal/services"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateHalfOpen
	StateOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second

	// CompletedRoutingKey is the routing key of export completion events.
	CompletedRoutingKey = "export.completed"
)

// ErrDiscard tells the consumer to drop a message instead of requeueing it.
var ErrDiscard = errors.New("discard message")

// ErrCircuitOpen is returned while publishing is suspended after repeated failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Client publishes and consumes export messages. It reconnects on its own
// after the broker drops the connection.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	prefetch     int
	logger       *log.Logger

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	failMu       sync.Mutex
	lastFailure  time.Time
}

// NewClient dials url and declares the exchange and request queue.
// prefetch bounds the unacknowledged deliveries per consumer.
func NewClient(url, exchangeName, queueName string, prefetch int, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	c := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		prefetch:     max(prefetch, 1),
		logger:       logger.WithComponent(log.ComponentAMQP),
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil && !c.channel.IsClosed() {
		// another goroutine already reconnected
		return nil
	}
	c.closeLocked()

	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	c.conn, c.channel = conn, channel

	if err := c.setup(); err != nil {
		c.closeLocked()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}
	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// routing key is the queue name on a direct exchange
	if err := c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	return nil
}

func (c *Client) currentChannel() (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil || c.channel.IsClosed() {
		return nil, amqp091.ErrClosed
	}
	return c.channel, nil
}

// PublishExportRequest queues an export for the workers.
func (c *Client) PublishExportRequest(ctx context.Context, msg *ExportRequestMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, body); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Published export request",
		log.FieldExportID, msg.ID,
		log.FieldFormat, msg.Format,
		log.FieldRangeStart, msg.StartDate,
		log.FieldRangeEnd, msg.EndDate)
	return nil
}

// NotifyExportCompleted publishes an export completion event.
func (c *Client) NotifyExportCompleted(ctx context.Context, done services.ExportCompletion) error {
	msg := &ExportCompletedMessage{
		ID:          done.ID,
		Format:      string(done.Format),
		State:       string(done.State),
		Location:    done.Location,
		RecordCount: done.RecordCount,
		Error:       done.Error,
		FinishedAt:  done.FinishedAt,
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, CompletedRoutingKey, body); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "Published export completion",
		log.FieldExportID, msg.ID, log.FieldState, msg.State)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}

	ch, err := c.currentChannel()
	if err != nil {
		if rerr := c.connect(); rerr != nil {
			c.recordFailure()
			return fmt.Errorf("reconnect: %w", rerr)
		}
		if ch, err = c.currentChannel(); err != nil {
			c.recordFailure()
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = ch.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()
	return nil
}

// ConsumeExportRequests delivers requests to handler until ctx is done,
// reconnecting with exponential backoff when the connection is lost.
// A handler error requeues the message unless it wraps ErrDiscard.
func (c *Client) ConsumeExportRequests(ctx context.Context, consumer string, handler func(context.Context, *ExportRequestMessage) error) error {
	for attempt := 0; ; {
		err := c.consume(ctx, consumer, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) && !errors.Is(err, amqp091.ErrClosed) {
			return err
		}

		wait := exponentialBackoff(attempt)
		c.logger.WarnContext(ctx, "Lost broker connection, reconnecting",
			log.FieldError, err, "consumer", consumer, "backoff", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if err := c.connect(); err != nil {
			attempt++
			continue
		}
		attempt = 0
	}
}

func (c *Client) consume(ctx context.Context, consumer string, handler func(context.Context, *ExportRequestMessage) error) error {
	ch, err := c.currentChannel()
	if err != nil {
		return err
	}
	msgs, err := ch.Consume(
		c.queueName, // queue
		consumer,    // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming export requests", "queue", c.queueName, "consumer", consumer)

	for {
		select {
		case <-ctx.Done():
			ch.Cancel(consumer, false)
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed: %w", amqp091.ErrClosed)
			}
			c.handle(ctx, delivery, handler)
		}
	}
}

func (c *Client) handle(ctx context.Context, delivery amqp091.Delivery, handler func(context.Context, *ExportRequestMessage) error) {
	msg, err := ExportRequestMessageFromJSON(delivery.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to decode export request", log.FieldError, err)
		delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		requeue := !errors.Is(err, ErrDiscard)
		c.logger.ErrorContext(ctx, "Failed to handle export request",
			log.FieldError, err, log.FieldExportID, msg.ID, "requeue", requeue)
		delivery.Nack(false, requeue)
		return
	}

	delivery.Ack(false)
	c.logger.InfoContext(ctx, "Processed export request", log.FieldExportID, msg.ID)
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.failMu.Lock()
	last := c.lastFailure
	c.failMu.Unlock()
	if time.Since(last) > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordFailure() {
	c.failMu.Lock()
	c.lastFailure = time.Now()
	c.failMu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		if atomic.SwapInt32(&c.state, StateOpen) != StateOpen {
			c.logger.Warn("Publishing suspended after repeated failures", "failures", maxFailures)
		}
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

// exponentialBackoff returns 1s, 2s, 4s... capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return nil
}
