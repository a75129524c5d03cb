package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// Defaults for RealClient.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultAckTimeout     = 5 * time.Second
	DefaultBufferSize     = 300
)

// Options configures a RealClient.
type Options struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	Topics         Topics
	ConnectTimeout time.Duration
	AckTimeout     time.Duration
	BufferSize     int
	Logger         *zap.SugaredLogger
}

// RealClient publishes to and receives commands from an actual MQTT broker.
type RealClient struct {
	client     paho.Client
	topics     Topics
	ackTimeout time.Duration
	log        *zap.SugaredLogger

	mu      sync.Mutex
	buf     *ringBuffer
	handler Handler
	aux     func() bool

	// onConnect, if set, is called after each (re)connect has subscribed.
	onConnect func()
	// onPublishError, if set, is called for publishes that fail after returning.
	onPublishError func(topic string, err error)
}

// NewRealClient creates a client for the given broker. It does not connect.
func NewRealClient(opts Options) *RealClient {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = DefaultAckTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Topics == (Topics{}) {
		opts.Topics = DefaultTopics()
	}

	log := opts.Logger.With("component", "mqtt")
	c := &RealClient{
		topics:     opts.Topics,
		ackTimeout: opts.AckTimeout,
		log:        log,
		buf:        newRingBuffer(opts.BufferSize, log),
	}

	po := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectTimeout(opts.ConnectTimeout).
		// Handlers publish the toggle state; they must not block the router.
		SetOrderMatters(false).
		SetOnConnectHandler(c.handleConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("connection lost: %v", err)
		}).
		SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
			log.Infof("reconnecting to %s", opts.Broker)
		})
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}

	c.client = paho.NewClient(po)
	return c
}

// Connect starts the connection and installs the inbound handler.
// aux reports the current auxiliary LED state, published on every connect.
// The client keeps retrying in the background after a timeout.
func (c *RealClient) Connect(handler Handler, aux func() bool, timeout time.Duration) error {
	c.mu.Lock()
	c.handler = handler
	c.aux = aux
	c.mu.Unlock()

	token := c.client.Connect()
	if !token.WaitTimeout(timeout) {
		return errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// handleConnect subscribes to the command topics and announces the toggle
// state. It runs on every (re)connect.
func (c *RealClient) handleConnect(client paho.Client) {
	c.log.Infof("connected")

	c.mu.Lock()
	handler, aux, onConnect := c.handler, c.aux, c.onConnect
	c.mu.Unlock()

	if aux != nil {
		if _, err := c.publish(c.topics.ToggleStatus, FormatToggle(aux())); err != nil {
			c.log.Errorf("publish toggle state on connect: %v", err)
		}
	}

	if handler != nil {
		filters := map[string]byte{
			c.topics.Toggle:   QoSAtLeastOnce,
			c.topics.AlarmSet: QoSAtLeastOnce,
		}
		token := client.SubscribeMultiple(filters, func(_ paho.Client, msg paho.Message) {
			handler(msg.Topic(), msg.Payload())
		})
		if !token.WaitTimeout(c.ackTimeout) {
			c.log.Errorf("subscribe timeout")
		} else if err := token.Error(); err != nil {
			c.log.Errorf("subscribe: %v", err)
		} else {
			c.log.Infof("subscribed to %s and %s", c.topics.Toggle, c.topics.AlarmSet)
		}
	}

	if onConnect != nil {
		onConnect()
	}
}

// PublishTelemetry sends a telemetry record at QoS 1, not retained.
// While disconnected the record is buffered and ErrNotConnected is
// returned; the buffer is flushed by the next publish that finds the
// client connected.
func (c *RealClient) PublishTelemetry(rec TelemetryRecord) (uint16, error) {
	payload, err := FormatTelemetry(rec)
	if err != nil {
		return 0, fmt.Errorf("format payload: %w", err)
	}

	if !c.client.IsConnectionOpen() {
		c.mu.Lock()
		c.buf.push(bufferedMsg{topic: c.topics.Telemetry, payload: payload})
		c.mu.Unlock()
		return 0, ErrNotConnected
	}

	c.flush()
	return c.publish(c.topics.Telemetry, payload)
}

// PublishToggle sends the auxiliary LED state at QoS 1, not retained.
func (c *RealClient) PublishToggle(on bool) error {
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}
	_, err := c.publish(c.topics.ToggleStatus, FormatToggle(on))
	return err
}

// flush replays buffered messages in order.
func (c *RealClient) flush() {
	c.mu.Lock()
	msgs, dropped := c.buf.drain()
	c.mu.Unlock()

	if dropped > 0 {
		c.log.Warnf("%d buffered messages were overwritten while offline", dropped)
	}
	if len(msgs) == 0 {
		return
	}
	c.log.Infof("replaying %d buffered messages", len(msgs))
	for _, m := range msgs {
		if _, err := c.publish(m.topic, m.payload); err != nil {
			c.log.Errorf("replay publish error: %v", err)
		}
	}
}

// publish hands the message to the client without waiting for the broker's
// acknowledgement. Failures that surface later are logged.
func (c *RealClient) publish(topic string, payload []byte) (uint16, error) {
	token := c.client.Publish(topic, QoSAtLeastOnce, false, payload)

	var id uint16
	if pt, ok := token.(*paho.PublishToken); ok {
		id = pt.MessageID()
	}

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return id, fmt.Errorf("publish to %s: %w", topic, err)
		}
		return id, nil
	default:
	}

	go func() {
		if !token.WaitTimeout(c.ackTimeout) {
			c.log.Warnf("no ack for message %d on %s after %v", id, topic, c.ackTimeout)
			return
		}
		if err := token.Error(); err != nil {
			c.log.Errorf("publish to %s: %v", topic, err)
			c.mu.Lock()
			onErr := c.onPublishError
			c.mu.Unlock()
			if onErr != nil {
				onErr(topic, err)
			}
		}
	}()
	return id, nil
}

// OnPublishError registers a callback for publishes that fail after
// PublishTelemetry or PublishToggle has returned.
func (c *RealClient) OnPublishError(fn func(topic string, err error)) {
	c.mu.Lock()
	c.onPublishError = fn
	c.mu.Unlock()
}

// Buffered returns the number of messages waiting for a connection.
func (c *RealClient) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.len()
}

// IsConnected reports whether the connection to the broker is open.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(1000) // 1 second timeout
	return nil
}
