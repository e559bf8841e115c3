// Package mqtt wraps the paho client behind a single shared, guarded
// connection: callers reuse an established connection, and concurrent
// connection attempts collapse into one in-flight attempt that everyone
// waits on. A second concurrent connection is never opened.
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

const (
	defaultQoS           = 1
	connectTimeout       = 10 * time.Second
	disconnectQuiesceMs  = 250
	publishWaitTimeout   = 10 * time.Second
	subscribeWaitTimeout = 10 * time.Second
)

// Options configure the shared client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
}

// attempt is one connection establishment that concurrent callers wait on.
type attempt struct {
	done chan struct{}
	err  error
}

// Client is the process-wide MQTT handle. Safe for concurrent use.
type Client struct {
	log *logrus.Entry

	mu         sync.Mutex
	client     paho.Client
	connecting *attempt
}

// NewClient builds the shared client without connecting. Paho's own
// auto-reconnect handles drops after the first successful connect.
func NewClient(opts Options) *Client {
	log := logrus.WithField("component", "mqtt")

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetConnectTimeout(connectTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warnf("connection lost: %v", err)
		}).
		SetOnConnectHandler(func(_ paho.Client) {
			log.Info("connected to broker")
		})
	if opts.Username != "" {
		pahoOpts.SetUsername(opts.Username)
		pahoOpts.SetPassword(opts.Password)
	}

	return &Client{
		log:    log,
		client: paho.NewClient(pahoOpts),
	}
}

// Connect ensures the client is connected. If another goroutine is already
// connecting, Connect waits for that attempt instead of starting a new one.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.client.IsConnected() {
		c.mu.Unlock()
		return nil
	}
	if c.connecting != nil {
		a := c.connecting
		c.mu.Unlock()
		select {
		case <-a.done:
			return a.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a := &attempt{done: make(chan struct{})}
	c.connecting = a
	c.mu.Unlock()

	token := c.client.Connect()
	wait := connectTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}
	}
	if !token.WaitTimeout(wait) {
		a.err = fmt.Errorf("timed out after %s", wait)
	} else {
		a.err = token.Error()
	}

	c.mu.Lock()
	c.connecting = nil
	c.mu.Unlock()
	close(a.done)

	if a.err != nil {
		return fmt.Errorf("connect to broker: %w", a.err)
	}
	return nil
}

// IsConnected reports the current connection flag without a round-trip.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Publish sends a payload to a topic, connecting first if needed.
func (c *Client) Publish(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		return err
	}

	token := c.client.Publish(topic, defaultQoS, false, payload)
	if !token.WaitTimeout(publishWaitTimeout) {
		return fmt.Errorf("publish to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	c.log.Debugf("published %d bytes to %s", len(payload), topic)
	return nil
}

// Subscribe registers a subscription whose messages are logged. Used by the
// diagnostic subscribe endpoint.
func (c *Client) Subscribe(topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		return err
	}

	token := c.client.Subscribe(topic, defaultQoS, func(_ paho.Client, msg paho.Message) {
		c.log.WithFields(logrus.Fields{
			"topic": msg.Topic(),
		}).Infof("received message: %s", msg.Payload())
	})
	if !token.WaitTimeout(subscribeWaitTimeout) {
		return fmt.Errorf("subscribe to %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	c.log.Infof("subscribed to %s", topic)
	return nil
}

// Disconnect closes the connection, allowing in-flight work to finish.
func (c *Client) Disconnect() {
	c.client.Disconnect(disconnectQuiesceMs)
}
