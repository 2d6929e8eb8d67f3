package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/rotary-phone/internal/logic"
)

const (
	clientID       = "rotary-phone"
	bufferCapacity = 500
	publishTimeout = 5 * time.Second
)

// publishClient is the part of paho.Client used to send messages.
type publishClient interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// RealPublisher publishes to an actual MQTT broker. It never blocks the
// caller: messages are handed to paho asynchronously while connected and
// buffered while disconnected, then replayed in order on (re)connect.
type RealPublisher struct {
	client paho.Client
	pub    publishClient

	mu            sync.Mutex
	buf           *ringBuffer
	connectedOnce bool
}

// NewRealPublisher creates a publisher and starts connecting to the broker
// in the background. Connection failures are retried by paho.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{buf: newRingBuffer(bufferCapacity)}

	will, err := FormatSystemPayload(WillEvent(time.Now()))
	if err != nil {
		log.Printf("mqtt: format will payload: %v", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect(broker) }).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	p.pub = p.client
	p.client.Connect()
	log.Printf("mqtt: connecting to %s", broker)
	return p
}

// Publish sends a phone event to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.send(bufferedMsg{topic: Topic, payload: payload, qos: 0})
	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the broker connection is open.
func (p *RealPublisher) IsConnected() bool {
	return p.pub.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if n := p.buf.len(); n > 0 {
		log.Printf("mqtt: discarding %d buffered messages", n)
	}
	p.mu.Unlock()
	if p.client != nil {
		p.client.Disconnect(1000) // 1 second timeout
	}
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pub.IsConnectionOpen() {
		p.buf.push(msg)
		return
	}
	p.publishLocked(msg)
}

// publishLocked hands msg to paho and reports the outcome from a separate
// goroutine. Caller holds p.mu.
func (p *RealPublisher) publishLocked(msg bufferedMsg) {
	token := p.pub.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt: publish to %s timed out", msg.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish to %s: %v", msg.topic, err)
		}
	}()
}

// onConnect replays buffered messages and announces reconnections.
func (p *RealPublisher) onConnect(broker string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msgs := p.buf.drainAll()
	if p.connectedOnce {
		log.Printf("mqtt: reconnected to %s, replaying %d messages", broker, len(msgs))
	} else {
		log.Printf("mqtt: connected to %s, replaying %d messages", broker, len(msgs))
	}
	for _, msg := range msgs {
		p.publishLocked(msg)
	}

	if p.connectedOnce {
		payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err == nil {
			p.publishLocked(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
		}
	}
	p.connectedOnce = true
}
