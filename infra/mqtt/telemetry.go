// Package mqtt publishes charger telemetry to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/wrsn/core/events"
	"github.com/kilianp07/wrsn/core/mc"
	"github.com/kilianp07/wrsn/infra/logger"
	"github.com/kilianp07/wrsn/internal/eventbus"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// StateMessage is the payload of <prefix>/chargers/<id>/state.
type StateMessage struct {
	RunID     string      `json:"run_id"`
	SimTime   float64     `json:"sim_time"`
	Charger   mc.Snapshot `json:"charger"`
	Timestamp int64       `json:"timestamp"`
}

// DispatchMessage is the payload of <prefix>/chargers/<id>/dispatch.
type DispatchMessage struct {
	RunID        string      `json:"run_id"`
	SimTime      float64     `json:"sim_time"`
	Decision     mc.Decision `json:"decision"`
	EnergyBefore float64     `json:"energy_before"`
	EnergyAfter  float64     `json:"energy_after"`
	Timestamp    int64       `json:"timestamp"`
}

// Publisher sends charger events to the broker.
type Publisher struct {
	cli     pahoClient
	cfg     Config
	log     logger.Logger
	backoff time.Duration

	published *prometheus.CounterVec
}

// NewPublisher connects to the broker. Publish counters are registered on
// reg when it is not nil.
func NewPublisher(cfg Config, reg prometheus.Registerer) (*Publisher, error) {
	cfg.SetDefaults()
	cfg.Enabled = true
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-telemetry")
	opts.OnConnect = func(paho.Client) { log.Infof("MQTT connected to %s", cfg.Broker) }
	opts.OnConnectionLost = func(_ paho.Client, err error) { log.Errorf("connection lost: %v", err) }
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) { log.Warnf("reconnecting to MQTT broker") }

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p := &Publisher{
		cli:     c,
		cfg:     cfg,
		log:     log,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wrsn_mqtt_publish_total",
			Help: "Telemetry messages published, by kind and result",
		}, []string{"kind", "result"}),
	}
	if reg != nil {
		if err := reg.Register(p.published); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				p.published = are.ExistingCollector.(*prometheus.CounterVec)
			} else {
				return nil, err
			}
		}
	}
	return p, nil
}

// StateTopic returns the state topic of a charger.
func (p *Publisher) StateTopic(chargerID string) string {
	return fmt.Sprintf("%s/chargers/%s/state", p.cfg.TopicPrefix, chargerID)
}

// DispatchTopic returns the dispatch topic of a charger.
func (p *Publisher) DispatchTopic(chargerID string) string {
	return fmt.Sprintf("%s/chargers/%s/dispatch", p.cfg.TopicPrefix, chargerID)
}

// PublishState publishes a charger snapshot.
func (p *Publisher) PublishState(ev events.ChargerStateEvent) error {
	msg := StateMessage{RunID: ev.RunID, SimTime: ev.SimTime, Charger: ev.State, Timestamp: ev.Timestamp.UnixMilli()}
	return p.publish("state", p.StateTopic(ev.State.ID), msg)
}

// PublishDispatch publishes a decision cycle outcome.
func (p *Publisher) PublishDispatch(ev events.DispatchEvent) error {
	msg := DispatchMessage{
		RunID:        ev.RunID,
		SimTime:      ev.SimTime,
		Decision:     ev.Decision,
		EnergyBefore: ev.EnergyBefore,
		EnergyAfter:  ev.EnergyAfter,
		Timestamp:    ev.Timestamp.UnixMilli(),
	}
	return p.publish("dispatch", p.DispatchTopic(ev.ChargerID), msg)
}

func (p *Publisher) publish(kind, topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			p.published.WithLabelValues(kind, "ok").Inc()
			p.log.Debugf("published %s to %s", kind, topic)
			return nil
		}
		p.log.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	p.published.WithLabelValues(kind, "error").Inc()
	return publishErr
}

// Start forwards bus events until ctx is done or the bus closes. The returned
// channel is closed when forwarding stops.
func (p *Publisher) Start(ctx context.Context, bus *eventbus.Bus[any]) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.SubscribeBuffered(1024)
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var err error
				switch e := ev.(type) {
				case events.ChargerStateEvent:
					err = p.PublishState(e)
				case events.DispatchEvent:
					err = p.PublishDispatch(e)
				}
				if err != nil {
					p.log.Warnf("telemetry dropped: %v", err)
				}
			}
		}
	}()
	return done
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
