package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/senai134/medidor/internal/record"
	"github.com/senai134/medidor/internal/store"
)

const insertTimeout = 5 * time.Second

// Listener is the asynchronous ingress: a long-lived subscription to one
// broker topic. Each message is decoded, cached as the latest raw payload,
// normalized and inserted; every successful insert hands a wakeup to the
// sink synchronizer. Failures of any step are logged and the message is
// dropped: the broker delivers at most once from this side, so there is
// nothing to requeue and nobody to answer to.
type Listener struct {
	store  store.Store
	latest *LatestCache
	notify func()
	logger *slog.Logger

	client mqtt.Client
	topic  string
}

// Options configures the broker connection.
type Options struct {
	BrokerURL string
	ClientID  string
	Topic     string
}

// NewListener wires the handler; Start connects and subscribes.
// notify may be nil when no synchronizer is attached.
func NewListener(opts Options, st store.Store, latest *LatestCache, notify func(), logger *slog.Logger) *Listener {
	l := &Listener{
		store:  st,
		latest: latest,
		notify: notify,
		logger: logger,
		topic:  opts.Topic,
	}

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetAutoReconnect(true)
	o.SetOnConnectHandler(func(c mqtt.Client) {
		// Resubscribe on every (re)connect; subscriptions do not survive a
		// clean-session reconnect.
		if token := c.Subscribe(l.topic, 0, l.Handle); token.Wait() && token.Error() != nil {
			logger.Error("mqtt subscribe failed", "topic", l.topic, "error", token.Error())
			return
		}
		logger.Info("mqtt subscribed", "topic", l.topic)
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})

	l.client = mqtt.NewClient(o)
	return l
}

// Start connects to the broker. Subscription happens in the connect handler.
func (l *Listener) Start() error {
	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

// Close disconnects from the broker.
func (l *Listener) Close() {
	l.client.Disconnect(250)
}

// Handle processes one inbound message. Exported so tests can drive it with
// stub messages instead of a live broker.
func (l *Listener) Handle(_ mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	var payload map[string]any
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		l.logger.Warn("mqtt message dropped: invalid json",
			"topic", msg.Topic(), "error", err)
		return
	}

	// The raw-payload cache reflects the last decoded message even when
	// normalization rejects it, matching the GET /data contract.
	l.latest.Set(ctx, payload)

	rec, err := record.Normalize(payload, record.BrokerKeys)
	if err != nil {
		l.logger.Warn("mqtt message dropped", "topic", msg.Topic(), "reason", err)
		return
	}

	saved, err := l.store.Insert(ctx, rec)
	if err != nil {
		l.logger.Error("mqtt message dropped: insert failed",
			"topic", msg.Topic(), "error", err)
		return
	}
	l.logger.Debug("reading stored", "id", saved.ID)

	if l.notify != nil {
		l.notify()
	}
}
