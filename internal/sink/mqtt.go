package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/autopeer-io/camlink/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/camlink/internal/protocol"
	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/mqtt"
	mqtttopic "github.com/autopeer-io/camlink/pkg/mqtt/topic"
	"github.com/autopeer-io/camlink/pkg/options"
)

// ImageEvent is published on {root}/image/{mac}.
type ImageEvent struct {
	MAC       string `json:"mac"`
	Size      int    `json:"size"`
	Hash      string `json:"hash"`
	HashOK    bool   `json:"hash_ok"`
	Voltage   uint8  `json:"voltage"`
	Timestamp string `json:"timestamp,omitempty"`
	URL       string `json:"url,omitempty"`
}

// StatusEvent is published, retained, on {root}/status/{mac} for every header.
type StatusEvent struct {
	MAC         string `json:"mac"`
	Voltage     uint8  `json:"voltage"`
	Placeholder bool   `json:"placeholder"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// OnlineStatus is the retained presence of the publishing service.
type OnlineStatus struct {
	Service string `json:"service"`
	Online  bool   `json:"online"`
	Reason  string `json:"reason,omitempty"`
}

// MQTT announces images and node status.
type MQTT struct {
	client  mqtt.Client
	topics  *mqtttopic.Builder
	qos     int
	service string
	// connectTimeout bounds the wait for the first connection in Start.
	connectTimeout time.Duration
	log            log.Logger
}

// NewMQTT builds the client with a retained offline will for service. Call Start before Deliver.
func NewMQTT(opts *options.MqttOptions, service string, logger log.Logger) (*MQTT, error) {
	topics := mqtttopic.NewBuilder(opts.TopicRoot)

	cfg := opts.ToClientConfig()
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("camlink-%s", service)
	}

	// The broker's receive time dates the will, so the payload carries none.
	offline, _ := json.Marshal(OnlineStatus{Service: service, Online: false, Reason: "UnexpectedDisconnect"})
	cfg.WillTopic = topics.Build(paths.Online, service)
	cfg.WillPayload = offline
	cfg.WillQoS = 1
	cfg.WillRetain = true

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	m := newMQTT(client, topics, opts.QoS, service, logger)
	m.connectTimeout = opts.ConnectTimeout
	return m, nil
}

func newMQTT(client mqtt.Client, topics *mqtttopic.Builder, qos int, service string, logger log.Logger) *MQTT {
	return &MQTT{client: client, topics: topics, qos: qos, service: service, log: log.OrStd(logger).WithName("mqtt-sink")}
}

func (m *MQTT) Name() string { return "mqtt" }

// Start connects and marks the service online.
func (m *MQTT) Start(ctx context.Context) error {
	if err := m.client.Start(ctx); err != nil {
		return err
	}
	wait := ctx
	if m.connectTimeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, m.connectTimeout)
		defer cancel()
	}
	if err := m.client.AwaitConnection(wait); err != nil {
		return fmt.Errorf("await broker connection: %w", err)
	}
	return m.publish(ctx, m.topics.Build(paths.Online, m.service), true, OnlineStatus{Service: m.service, Online: true})
}

func (m *MQTT) Deliver(ctx context.Context, img *transport.Image) error {
	mac := img.Source.Compact()
	return m.publish(ctx, m.topics.Build(paths.Image, mac), false, ImageEvent{
		MAC:       img.Source.String(),
		Size:      len(img.Data),
		Hash:      img.Hash,
		HashOK:    img.HashOK,
		Voltage:   img.Header.Voltage,
		Timestamp: img.Header.Timestamp,
		URL:       img.URL,
	})
}

func (m *MQTT) ObserveHeader(ctx context.Context, src protocol.MAC, h protocol.Header) error {
	return m.publish(ctx, m.topics.Build(paths.Status, src.Compact()), true, StatusEvent{
		MAC:         src.String(),
		Voltage:     h.Voltage,
		Placeholder: h.IsPlaceholder(),
		Timestamp:   h.Timestamp,
	})
}

// Close marks the service offline and disconnects.
func (m *MQTT) Close(ctx context.Context) error {
	err := m.publish(ctx, m.topics.Build(paths.Online, m.service), true, OnlineStatus{Service: m.service, Online: false, Reason: "Shutdown"})
	m.client.Disconnect(ctx)
	return err
}

func (m *MQTT) publish(ctx context.Context, topic string, retain bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := m.client.Publish(ctx, topic, m.qos, retain, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	m.log.Debug("Published", "topic", topic, "bytes", len(payload))
	return nil
}
