package stream

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
)

var ErrUnknownSink = errors.New("unknown sink")

// Sink es el destino de los frames de onda y de los mensajes de parámetros.
type Sink interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}

type SinkConfig struct {
	Kind         string // nats | kafka | mqtt
	NATSURL      string
	KafkaBrokers []string
	MQTTBroker   string
	// Key particiona los mensajes de Kafka (el run id del productor).
	Key string
}

func NewSink(cfg SinkConfig) (Sink, error) {
	switch strings.ToLower(cfg.Kind) {
	case "", "nats":
		return NewNATSSink(cfg.NATSURL)
	case "kafka":
		return NewKafkaSink(cfg.KafkaBrokers, cfg.Key), nil
	case "mqtt":
		return NewMQTTSink(cfg.MQTTBroker, "ekg-wave-"+cfg.Key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSink, cfg.Kind)
	}
}

// KafkaSink usa el subject como topic, con la clave fija del productor
// para que los frames de una corrida queden ordenados en una partición.
type KafkaSink struct {
	w   *kafka.Writer
	key []byte
}

func NewKafkaSink(brokers []string, key string) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
		key: []byte(key),
	}
}

func (s *KafkaSink) Publish(ctx context.Context, subject string, data []byte) error {
	return s.w.WriteMessages(ctx, kafka.Message{
		Topic: subject,
		Key:   s.key,
		Value: data,
		Time:  time.Now(),
	})
}

func (s *KafkaSink) Close() error { return s.w.Close() }

// MQTTSink publica con QoS 0: un frame perdido sólo deja un hueco en el trazado.
type MQTTSink struct {
	client mqtt.Client
}

func NewMQTTSink(broker, clientID string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(3 * time.Second)
	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, token.Error())
	}
	return &MQTTSink{client: c}, nil
}

func (s *MQTTSink) Publish(ctx context.Context, subject string, data []byte) error {
	token := s.client.Publish(mqttTopic(subject), 0, false, data)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MQTTSink) Close() error {
	s.client.Disconnect(250)
	return nil
}

// mqttTopic pasa un subject NATS (ecg.wave) a un topic MQTT (ecg/wave).
func mqttTopic(subject string) string {
	return strings.ReplaceAll(subject, ".", "/")
}
