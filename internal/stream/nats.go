package stream

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	DefaultWaveSubject   = "ecg.wave"
	DefaultParamsSubject = "ecg.params"
)

func Connect(url string) (*nats.Conn, error) {
	return nats.Connect(
		url,
		nats.Name("ekg-wave"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
}

// NATSSink publica en NATS core, sin JetStream.
type NATSSink struct {
	nc *nats.Conn
}

func NewNATSSink(url string) (*NATSSink, error) {
	nc, err := Connect(url)
	if err != nil {
		return nil, err
	}
	return &NATSSink{nc: nc}, nil
}

func (s *NATSSink) Publish(_ context.Context, subject string, data []byte) error {
	return s.nc.Publish(subject, data)
}

func (s *NATSSink) Close() error {
	return s.nc.Drain()
}
