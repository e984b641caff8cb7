package broker

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(url string, log zerolog.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("netbar-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	if p.nc == nil || p.nc.IsClosed() {
		return errors.New("nats not connected")
	}
	body, err := encode(subject, payload)
	if err != nil {
		return err
	}
	return p.nc.Publish(subject, body)
}

func (p *NATSPublisher) Ping() error {
	if p.nc == nil || !p.nc.IsConnected() {
		return errors.New("nats not connected")
	}
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	err := p.nc.Drain()
	p.nc.Close()
	return err
}
