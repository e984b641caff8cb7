package broker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConfirmation resolves once done is closed.
type fakeConfirmation struct {
	done  chan struct{}
	acked bool
}

func (c *fakeConfirmation) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-c.done:
		return c.acked, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func resolved(acked bool) *fakeConfirmation {
	c := &fakeConfirmation{done: make(chan struct{}), acked: acked}
	close(c.done)
	return c
}

type recordedPublish struct {
	exchange, key string
	msg           amqp.Publishing
}

func newTestAMQPPublisher(confs ...*fakeConfirmation) (*AMQPPublisher, *[]recordedPublish) {
	var sent []recordedPublish
	p := &AMQPPublisher{exchange: "netbar_events", log: zerolog.Nop()}
	p.publish = func(_ context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
		conf := confs[len(sent)]
		sent = append(sent, recordedPublish{exchange, key, msg})
		return conf, nil
	}
	return p, &sent
}

func TestAMQPPublisher_EachPublishWaitsOnItsOwnConfirm(t *testing.T) {
	stalled := &fakeConfirmation{done: make(chan struct{})}
	p, sent := newTestAMQPPublisher(stalled, resolved(true), resolved(false))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Publish(ctx, "netbar.order.created", map[string]any{"id": 1}), context.DeadlineExceeded)

	// the late ack for the first message must not be read as the second's
	stalled.acked = false
	close(stalled.done)
	assert.NoError(t, p.Publish(context.Background(), "netbar.order.completed", map[string]any{"id": 1}))
	assert.Error(t, p.Publish(context.Background(), "netbar.order.cancelled", map[string]any{"id": 2}))

	require.Len(t, *sent, 3)
	first := (*sent)[0]
	assert.Equal(t, "netbar_events", first.exchange)
	assert.Equal(t, "netbar.order.created", first.key)
	assert.Equal(t, amqp.Persistent, first.msg.DeliveryMode)

	var env Envelope
	require.NoError(t, json.Unmarshal(first.msg.Body, &env))
	assert.Equal(t, "netbar.order.created", env.Subject)
}
