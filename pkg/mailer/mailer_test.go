package mailer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	bodies [][]byte
	err    error
}

func (p *recordingPublisher) Publish(body []byte) error {
	if p.err != nil {
		return p.err
	}
	p.bodies = append(p.bodies, body)
	return nil
}

type recordingTransport struct {
	sent []Email
	err  error
}

func (t *recordingTransport) Send(email Email) error {
	if t.err != nil {
		return t.err
	}
	t.sent = append(t.sent, email)
	return nil
}

func TestQueueMailerPublishesJSON(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewQueueMailer(pub)

	email := Email{To: "a@example.com", Subject: "Verify email", HTML: "<a>link</a>"}
	require.NoError(t, m.Send(email))
	require.Len(t, pub.bodies, 1)

	var decoded Email
	require.NoError(t, json.Unmarshal(pub.bodies[0], &decoded))
	assert.Equal(t, email, decoded)
}

func TestQueueMailerPublishError(t *testing.T) {
	m := NewQueueMailer(&recordingPublisher{err: errors.New("channel closed")})

	err := m.Send(Email{To: "a@example.com"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}

func TestConsumerRoundTrip(t *testing.T) {
	pub := &recordingPublisher{}
	transport := &recordingTransport{}
	consumer := NewConsumer(transport, zap.NewNop())

	email := Email{To: "b@example.com", Subject: "Verify email", HTML: "<p>hi</p>"}
	require.NoError(t, NewQueueMailer(pub).Send(email))

	require.NoError(t, consumer.Handle(amqp.Delivery{Body: pub.bodies[0], DeliveryTag: 1}))
	assert.Equal(t, []Email{email}, transport.sent)
}

func TestConsumerFailures(t *testing.T) {
	consumer := NewConsumer(&recordingTransport{}, zap.NewNop())
	assert.Error(t, consumer.Handle(amqp.Delivery{Body: []byte("{not json")}))

	failing := NewConsumer(&recordingTransport{err: errors.New("relay down")}, zap.NewNop())
	body, _ := json.Marshal(Email{To: "c@example.com"})
	err := failing.Handle(amqp.Delivery{Body: body})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "relay down")
}

func TestBuildMessageRejectsBadAddresses(t *testing.T) {
	_, err := buildMessage("not an address", Email{To: "a@example.com"})
	assert.Error(t, err)

	_, err = buildMessage("noreply@example.com", Email{To: "nope"})
	assert.Error(t, err)

	msg, err := buildMessage("noreply@example.com", Email{To: "a@example.com", Subject: "s", HTML: "<b>x</b>"})
	require.NoError(t, err)
	assert.NotNil(t, msg)
}
