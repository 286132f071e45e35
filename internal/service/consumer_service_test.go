package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pushed struct {
	userId string
	frame  dto.WsOutboundFrame
	except string
}

type fakeDelivery struct {
	mu     sync.Mutex
	pushes []pushed
}

func (d *fakeDelivery) SendToUser(userId string, frame dto.WsOutboundFrame, exceptClientId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pushes = append(d.pushes, pushed{userId: userId, frame: frame, except: exceptClientId})
}

func (d *fakeDelivery) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pushes)
}

type fakeEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *fakeEventPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakeEventPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func TestConsumer_DeliversAndForwards(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := newPubSub()
	delivery := &fakeDelivery{}
	bus := &fakeEventPublisher{err: errors.New("nats down")}

	consumer := NewConsumerService(pubSub, "chat.activity", delivery, bus, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("chat.activity", pubSub)
	require.NoError(t, publisher.SendChatActivity(ctx, dto.ChatActivityMessage{
		Type:         dto.ChatActivityExchange,
		UserId:       "u1",
		ChatId:       "S",
		MessageCount: 2,
		Origin:       "client-1",
		OccurredAt:   time.Now(),
	}))

	require.Eventually(t, func() bool {
		return delivery.count() == 1 && bus.count() == 1
	}, time.Second, 10*time.Millisecond)

	got := delivery.pushes[0]
	assert.Equal(t, "u1", got.userId)
	assert.Equal(t, "client-1", got.except)
	assert.Equal(t, dto.WsFrameSessionTouched, got.frame.Type)
	assert.Equal(t, "S", got.frame.ChatId)
	assert.Equal(t, dto.ChatActivityExchange, bus.events[0].EventType())
	assert.Equal(t, "S", bus.events[0].Payload()["chat_id"])
}

func TestConsumer_SkipsMalformedPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := newPubSub()
	delivery := &fakeDelivery{}
	consumer := NewConsumerService(pubSub, "chat.activity", delivery, nil, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	require.NoError(t, pubSub.Publish("chat.activity", message.NewMessage(watermill.NewUUID(), []byte("{not json"))))

	valid, err := json.Marshal(dto.ChatActivityMessage{Type: dto.ChatActivitySessionDeleted, UserId: "u1", ChatId: "S"})
	require.NoError(t, err)
	require.NoError(t, pubSub.Publish("chat.activity", message.NewMessage(watermill.NewUUID(), valid)))

	require.Eventually(t, func() bool { return delivery.count() == 1 }, time.Second, 10*time.Millisecond)
}
