package service

import (
	"context"
	"encoding/json"

	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/pkg/logger"
	"learnly-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// ActivityDelivery pushes a frame to every live connection of a user except
// the one whose id is exceptClientId. Implemented by the websocket hub.
type ActivityDelivery interface {
	SendToUser(userId string, frame dto.WsOutboundFrame, exceptClientId string)
}

// EventPublisher forwards domain events to the cluster bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  ActivityDelivery
	events    EventPublisher
	logger    logger.ILogger
}

// NewConsumerService builds the activity consumer. delivery and eventPub may
// be nil when websockets or NATS are unavailable.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery ActivityDelivery,
	eventPub EventPublisher,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		events:    eventPub,
		logger:    log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatActivityMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal chat activity", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if cs.delivery != nil && payload.UserId != "" {
		cs.delivery.SendToUser(payload.UserId, dto.WsOutboundFrame{
			Type:   dto.WsFrameSessionTouched,
			ChatId: payload.ChatId,
			Data:   payload,
		}, payload.Origin)
	}

	if cs.events != nil {
		evt := events.BaseEvent{
			Type: payload.Type,
			Data: map[string]interface{}{
				"user_id":       payload.UserId,
				"chat_id":       payload.ChatId,
				"title":         payload.Title,
				"message_count": payload.MessageCount,
				"used_fallback": payload.UsedFallback,
			},
			OccurredAt: payload.OccurredAt,
		}
		// Redelivery would repeat the websocket push, so bus failures are only logged.
		if err := cs.events.Publish(ctx, evt); err != nil {
			cs.logger.Warn("CONSUMER", "Failed to forward chat activity to NATS", map[string]interface{}{
				"type":  payload.Type,
				"error": err.Error(),
			})
		}
	}

	msg.Ack()
}
