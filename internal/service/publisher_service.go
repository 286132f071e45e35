package service

import (
	"context"
	"encoding/json"

	"learnly-chat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	SendChatActivity(ctx context.Context, msg dto.ChatActivityMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (ps *publisherService) SendChatActivity(ctx context.Context, msg dto.ChatActivityMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	out := message.NewMessage(watermill.NewUUID(), payload)
	out.SetContext(ctx)
	return ps.pubSub.Publish(ps.topicName, out)
}
