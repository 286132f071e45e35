package implementation

import (
	"context"
	"errors"

	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/internal/repository/specification"
	"learnly-chat-be/pkg/docstore"
)

type ChatMessageRepositoryImpl struct {
	store  docstore.Store
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(store docstore.Store) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		store:  store,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	id, err := r.store.CreateDocument(ctx, docstore.CollectionChatMessages, r.mapper.ChatMessageToFields(message))
	if err != nil {
		return err
	}
	message.Id = id
	return nil
}

// DeleteByChatId removes every message joined to chatId and reports how many
// were deleted. Messages that vanish concurrently are not an error.
func (r *ChatMessageRepositoryImpl) DeleteByChatId(ctx context.Context, chatId string) (int, error) {
	docs, err := r.store.GetCollection(ctx, docstore.CollectionChatMessages)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, doc := range specification.Apply(docs, specification.ByChatID{ChatID: chatId}) {
		if err := r.store.DeleteDocument(ctx, docstore.CollectionChatMessages, doc.Id); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	docs, err := r.store.GetCollection(ctx, docstore.CollectionChatMessages)
	if err != nil {
		return nil, err
	}
	docs = specification.Apply(docs, specs...)

	entities := make([]*entity.ChatMessage, len(docs))
	for i, doc := range docs {
		entities[i] = r.mapper.DocumentToChatMessage(doc)
	}
	return entities, nil
}
