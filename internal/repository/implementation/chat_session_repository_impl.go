package implementation

import (
	"context"

	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/internal/repository/contract"
	"learnly-chat-be/internal/repository/specification"
	"learnly-chat-be/pkg/docstore"
)

type ChatSessionRepositoryImpl struct {
	store  docstore.Store
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(store docstore.Store) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		store:  store,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	id, err := r.store.CreateDocument(ctx, docstore.CollectionChatSessions, r.mapper.ChatSessionToFields(session))
	if err != nil {
		return err
	}
	session.Id = id
	return nil
}

func (r *ChatSessionRepositoryImpl) Patch(ctx context.Context, id string, patch entity.ChatSessionPatch) error {
	fields := r.mapper.ChatSessionPatchToFields(patch)
	if len(fields) == 0 {
		return nil
	}
	return r.store.UpdateDocument(ctx, docstore.CollectionChatSessions, id, fields)
}

func (r *ChatSessionRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.store.DeleteDocument(ctx, docstore.CollectionChatSessions, id)
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	sessions, err := r.FindAll(ctx, specs...)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	docs, err := r.store.GetCollection(ctx, docstore.CollectionChatSessions)
	if err != nil {
		return nil, err
	}
	docs = specification.Apply(docs, specs...)

	entities := make([]*entity.ChatSession, len(docs))
	for i, doc := range docs {
		entities[i] = r.mapper.DocumentToChatSession(doc)
	}
	return entities, nil
}
