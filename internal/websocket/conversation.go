package websocket

import (
	"context"
	"strings"
	"time"

	"learnly-chat-be/internal/constant"
	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/entity"
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/internal/pkg/serverutils"
	"learnly-chat-be/internal/service"
	"learnly-chat-be/pkg/chat/view"
)

// Conversation is the view state of one tutor connection: the ordered
// session list, the selected chat and its optimistic transcript. Frames are
// handled one at a time by the owning client.
type Conversation struct {
	userId     string
	service    service.IChatService
	sessions   *view.SessionList
	transcript *view.Transcript
	selected   *string
}

func NewConversation(userId string, svc service.IChatService) *Conversation {
	return &Conversation{
		userId:     userId,
		service:    svc,
		sessions:   view.NewSessionList(nil),
		transcript: view.NewTranscript(nil),
	}
}

// Selected returns the current chat id, or "" for a new unsaved chat.
func (c *Conversation) Selected() string {
	if c.selected == nil {
		return ""
	}
	return *c.selected
}

func (c *Conversation) Sessions() *view.SessionList {
	return c.sessions
}

func (c *Conversation) Transcript() *view.Transcript {
	return c.transcript
}

// Open loads the session list for a fresh connection.
func (c *Conversation) Open(ctx context.Context) []dto.WsOutboundFrame {
	return []dto.WsOutboundFrame{c.reloadSessions(ctx)}
}

func (c *Conversation) Handle(ctx context.Context, frame dto.WsInboundFrame) []dto.WsOutboundFrame {
	switch frame.Type {
	case dto.WsFrameSend:
		return c.send(ctx, frame)
	case dto.WsFrameSelect:
		return c.selectChat(ctx, frame.ChatId)
	case dto.WsFrameNewChat:
		return c.newChat(ctx, frame.Title)
	case dto.WsFrameDelete:
		return c.deleteChat(ctx, frame.ChatId)
	case dto.WsFrameRename:
		return c.renameChat(ctx, frame.ChatId, frame.Title)
	case dto.WsFrameRefresh:
		return []dto.WsOutboundFrame{c.reloadSessions(ctx)}
	default:
		return []dto.WsOutboundFrame{errorFrame("", "unknown frame type: "+frame.Type)}
	}
}

func (c *Conversation) send(ctx context.Context, frame dto.WsInboundFrame) []dto.WsOutboundFrame {
	text := strings.TrimSpace(frame.Text)
	if text == "" {
		return nil
	}

	tok := c.transcript.Tentative(entity.ChatMessage{
		ChatId:    c.Selected(),
		Role:      constant.ChatMessageRoleUser,
		Content:   text,
		Timestamp: time.Now().UTC(),
	})

	out, err := c.service.SendExchange(ctx, c.userId, service.ExchangeInput{
		ChatId:  c.selected,
		Text:    text,
		History: c.transcript.Confirmed(),
		Tutor:   frame.Tutor,
	})
	if err != nil {
		c.transcript.Revert(tok)
		frames := []dto.WsOutboundFrame{errorFrame(c.Selected(), clientMessage(err))}
		if out != nil && out.CreatedSession && out.Session != nil {
			id := out.Session.Id
			c.selected = &id
			c.sessions.MoveToFront(out.Session)
			frames = append(frames, c.sessionsFrame(""))
		}
		return append(frames, c.messagesFrame(""))
	}
	if out.Skipped {
		c.transcript.Revert(tok)
		return nil
	}

	c.transcript.Confirm(tok, out.UserMessage, out.AssistantMessage)
	id := out.Session.Id
	c.selected = &id
	c.sessions.MoveToFront(out.Session)
	session := mapper.ToChatSessionResponse(out.Session)

	return []dto.WsOutboundFrame{
		{
			Type:   dto.WsFrameReply,
			ChatId: id,
			Data: dto.SendChatResponse{
				Session:        &session,
				Sent:           mapper.ToChatMessageResponse(out.UserMessage),
				Reply:          mapper.ToChatMessageResponse(out.AssistantMessage),
				CreatedSession: out.CreatedSession,
				UsedFallback:   out.UsedFallback,
			},
		},
		c.sessionsFrame(""),
	}
}

func (c *Conversation) selectChat(ctx context.Context, chatId string) []dto.WsOutboundFrame {
	if strings.TrimSpace(chatId) == "" {
		return []dto.WsOutboundFrame{errorFrame("", "chat_id is required")}
	}

	res, err := c.service.LoadMessages(ctx, c.userId, &chatId)
	if err != nil {
		return []dto.WsOutboundFrame{errorFrame(chatId, clientMessage(err))}
	}

	c.selected = &chatId
	c.transcript.Reset(res.Messages)
	if !res.Success {
		return []dto.WsOutboundFrame{c.messagesFrame(res.Message)}
	}
	return []dto.WsOutboundFrame{c.messagesFrame("")}
}

// newChat clears the selection. The session itself is created by the first
// send unless a title is given.
func (c *Conversation) newChat(ctx context.Context, title string) []dto.WsOutboundFrame {
	c.selected = nil
	c.transcript.Reset(nil)

	if strings.TrimSpace(title) == "" {
		return []dto.WsOutboundFrame{c.messagesFrame("")}
	}

	created, err := c.service.CreateSession(ctx, c.userId, title)
	if err != nil {
		return []dto.WsOutboundFrame{errorFrame("", clientMessage(err)), c.messagesFrame("")}
	}
	id := created.Id
	c.selected = &id
	c.sessions.MoveToFront(created)
	return []dto.WsOutboundFrame{c.sessionsFrame(""), c.messagesFrame("")}
}

func (c *Conversation) deleteChat(ctx context.Context, chatId string) []dto.WsOutboundFrame {
	if _, err := c.service.DeleteSession(ctx, c.userId, chatId); err != nil {
		return []dto.WsOutboundFrame{errorFrame(chatId, clientMessage(err))}
	}

	c.sessions.Remove(chatId)
	frames := []dto.WsOutboundFrame{c.sessionsFrame("")}
	if c.Selected() == chatId {
		c.selected = nil
		c.transcript.Reset(nil)
		frames = append(frames, c.messagesFrame(""))
	}
	return frames
}

func (c *Conversation) renameChat(ctx context.Context, chatId, title string) []dto.WsOutboundFrame {
	renamed, err := c.service.RenameSession(ctx, c.userId, chatId, title)
	if err != nil {
		return []dto.WsOutboundFrame{errorFrame(chatId, clientMessage(err))}
	}
	c.sessions.Rename(chatId, renamed.Title)
	return []dto.WsOutboundFrame{c.sessionsFrame("")}
}

func (c *Conversation) reloadSessions(ctx context.Context) dto.WsOutboundFrame {
	res := c.service.LoadSessions(ctx, c.userId)
	c.sessions = view.NewSessionList(res.Sessions)
	if !res.Success {
		return c.sessionsFrame(res.Message)
	}
	return c.sessionsFrame("")
}

func (c *Conversation) sessionsFrame(message string) dto.WsOutboundFrame {
	return dto.WsOutboundFrame{
		Type:    dto.WsFrameSessions,
		Message: message,
		Data:    mapper.ToChatSessionResponses(c.sessions.Items()),
	}
}

func (c *Conversation) messagesFrame(message string) dto.WsOutboundFrame {
	return dto.WsOutboundFrame{
		Type:    dto.WsFrameMessages,
		ChatId:  c.Selected(),
		Message: message,
		Data:    mapper.ToChatMessageResponses(c.transcript.Messages()),
	}
}

func errorFrame(chatId, message string) dto.WsOutboundFrame {
	return dto.WsOutboundFrame{Type: dto.WsFrameError, ChatId: chatId, Message: message}
}

func clientMessage(err error) string {
	_, message := serverutils.StatusFor(err)
	return message
}
