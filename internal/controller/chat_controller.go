package controller

import (
	"learnly-chat-be/internal/dto"
	"learnly-chat-be/internal/mapper"
	"learnly-chat-be/internal/pkg/serverutils"
	"learnly-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetSessions(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	RenameSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SendTutor(ctx *fiber.Ctx) error
}

type chatController struct {
	service   service.IChatService
	jwtSecret string
}

func NewChatController(service service.IChatService, jwtSecret string) IChatController {
	return &chatController{service: service, jwtSecret: jwtSecret}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware(c.jwtSecret))
	h.Get("/sessions", c.GetSessions)
	h.Post("/sessions", c.CreateSession)
	h.Put("/sessions/:id", c.RenameSession)
	h.Delete("/sessions/:id", c.DeleteSession)
	h.Get("/sessions/:id/messages", c.GetMessages)
	h.Post("/send", c.Send)
	h.Post("/tutor/send", c.SendTutor)
}

func (c *chatController) GetSessions(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	res := c.service.LoadSessions(ctx.UserContext(), userId)
	data := mapper.ToChatSessionResponses(res.Sessions)
	if !res.Success {
		return ctx.JSON(serverutils.SoftFailureResponse(res.Message, data))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all chat sessions", data))
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	created, err := c.service.CreateSession(ctx.UserContext(), userId, req.Title)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create chat session", mapper.ToChatSessionResponse(created)))
}

func (c *chatController) RenameSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.RenameSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	renamed, err := c.service.RenameSession(ctx.UserContext(), userId, ctx.Params("id"), req.Title)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success rename chat session", mapper.ToChatSessionResponse(renamed)))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	id := ctx.Params("id")
	removed, err := c.service.DeleteSession(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete chat session", dto.DeleteSessionResponse{
		Id:              id,
		RemovedMessages: removed,
	}))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	chatId := ctx.Params("id")
	res, err := c.service.LoadMessages(ctx.UserContext(), userId, &chatId)
	if err != nil {
		return err
	}

	data := mapper.ToChatMessageResponses(res.Messages)
	if !res.Success {
		return ctx.JSON(serverutils.SoftFailureResponse(res.Message, data))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat messages", data))
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	return c.send(ctx, false)
}

func (c *chatController) SendTutor(ctx *fiber.Ctx) error {
	return c.send(ctx, true)
}

func (c *chatController) send(ctx *fiber.Ctx, tutor bool) error {
	userId, err := serverutils.UserId(ctx)
	if err != nil {
		return err
	}

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	out, err := c.service.SendExchange(ctx.UserContext(), userId, service.ExchangeInput{
		ChatId:  req.ChatId,
		Text:    req.Text,
		History: mapper.FromHistoryMessages(req.History),
		Tutor:   tutor,
	})
	if err != nil {
		return err
	}
	if out.Skipped {
		return ctx.JSON(serverutils.SuccessResponse("Empty message skipped", dto.SendChatResponse{Skipped: true}))
	}

	session := mapper.ToChatSessionResponse(out.Session)
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", dto.SendChatResponse{
		Session:        &session,
		Sent:           mapper.ToChatMessageResponse(out.UserMessage),
		Reply:          mapper.ToChatMessageResponse(out.AssistantMessage),
		CreatedSession: out.CreatedSession,
		UsedFallback:   out.UsedFallback,
	}))
}
