package controller

import (
	"brandpulse-be/internal/dto"
	"brandpulse-be/internal/pkg/serverutils"
	"brandpulse-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(router fiber.Router)
	SendChat(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{chatService: chatService}
}

func (cc *chatController) RegisterRoutes(router fiber.Router) {
	group := router.Group("/chat/v1")
	group.Use(serverutils.JwtMiddleware)

	group.Post("", cc.SendChat)
}

func (cc *chatController) SendChat(ctx *fiber.Ctx) error {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid user session")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid user id")
	}

	var request dto.SendChatRequest
	if err := ctx.BodyParser(&request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(&request); err != nil {
		return err
	}

	response, err := cc.chatService.SendChat(ctx.UserContext(), userId, &request)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("chat processed", response))
}
