package message

import (
	"strconv"

	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type MessageHandler struct {
	messageService *service.MessageService
}

func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService}
}

// Send 发送私信，要求双方互为连接
func (h *MessageHandler) Send(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	recipientID, ok := parseUserID(c, "recipientId")
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text" binding:"required,notblank"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("发送私信失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	msg, err := h.messageService.Send(uid, recipientID, input.Text)
	if err != nil {
		util.Logger.Warn("发送私信失败",
			zap.String("uid", uid),
			zap.Int("recipient_id", recipientID),
			zap.Error(err))
		handleServiceError(c, err, "发送私信失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"message": msg,
	}, "发送成功")
}

// Thread 返回与指定用户的会话记录
func (h *MessageHandler) Thread(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	otherID, ok := parseUserID(c, "userId")
	if !ok {
		return
	}

	messages, err := h.messageService.Thread(uid, otherID)
	if err != nil {
		util.Logger.Error("获取会话记录失败",
			zap.String("uid", uid),
			zap.Int("user_id", otherID),
			zap.Error(err))
		handleServiceError(c, err, "获取会话记录失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"messages": messages,
	}, "")
}

func parseUserID(c *gin.Context, param string) (int, bool) {
	id, err := strconv.Atoi(c.Param(param))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "无效的用户ID"))
		return 0, false
	}
	return id, true
}

func handleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*errors.AppError); ok {
		errors.HandleError(c, appErr)
		return
	}
	errors.HandleError(c, errors.Wrap(errors.ErrInternal, fallback, err))
}
