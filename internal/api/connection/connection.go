package connection

import (
	"strconv"

	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConnectionHandler struct {
	connectionService *service.ConnectionService
}

func NewConnectionHandler(connectionService *service.ConnectionService) *ConnectionHandler {
	return &ConnectionHandler{connectionService}
}

// Directory 返回除本人外的全部用户，附带关系状态
func (h *ConnectionHandler) Directory(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	users, err := h.connectionService.Directory(uid)
	if err != nil {
		util.Logger.Error("获取用户目录失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "获取用户目录失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"users": users,
	}, "")
}

// Connections 返回本人的连接列表
func (h *ConnectionHandler) Connections(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	users, err := h.connectionService.Connections(uid)
	if err != nil {
		util.Logger.Error("获取连接列表失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "获取连接列表失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"connections": users,
	}, "")
}

// SendRequest 发送连接请求
func (h *ConnectionHandler) SendRequest(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	targetID, ok := parseTargetID(c, "id")
	if !ok {
		return
	}

	if err := h.connectionService.SendRequest(uid, targetID); err != nil {
		util.Logger.Warn("发送连接请求失败",
			zap.String("uid", uid),
			zap.Int("target_id", targetID),
			zap.Error(err))
		handleServiceError(c, err, "发送连接请求失败")
		return
	}

	errors.HandleSuccess(c, nil, "连接请求已发送")
}

// AcceptRequest 接受连接请求
func (h *ConnectionHandler) AcceptRequest(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	requesterID, ok := parseTargetID(c, "id")
	if !ok {
		return
	}

	if err := h.connectionService.AcceptRequest(uid, requesterID); err != nil {
		util.Logger.Warn("接受连接请求失败",
			zap.String("uid", uid),
			zap.Int("requester_id", requesterID),
			zap.Error(err))
		handleServiceError(c, err, "接受连接请求失败")
		return
	}

	errors.HandleSuccess(c, nil, "已建立连接")
}

// RejectRequest 拒绝连接请求
func (h *ConnectionHandler) RejectRequest(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	requesterID, ok := parseTargetID(c, "id")
	if !ok {
		return
	}

	if err := h.connectionService.RejectRequest(uid, requesterID); err != nil {
		util.Logger.Warn("拒绝连接请求失败",
			zap.String("uid", uid),
			zap.Int("requester_id", requesterID),
			zap.Error(err))
		handleServiceError(c, err, "拒绝连接请求失败")
		return
	}

	errors.HandleSuccess(c, nil, "已拒绝连接请求")
}

// ToggleConnection 直接连接或断开
func (h *ConnectionHandler) ToggleConnection(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	targetID, ok := parseTargetID(c, "id")
	if !ok {
		return
	}

	connected, err := h.connectionService.ToggleConnection(uid, targetID)
	if err != nil {
		util.Logger.Warn("切换连接状态失败",
			zap.String("uid", uid),
			zap.Int("target_id", targetID),
			zap.Error(err))
		handleServiceError(c, err, "切换连接状态失败")
		return
	}

	message := "已断开连接"
	if connected {
		message = "已建立连接"
	}

	errors.HandleSuccess(c, gin.H{
		"connected": connected,
	}, message)
}

func parseTargetID(c *gin.Context, param string) (int, bool) {
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
