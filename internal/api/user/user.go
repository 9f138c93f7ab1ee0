package user

import (
	"fmt"

	"github.com/Maddy398/linkback/config"
	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/storage"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	userService *service.UserService
	storage     storage.Storage
}

func NewUserHandler(userService *service.UserService, storage storage.Storage) *UserHandler {
	return &UserHandler{userService, storage}
}

// Sync 首次登录同步：按外部标识查找，按邮箱兜底，都没有则创建
func (h *UserHandler) Sync(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	var input struct {
		Name     string `json:"name" binding:"required,notblank"`
		Email    string `json:"email" binding:"required,email"`
		PhotoURL string `json:"photo_url"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("用户同步失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.userService.SyncUser(uid, input.Name, input.Email, input.PhotoURL)
	if err != nil {
		util.Logger.Error("用户同步失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "用户同步失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

// GetProfile 获取本人资料
func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	user, err := h.userService.GetByUID(uid)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "获取用户资料失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "")
}

// UpdateProfile 更新本人资料，只修改请求中携带的字段
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	var update service.ProfileUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.userService.UpdateProfile(uid, update)
	if err != nil {
		util.Logger.Error("更新用户资料失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "更新用户资料失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"user": user,
	}, "资料更新成功")
}

// UploadPhoto 上传头像并更新资料中的头像地址
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	file, err := c.FormFile("photo")
	if err != nil {
		util.Logger.Error("获取上传文件失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "无法获取上传文件", err))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !util.IsImageContentType(contentType) {
		errors.HandleError(c, errors.New(errors.ErrValidation, "头像必须是图片文件"))
		return
	}

	filename := util.GenerateUniqueFilename(file.Filename)
	path := fmt.Sprintf("photos/%s/%s", uid, filename)

	storedPath, err := h.storage.UploadFile(file, path)
	if err != nil {
		util.Logger.Error("上传头像失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrStorage, "上传头像失败", err))
		return
	}

	photoURL := storedPath
	if config.AppConfig.StorageBackend == "local" {
		photoURL = fmt.Sprintf("%s/uploads/%s", config.AppConfig.BackendURL, storedPath)
	}

	user, err := h.userService.UpdatePhoto(uid, photoURL)
	if err != nil {
		util.Logger.Error("更新用户头像失败", zap.Error(err))
		handleServiceError(c, err, "更新用户头像失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"photo_url": user.PhotoURL,
	}, "头像上传成功")
}

func handleServiceError(c *gin.Context, err error, fallback string) {
	if appErr, ok := err.(*errors.AppError); ok {
		errors.HandleError(c, appErr)
		return
	}
	errors.HandleError(c, errors.Wrap(errors.ErrInternal, fallback, err))
}
