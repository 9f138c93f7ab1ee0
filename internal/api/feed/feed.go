package feed

import (
	"fmt"
	"strconv"

	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/storage"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FeedHandler struct {
	feedService *service.FeedService
	storage     storage.Storage
}

func NewFeedHandler(feedService *service.FeedService, storage storage.Storage) *FeedHandler {
	return &FeedHandler{feedService, storage}
}

// CreatePost 发布帖子，最多携带一个附件，
// 按内容类型区分图片和普通文件
func (h *FeedHandler) CreatePost(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	content := c.PostForm("content")
	file, fileErr := c.FormFile("file")

	// 纯附件帖子允许正文为空，正文和附件都没有才算无效
	if content == "" && fileErr != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "帖子内容和附件不能同时为空"))
		return
	}

	var imagePath, filePath, storedBlob string
	if fileErr == nil {
		filename := util.GenerateUniqueFilename(file.Filename)
		path := fmt.Sprintf("posts/%s/%s", uid, filename)

		storedPath, err := h.storage.UploadFile(file, path)
		if err != nil {
			util.Logger.Error("上传帖子附件失败", zap.Error(err))
			errors.HandleError(c, errors.Wrap(errors.ErrStorage, "上传附件失败", err))
			return
		}

		storedBlob = storedPath
		if util.IsImageContentType(file.Header.Get("Content-Type")) {
			imagePath = storedPath
		} else {
			filePath = storedPath
		}
	}

	post, err := h.feedService.Publish(uid, content, imagePath, filePath)
	if err != nil {
		// 帖子没写成时清理已上传的附件，失败只记日志
		if storedBlob != "" {
			if delErr := h.storage.DeleteFile(storedBlob); delErr != nil {
				util.Logger.Warn("清理未落库的帖子附件失败",
					zap.String("path", storedBlob),
					zap.Error(delErr))
			}
		}
		util.Logger.Error("发布帖子失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "发布帖子失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"post": post,
	}, "帖子发布成功")
}

// ListFeed 返回全部帖子的聚合视图
func (h *FeedHandler) ListFeed(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	posts, err := h.feedService.ListFeed(uid)
	if err != nil {
		util.Logger.Error("获取信息流失败", zap.String("uid", uid), zap.Error(err))
		handleServiceError(c, err, "获取信息流失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts": posts,
	}, "")
}

// ToggleLike 切换点赞状态
func (h *FeedHandler) ToggleLike(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	liked, err := h.feedService.ToggleLike(uid, postID)
	if err != nil {
		util.Logger.Warn("切换点赞状态失败",
			zap.String("uid", uid),
			zap.Int("post_id", postID),
			zap.Error(err))
		handleServiceError(c, err, "切换点赞状态失败")
		return
	}

	message := "已取消点赞"
	if liked {
		message = "点赞成功"
	}

	errors.HandleSuccess(c, gin.H{
		"liked": liked,
	}, message)
}

// AddComment 添加评论
func (h *FeedHandler) AddComment(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var input struct {
		Text string `json:"text" binding:"required,notblank"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Warn("添加评论失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	comment, err := h.feedService.AddComment(uid, postID, input.Text)
	if err != nil {
		util.Logger.Warn("添加评论失败",
			zap.String("uid", uid),
			zap.Int("post_id", postID),
			zap.Error(err))
		handleServiceError(c, err, "添加评论失败")
		return
	}

	errors.HandleSuccess(c, gin.H{
		"comment": comment,
	}, "评论成功")
}

// DeletePost 删除帖子，记录删除后尽力清理附件，
// 附件清理失败只记日志不影响结果
func (h *FeedHandler) DeletePost(c *gin.Context) {
	uid := c.GetString(middleware.ExternalUIDKey)

	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	mediaPath, err := h.feedService.DeletePost(uid, postID)
	if err != nil {
		util.Logger.Warn("删除帖子失败",
			zap.String("uid", uid),
			zap.Int("post_id", postID),
			zap.Error(err))
		handleServiceError(c, err, "删除帖子失败")
		return
	}

	if mediaPath != "" {
		if err := h.storage.DeleteFile(mediaPath); err != nil {
			util.Logger.Warn("清理帖子附件失败",
				zap.Int("post_id", postID),
				zap.String("path", mediaPath),
				zap.Error(err))
		}
	}

	errors.HandleSuccess(c, nil, "帖子已删除")
}

func parsePostID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "无效的帖子ID"))
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
