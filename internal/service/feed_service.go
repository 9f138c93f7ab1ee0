package service

import (
	"strings"

	"github.com/Maddy398/linkback/config"
	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
)

// FeedService 信息流聚合：帖子、作者、评论和点赞的反规范化视图
type FeedService struct {
	userRepo interfaces.UserRepository
	postRepo interfaces.PostRepository
}

func NewFeedService(userRepo interfaces.UserRepository, postRepo interfaces.PostRepository) *FeedService {
	return &FeedService{userRepo: userRepo, postRepo: postRepo}
}

func (s *FeedService) resolveUser(uid string) (*model.User, error) {
	user, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// Publish 发布帖子，imagePath 和 filePath 最多一个非空
func (s *FeedService) Publish(uid, content, imagePath, filePath string) (*model.Post, error) {
	author, err := s.resolveUser(uid)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		UserID:    author.ID,
		Content:   content,
		ImagePath: imagePath,
		FilePath:  filePath,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "创建帖子失败", err)
	}
	return post, nil
}

// mediaURL 把存储引用转换为完整的访问地址；
// 对象存储后端返回的已是绝对 URL，本地存储返回相对路径
func mediaURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return config.AppConfig.BackendURL + "/uploads/" + strings.TrimPrefix(path, "/")
}

// ListFeed 返回全部帖子的聚合视图，按创建时间倒序。
// 评论和点赞各用一次批量查询取回后在内存中按帖子分组，
// 避免逐帖查询
func (s *FeedService) ListFeed(uid string) ([]*model.FeedPost, error) {
	if _, err := s.resolveUser(uid); err != nil {
		return nil, err
	}

	posts, err := s.postRepo.ListAllWithAuthors()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询帖子列表失败", err)
	}

	postIDs := make([]int, 0, len(posts))
	for _, post := range posts {
		postIDs = append(postIDs, post.ID)
	}

	commentRows, err := s.postRepo.ListCommentsByPostIDs(postIDs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询评论失败", err)
	}
	commentsByPost := make(map[int][]model.FeedComment)
	for _, row := range commentRows {
		commentsByPost[row.PostID] = append(commentsByPost[row.PostID], model.FeedComment{
			Name: row.Name,
			Text: row.Text,
		})
	}

	likeRows, err := s.postRepo.ListLikesByPostIDs(postIDs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询点赞失败", err)
	}
	likesByPost := make(map[int][]int)
	for _, row := range likeRows {
		likesByPost[row.PostID] = append(likesByPost[row.PostID], row.UserID)
	}

	feed := make([]*model.FeedPost, 0, len(posts))
	for _, post := range posts {
		// 文件和图片同时存在时文件优先
		media := post.FilePath
		if media == "" {
			media = post.ImagePath
		}

		likes := likesByPost[post.ID]
		if likes == nil {
			likes = []int{}
		}
		comments := commentsByPost[post.ID]
		if comments == nil {
			comments = []model.FeedComment{}
		}

		feed = append(feed, &model.FeedPost{
			ID:        post.ID,
			Content:   post.Content,
			CreatedAt: post.CreatedAt,
			Author: model.FeedAuthor{
				Name: post.AuthorName,
				UID:  post.AuthorUID,
			},
			FileURL:  mediaURL(media),
			Likes:    likes,
			Comments: comments,
		})
	}
	return feed, nil
}

// ToggleLike 切换点赞状态，返回切换后是否点赞
func (s *FeedService) ToggleLike(uid string, postID int) (bool, error) {
	user, err := s.resolveUser(uid)
	if err != nil {
		return false, err
	}

	liked, err := s.postRepo.ToggleLike(user.ID, postID)
	switch err {
	case nil:
		return liked, nil
	case interfaces.ErrPostNotFound:
		return false, errors.Wrap(errors.ErrPostNotFound, "帖子不存在", err)
	default:
		return false, errors.Wrap(errors.ErrDatabase, "切换点赞状态失败", err)
	}
}

// AddComment 添加评论，任何已认证用户都可评论，不要求连接关系
func (s *FeedService) AddComment(uid string, postID int, text string) (*model.Comment, error) {
	user, err := s.resolveUser(uid)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		UserID: user.ID,
		PostID: postID,
		Text:   text,
	}
	err = s.postRepo.CreateComment(comment)
	switch err {
	case nil:
		comment.User = user
		return comment, nil
	case interfaces.ErrPostNotFound:
		return nil, errors.Wrap(errors.ErrPostNotFound, "帖子不存在", err)
	default:
		return nil, errors.Wrap(errors.ErrDatabase, "创建评论失败", err)
	}
}

// DeletePost 删除帖子及其评论和点赞，返回待清理的附件引用。
// 附件删除由调用方尽力而为地执行，失败不影响记录删除
func (s *FeedService) DeletePost(uid string, postID int) (string, error) {
	user, err := s.resolveUser(uid)
	if err != nil {
		return "", err
	}

	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		return "", errors.Wrap(errors.ErrDatabase, "查询帖子失败", err)
	}
	if post == nil {
		return "", errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if post.UserID != user.ID {
		return "", errors.New(errors.ErrNotPostOwner, "只能删除自己的帖子")
	}

	if err := s.postRepo.Delete(postID); err != nil {
		return "", errors.Wrap(errors.ErrDatabase, "删除帖子失败", err)
	}

	media := post.FilePath
	if media == "" {
		media = post.ImagePath
	}
	return media, nil
}
