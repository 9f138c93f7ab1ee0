package interfaces

import "github.com/Maddy398/linkback/internal/model"

// PostRepository 定义了帖子相关的数据库操作接口
type PostRepository interface {
	Create(post *model.Post) error
	// FindByID 帖子不存在时返回 (nil, nil)
	FindByID(id int) (*model.Post, error)
	// ListAllWithAuthors 按创建时间倒序返回全部帖子及作者信息
	ListAllWithAuthors() ([]*model.PostWithAuthor, error)
	// ListCommentsByPostIDs 一次查询取回多个帖子的全部评论，按创建时间升序
	ListCommentsByPostIDs(postIDs []int) ([]*model.PostCommentRow, error)
	// ListLikesByPostIDs 一次查询取回多个帖子的点赞用户ID
	ListLikesByPostIDs(postIDs []int) ([]*model.PostLikeRow, error)
	// ToggleLike 切换点赞状态，返回切换后是否点赞；
	// 帖子不存在返回 ErrPostNotFound
	ToggleLike(userID, postID int) (bool, error)
	// CreateComment 帖子不存在返回 ErrPostNotFound
	CreateComment(comment *model.Comment) error
	// Delete 在单个事务内级联删除评论、点赞和帖子本身
	Delete(postID int) error
}
