package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
	"github.com/Maddy398/linkback/internal/util"

	"go.uber.org/zap"
)

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(post *model.Post) error {
	query := `INSERT INTO posts (user_id, content, image_path, file_path, created_at)
              VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NOW())`
	result, err := r.db.Exec(query, post.UserID, post.Content, post.ImagePath, post.FilePath)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return err
	}
	post.ID = int(id)

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

func (r *postRepository) FindByID(id int) (*model.Post, error) {
	query := `SELECT id, user_id, content, COALESCE(image_path, ''), COALESCE(file_path, ''), created_at
              FROM posts WHERE id = ?`

	var post model.Post
	err := r.db.QueryRow(query, id).Scan(
		&post.ID, &post.UserID, &post.Content, &post.ImagePath, &post.FilePath, &post.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListAllWithAuthors 按创建时间倒序返回全部帖子及作者信息
func (r *postRepository) ListAllWithAuthors() ([]*model.PostWithAuthor, error) {
	query := `
        SELECT p.id, p.user_id, p.content, COALESCE(p.image_path, ''), COALESCE(p.file_path, ''), p.created_at,
               u.name, u.external_uid
        FROM posts p
        JOIN users u ON p.user_id = u.id
        ORDER BY p.created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*model.PostWithAuthor
	for rows.Next() {
		var post model.PostWithAuthor
		err := rows.Scan(
			&post.ID, &post.UserID, &post.Content, &post.ImagePath, &post.FilePath, &post.CreatedAt,
			&post.AuthorName, &post.AuthorUID,
		)
		if err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	return posts, rows.Err()
}

// placeholders 生成 IN 子句所需的占位符串与参数列表
func placeholders(ids []int) (string, []interface{}) {
	marks := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ","), args
}

// ListCommentsByPostIDs 一次查询取回多个帖子的评论，避免逐帖查询
func (r *postRepository) ListCommentsByPostIDs(postIDs []int) ([]*model.PostCommentRow, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	marks, args := placeholders(postIDs)
	query := fmt.Sprintf(`
        SELECT c.post_id, u.name, c.text
        FROM comments c
        JOIN users u ON c.user_id = u.id
        WHERE c.post_id IN (%s)
        ORDER BY c.created_at ASC`, marks)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*model.PostCommentRow
	for rows.Next() {
		var row model.PostCommentRow
		if err := rows.Scan(&row.PostID, &row.Name, &row.Text); err != nil {
			return nil, err
		}
		comments = append(comments, &row)
	}
	return comments, rows.Err()
}

// ListLikesByPostIDs 一次查询取回多个帖子的点赞用户ID
func (r *postRepository) ListLikesByPostIDs(postIDs []int) ([]*model.PostLikeRow, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}

	marks, args := placeholders(postIDs)
	query := fmt.Sprintf(`SELECT post_id, user_id FROM likes WHERE post_id IN (%s)`, marks)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var likes []*model.PostLikeRow
	for rows.Next() {
		var row model.PostLikeRow
		if err := rows.Scan(&row.PostID, &row.UserID); err != nil {
			return nil, err
		}
		likes = append(likes, &row)
	}
	return likes, rows.Err()
}

// ToggleLike 在单个事务内切换点赞状态，返回切换后是否点赞
func (r *postRepository) ToggleLike(userID, postID int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 检查帖子是否存在
	var exists bool
	err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)", postID).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, interfaces.ErrPostNotFound
	}

	var liked bool
	err = tx.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM likes
            WHERE user_id = ? AND post_id = ?
        )`, userID, postID).Scan(&liked)
	if err != nil {
		return false, err
	}

	if liked {
		_, err = tx.Exec(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`, userID, postID)
	} else {
		_, err = tx.Exec(`INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, NOW())`, userID, postID)
	}
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return !liked, nil
}

func (r *postRepository) CreateComment(comment *model.Comment) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)", comment.PostID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return interfaces.ErrPostNotFound
	}

	result, err := tx.Exec(`INSERT INTO comments (user_id, post_id, text, created_at) VALUES (?, ?, ?, NOW())`,
		comment.UserID, comment.PostID, comment.Text)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	comment.ID = int(id)

	if err := tx.Commit(); err != nil {
		return err
	}

	util.Logger.Info("评论创建成功",
		zap.Int("comment_id", comment.ID),
		zap.Int("post_id", comment.PostID))
	return nil
}

// Delete 在单个事务内级联删除评论、点赞和帖子本身
func (r *postRepository) Delete(postID int) error {
	util.Logger.Info("开始删除帖子", zap.Int("post_id", postID))

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM comments WHERE post_id = ?`, postID); err != nil {
		util.Logger.Error("删除帖子评论失败", zap.Error(err), zap.Int("post_id", postID))
		return err
	}
	if _, err := tx.Exec(`DELETE FROM likes WHERE post_id = ?`, postID); err != nil {
		util.Logger.Error("删除帖子点赞失败", zap.Error(err), zap.Int("post_id", postID))
		return err
	}
	if _, err := tx.Exec(`DELETE FROM posts WHERE id = ?`, postID); err != nil {
		util.Logger.Error("删除帖子失败", zap.Error(err), zap.Int("post_id", postID))
		return err
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("帖子删除成功", zap.Int("post_id", postID))
	return nil
}
