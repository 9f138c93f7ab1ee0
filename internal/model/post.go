package model

import "time"

// Post 帖子模型。ImagePath 和 FilePath 最多只有一个非空，
// 由上传文件的 Content-Type 决定归类
type Post struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Content   string    `json:"content"`
	ImagePath string    `json:"image_path,omitempty"`
	FilePath  string    `json:"file_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment 评论模型，只能随帖子级联删除
type Comment struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	User      *User     `json:"user,omitempty"`
}

// FeedAuthor 信息流中的作者信息
type FeedAuthor struct {
	Name string `json:"name"`
	UID  string `json:"uid"`
}

// FeedComment 信息流中的评论条目
type FeedComment struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// FeedPost 信息流条目：帖子与作者、附件URL、点赞者和评论的聚合视图
type FeedPost struct {
	ID        int           `json:"id"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Author    FeedAuthor    `json:"author"`
	FileURL   string        `json:"file_url,omitempty"`
	Likes     []int         `json:"likes"`
	Comments  []FeedComment `json:"comments"`
}

// PostWithAuthor 帖子与作者的联查结果
type PostWithAuthor struct {
	Post
	AuthorName string
	AuthorUID  string
}

// PostCommentRow 批量评论查询的结果行
type PostCommentRow struct {
	PostID int
	Name   string
	Text   string
}

// PostLikeRow 批量点赞查询的结果行
type PostLikeRow struct {
	PostID int
	UserID int
}
