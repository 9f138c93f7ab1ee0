package model

import "time"

// User 结构体表示用户模型，ExternalUID 为外部身份服务分配的标识
type User struct {
	ID          int       `json:"id"`
	ExternalUID string    `json:"external_uid"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhotoURL    string    `json:"photo_url"`
	Bio         string    `json:"bio"`
	Work        string    `json:"work"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// 两个用户之间的关系状态
const (
	RelationConnected = "connected" // 已连接
	RelationPending   = "pending"   // 已发出请求，等待对方处理
	RelationIncoming  = "incoming"  // 对方发来请求，等待本人处理
	RelationNone      = "none"
)

// UserSummary 用户目录条目，带与当前用户的关系状态
type UserSummary struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
	Status   string `json:"status"`
}

// RelationSets 当前用户的三个关系集合，按对方用户ID存放
type RelationSets struct {
	Connections map[int]struct{}
	Sent        map[int]struct{}
	Incoming    map[int]struct{}
}

// StatusOf 根据互斥不变量对一对用户分类，返回四种关系状态之一
func (r *RelationSets) StatusOf(otherID int) string {
	if _, ok := r.Connections[otherID]; ok {
		return RelationConnected
	}
	if _, ok := r.Sent[otherID]; ok {
		return RelationPending
	}
	if _, ok := r.Incoming[otherID]; ok {
		return RelationIncoming
	}
	return RelationNone
}
