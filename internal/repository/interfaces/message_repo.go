package interfaces

import "github.com/Maddy398/linkback/internal/model"

// MessageRepository 定义了私信相关的数据库操作接口
type MessageRepository interface {
	Create(message *model.Message) error
	// ListBetween 返回两个用户之间的全部消息，按创建时间升序，
	// 附带发送者名称
	ListBetween(userID, otherID int) ([]*model.ThreadMessage, error)
}
