package interfaces

import "github.com/Maddy398/linkback/internal/model"

// ConnectionRepository 定义了连接图的数据库操作接口。
// 每个修改操作在单个事务内更新双方的关系记录，
// 状态检查也在同一事务内完成
type ConnectionRepository interface {
	// CreateRequest 插入一条待处理请求；已连接返回 ErrAlreadyConnected，
	// 任一方向已有待处理请求返回 ErrRequestPending
	CreateRequest(senderID, receiverID int) error
	// AcceptRequest 删除请求记录并插入双向连接记录；
	// 无待处理请求返回 ErrNoPendingRequest
	AcceptRequest(userID, requesterID int) error
	// RejectRequest 删除请求记录，不建立连接
	RejectRequest(userID, requesterID int) error
	// ToggleConnection 已连接则断开，未连接则直接建立连接并
	// 清除双方向的待处理请求；返回最终是否连接
	ToggleConnection(userID, otherID int) (bool, error)
	AreConnected(userID, otherID int) (bool, error)
	GetRelationSets(userID int) (*model.RelationSets, error)
	ListConnections(userID int) ([]*model.User, error)
}
