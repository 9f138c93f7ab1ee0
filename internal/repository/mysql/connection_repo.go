package mysql

import (
	"database/sql"

	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// connectionRepository 实现了 ConnectionRepository 接口。
// connections 表为每条连接保存两行镜像记录，connection_requests 表
// 每个待处理方向一行；所有涉及双方记录的写入都在单个事务内完成，
// 状态检查同样在事务内执行，配合唯一键约束保证并发下的互斥不变量
type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) *connectionRepository {
	return &connectionRepository{db: db}
}

// mysqlDuplicateEntry MySQL 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

func isDuplicateEntry(err error) bool {
	mysqlErr, ok := err.(*mysql.MySQLError)
	return ok && mysqlErr.Number == mysqlDuplicateEntry
}

// lockPairTx 按固定顺序锁定双方的用户行，把同一对用户的并发图变更
// 串行化。普通快照读在 REPEATABLE READ 下看不到并发事务的写入，
// 只靠事务内检查挡不住交叉的请求；拿到行锁后事务内的检查读到的
// 才是已提交的最新状态
func lockPairTx(tx *sql.Tx, userID, otherID int) error {
	rows, err := tx.Query(`SELECT id FROM users WHERE id IN (?, ?) ORDER BY id FOR UPDATE`,
		userID, otherID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// 事务内检查：两用户是否已连接
func connectedTx(tx *sql.Tx, userID, otherID int) (bool, error) {
	var exists bool
	err := tx.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM connections
            WHERE user_id = ? AND other_id = ?
        )`, userID, otherID).Scan(&exists)
	return exists, err
}

// 事务内检查：是否存在 sender -> receiver 的待处理请求
func pendingTx(tx *sql.Tx, senderID, receiverID int) (bool, error) {
	var exists bool
	err := tx.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM connection_requests
            WHERE sender_id = ? AND receiver_id = ?
        )`, senderID, receiverID).Scan(&exists)
	return exists, err
}

// CreateRequest 插入一条待处理请求
func (r *connectionRepository) CreateRequest(senderID, receiverID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockPairTx(tx, senderID, receiverID); err != nil {
		return err
	}

	connected, err := connectedTx(tx, senderID, receiverID)
	if err != nil {
		return err
	}
	if connected {
		return interfaces.ErrAlreadyConnected
	}

	// 任一方向已有待处理请求都算重复
	for _, pair := range [][2]int{{senderID, receiverID}, {receiverID, senderID}} {
		pending, err := pendingTx(tx, pair[0], pair[1])
		if err != nil {
			return err
		}
		if pending {
			return interfaces.ErrRequestPending
		}
	}

	_, err = tx.Exec(`INSERT INTO connection_requests (sender_id, receiver_id, created_at) VALUES (?, ?, NOW())`,
		senderID, receiverID)
	if err != nil {
		// 唯一键兜底：同方向的并发重复请求也按重复处理
		if isDuplicateEntry(err) {
			return interfaces.ErrRequestPending
		}
		util.Logger.Error("插入连接请求失败", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("连接请求已创建",
		zap.Int("sender_id", senderID),
		zap.Int("receiver_id", receiverID))
	return nil
}

// AcceptRequest 接受请求：删除请求记录并在同一事务内写入双方的连接记录
func (r *connectionRepository) AcceptRequest(userID, requesterID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := lockPairTx(tx, userID, requesterID); err != nil {
		return err
	}

	result, err := tx.Exec(`DELETE FROM connection_requests WHERE sender_id = ? AND receiver_id = ?`,
		requesterID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrNoPendingRequest
	}

	// 双向镜像记录在同一事务内写入，保证对称不变量
	_, err = tx.Exec(`INSERT INTO connections (user_id, other_id, created_at) VALUES (?, ?, NOW()), (?, ?, NOW())`,
		userID, requesterID, requesterID, userID)
	if err != nil {
		if isDuplicateEntry(err) {
			return interfaces.ErrAlreadyConnected
		}
		util.Logger.Error("插入连接记录失败", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}

	util.Logger.Info("连接请求已接受",
		zap.Int("user_id", userID),
		zap.Int("requester_id", requesterID))
	return nil
}

// RejectRequest 拒绝请求：只删除请求记录，不建立连接
func (r *connectionRepository) RejectRequest(userID, requesterID int) error {
	result, err := r.db.Exec(`DELETE FROM connection_requests WHERE sender_id = ? AND receiver_id = ?`,
		requesterID, userID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return interfaces.ErrNoPendingRequest
	}

	util.Logger.Info("连接请求已拒绝",
		zap.Int("user_id", userID),
		zap.Int("requester_id", requesterID))
	return nil
}

// ToggleConnection 直接连接或断开。建立连接前先清除双方向的
// 待处理请求，避免出现既连接又有待处理请求的状态
func (r *connectionRepository) ToggleConnection(userID, otherID int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if err := lockPairTx(tx, userID, otherID); err != nil {
		return false, err
	}

	connected, err := connectedTx(tx, userID, otherID)
	if err != nil {
		return false, err
	}

	if connected {
		_, err = tx.Exec(`DELETE FROM connections
            WHERE (user_id = ? AND other_id = ?) OR (user_id = ? AND other_id = ?)`,
			userID, otherID, otherID, userID)
		if err != nil {
			return false, err
		}
	} else {
		_, err = tx.Exec(`DELETE FROM connection_requests
            WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)`,
			userID, otherID, otherID, userID)
		if err != nil {
			return false, err
		}
		_, err = tx.Exec(`INSERT INTO connections (user_id, other_id, created_at) VALUES (?, ?, NOW()), (?, ?, NOW())`,
			userID, otherID, otherID, userID)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return false, err
	}

	util.Logger.Info("连接状态已切换",
		zap.Int("user_id", userID),
		zap.Int("other_id", otherID),
		zap.Bool("connected", !connected))
	return !connected, nil
}

// AreConnected 检查两用户是否互为连接
func (r *connectionRepository) AreConnected(userID, otherID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
        SELECT EXISTS(
            SELECT 1 FROM connections
            WHERE user_id = ? AND other_id = ?
        )`, userID, otherID).Scan(&exists)
	return exists, err
}

// GetRelationSets 取回用户的三个关系集合，用于目录状态分类
func (r *connectionRepository) GetRelationSets(userID int) (*model.RelationSets, error) {
	sets := &model.RelationSets{
		Connections: make(map[int]struct{}),
		Sent:        make(map[int]struct{}),
		Incoming:    make(map[int]struct{}),
	}

	rows, err := r.db.Query(`SELECT other_id FROM connections WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		sets.Connections[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reqRows, err := r.db.Query(`SELECT sender_id, receiver_id FROM connection_requests
        WHERE sender_id = ? OR receiver_id = ?`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer reqRows.Close()
	for reqRows.Next() {
		var senderID, receiverID int
		if err := reqRows.Scan(&senderID, &receiverID); err != nil {
			return nil, err
		}
		if senderID == userID {
			sets.Sent[receiverID] = struct{}{}
		} else {
			sets.Incoming[senderID] = struct{}{}
		}
	}
	return sets, reqRows.Err()
}

// ListConnections 返回用户的连接列表
func (r *connectionRepository) ListConnections(userID int) ([]*model.User, error) {
	query := `
        SELECT u.id, u.name, u.photo_url
        FROM users u
        JOIN connections c ON u.id = c.other_id
        WHERE c.user_id = ?
        ORDER BY c.created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		util.Logger.Error("查询连接列表失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	defer rows.Close()

	var connections []*model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Name, &user.PhotoURL); err != nil {
			return nil, err
		}
		connections = append(connections, &user)
	}
	return connections, rows.Err()
}
