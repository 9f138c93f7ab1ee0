package mysql

import (
	"database/sql"

	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/util"

	"go.uber.org/zap"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *messageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *model.Message) error {
	query := `INSERT INTO messages (sender_id, receiver_id, text, created_at) VALUES (?, ?, ?, NOW())`
	result, err := r.db.Exec(query, message.SenderID, message.ReceiverID, message.Text)
	if err != nil {
		util.Logger.Error("创建消息失败", zap.Error(err))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	message.ID = int(id)

	util.Logger.Info("消息发送成功",
		zap.Int("message_id", message.ID),
		zap.Int("sender_id", message.SenderID),
		zap.Int("receiver_id", message.ReceiverID))
	return nil
}

// ListBetween 返回两个用户之间的全部消息，按创建时间升序
func (r *messageRepository) ListBetween(userID, otherID int) ([]*model.ThreadMessage, error) {
	query := `
        SELECT m.text, m.sender_id, u.name
        FROM messages m
        JOIN users u ON m.sender_id = u.id
        WHERE (m.sender_id = ? AND m.receiver_id = ?)
           OR (m.sender_id = ? AND m.receiver_id = ?)
        ORDER BY m.created_at ASC`

	rows, err := r.db.Query(query, userID, otherID, otherID, userID)
	if err != nil {
		util.Logger.Error("查询会话消息失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var messages []*model.ThreadMessage
	for rows.Next() {
		var msg model.ThreadMessage
		if err := rows.Scan(&msg.Text, &msg.SenderID, &msg.SenderName); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}
