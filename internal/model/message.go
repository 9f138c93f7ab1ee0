package model

import "time"

// Message 私信模型，创建后不可修改
type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadMessage 会话视图中的一条消息，附带发送者名称
type ThreadMessage struct {
	Text       string `json:"text"`
	SenderID   int    `json:"sender"`
	SenderName string `json:"sender_name"`
}
