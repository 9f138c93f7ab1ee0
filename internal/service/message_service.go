package service

import (
	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
)

// MessageService 私信：写入受连接状态约束，读取不受限
type MessageService struct {
	userRepo    interfaces.UserRepository
	connRepo    interfaces.ConnectionRepository
	messageRepo interfaces.MessageRepository
}

func NewMessageService(userRepo interfaces.UserRepository, connRepo interfaces.ConnectionRepository,
	messageRepo interfaces.MessageRepository) *MessageService {
	return &MessageService{userRepo: userRepo, connRepo: connRepo, messageRepo: messageRepo}
}

func (s *MessageService) resolvePair(uid string, otherID int) (*model.User, *model.User, error) {
	actor, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	other, err := s.userRepo.FindByID(otherID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if actor == nil || other == nil {
		return nil, nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return actor, other, nil
}

// Send 发送私信，发送时双方必须互为连接。
// 连接状态直接查询连接图，不在这里重新推导
func (s *MessageService) Send(uid string, receiverID int, text string) (*model.Message, error) {
	sender, receiver, err := s.resolvePair(uid, receiverID)
	if err != nil {
		return nil, err
	}

	connected, err := s.connRepo.AreConnected(sender.ID, receiver.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询连接状态失败", err)
	}
	if !connected {
		return nil, errors.New(errors.ErrNotConnected, "与该用户没有连接关系")
	}

	message := &model.Message{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Text:       text,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "发送消息失败", err)
	}
	return message, nil
}

// Thread 返回与指定用户的会话，按时间升序。
// 历史记录的读取不检查连接状态（断开后仍可查看）
func (s *MessageService) Thread(uid string, otherID int) ([]*model.ThreadMessage, error) {
	actor, other, err := s.resolvePair(uid, otherID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListBetween(actor.ID, other.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询会话失败", err)
	}
	if messages == nil {
		messages = []*model.ThreadMessage{}
	}
	return messages, nil
}
