package service

import (
	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
	"github.com/Maddy398/linkback/internal/util"

	"go.uber.org/zap"
)

// ConnectionService 连接图引擎：维护连接与待处理请求之间的状态转换
type ConnectionService struct {
	userRepo interfaces.UserRepository
	connRepo interfaces.ConnectionRepository
}

func NewConnectionService(userRepo interfaces.UserRepository, connRepo interfaces.ConnectionRepository) *ConnectionService {
	return &ConnectionService{userRepo: userRepo, connRepo: connRepo}
}

// resolvePair 解析发起方（外部标识）和目标方（内部ID），
// 任一不存在返回用户不存在错误
func (s *ConnectionService) resolvePair(uid string, targetID int) (*model.User, *model.User, error) {
	actor, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	target, err := s.userRepo.FindByID(targetID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if actor == nil || target == nil {
		return nil, nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return actor, target, nil
}

// SendRequest 发送连接请求
func (s *ConnectionService) SendRequest(uid string, targetID int) error {
	actor, target, err := s.resolvePair(uid, targetID)
	if err != nil {
		return err
	}
	if actor.ID == target.ID {
		return errors.New(errors.ErrSelfTarget, "不能向自己发送连接请求")
	}

	err = s.connRepo.CreateRequest(actor.ID, target.ID)
	switch err {
	case nil:
		return nil
	case interfaces.ErrAlreadyConnected, interfaces.ErrRequestPending:
		return errors.Wrap(errors.ErrDuplicateRequest, "请求已发送或双方已连接", err)
	default:
		return errors.Wrap(errors.ErrDatabase, "发送连接请求失败", err)
	}
}

// AcceptRequest 接受来自 requester 的连接请求
func (s *ConnectionService) AcceptRequest(uid string, requesterID int) error {
	actor, requester, err := s.resolvePair(uid, requesterID)
	if err != nil {
		return err
	}

	err = s.connRepo.AcceptRequest(actor.ID, requester.ID)
	switch err {
	case nil:
		return nil
	case interfaces.ErrNoPendingRequest:
		return errors.Wrap(errors.ErrNoPendingRequest, "该用户没有发来连接请求", err)
	case interfaces.ErrAlreadyConnected:
		return errors.Wrap(errors.ErrDuplicateRequest, "双方已连接", err)
	default:
		return errors.Wrap(errors.ErrDatabase, "接受连接请求失败", err)
	}
}

// RejectRequest 拒绝来自 requester 的连接请求
func (s *ConnectionService) RejectRequest(uid string, requesterID int) error {
	actor, requester, err := s.resolvePair(uid, requesterID)
	if err != nil {
		return err
	}

	err = s.connRepo.RejectRequest(actor.ID, requester.ID)
	switch err {
	case nil:
		return nil
	case interfaces.ErrNoPendingRequest:
		return errors.Wrap(errors.ErrNoPendingRequest, "该用户没有发来连接请求", err)
	default:
		return errors.Wrap(errors.ErrDatabase, "拒绝连接请求失败", err)
	}
}

// ToggleConnection 直接连接或断开，返回最终是否连接。
// 规范路径是请求/接受流程，这里是显式的直连通道
func (s *ConnectionService) ToggleConnection(uid string, targetID int) (bool, error) {
	actor, target, err := s.resolvePair(uid, targetID)
	if err != nil {
		return false, err
	}
	if actor.ID == target.ID {
		return false, errors.New(errors.ErrSelfTarget, "不能连接自己")
	}

	connected, err := s.connRepo.ToggleConnection(actor.ID, target.ID)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "切换连接状态失败", err)
	}
	return connected, nil
}

// Directory 返回除本人外的全部用户，附带与本人的关系状态。
// 互斥不变量保证每对用户恰好落入四种状态之一
func (s *ConnectionService) Directory(uid string) ([]*model.UserSummary, error) {
	actor, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if actor == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	sets, err := s.connRepo.GetRelationSets(actor.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询关系集合失败", err)
	}

	users, err := s.userRepo.FindAllExcept(actor.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户列表失败", err)
	}

	summaries := make([]*model.UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, &model.UserSummary{
			ID:       user.ID,
			Name:     user.Name,
			PhotoURL: user.PhotoURL,
			Status:   sets.StatusOf(user.ID),
		})
	}

	util.Logger.Debug("用户目录生成完成",
		zap.Int("user_id", actor.ID),
		zap.Int("count", len(summaries)))
	return summaries, nil
}

// Connections 返回本人的连接列表
func (s *ConnectionService) Connections(uid string) ([]*model.User, error) {
	actor, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if actor == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	connections, err := s.connRepo.ListConnections(actor.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询连接列表失败", err)
	}
	return connections, nil
}
