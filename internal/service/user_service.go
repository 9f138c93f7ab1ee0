package service

import (
	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/repository/interfaces"
	"github.com/Maddy398/linkback/internal/util"

	"go.uber.org/zap"
)

// UserService 处理与用户资料相关的业务逻辑
type UserService struct {
	userRepo interfaces.UserRepository
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ProfileUpdate 资料更新字段，nil 表示请求中未携带该字段
type ProfileUpdate struct {
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Work        *string `json:"work"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	PhotoURL    *string `json:"photo_url"`
}

// SyncUser 按外部标识查找用户，找不到时按邮箱兜底匹配，
// 仍不存在则创建新用户（首次登录即注册）
func (s *UserService) SyncUser(uid, name, email, photoURL string) (*model.User, error) {
	user, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}

	if user == nil && email != "" {
		user, err = s.userRepo.FindByEmail(email)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
		}
	}

	if user == nil {
		user = &model.User{
			ExternalUID: uid,
			Name:        name,
			Email:       email,
			PhotoURL:    photoURL,
		}
		if err := s.userRepo.Create(user); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
		}
		util.Logger.Info("首次同步，已创建用户",
			zap.Int("user_id", user.ID),
			zap.String("external_uid", uid))
	}

	return user, nil
}

// GetByUID 通过外部标识获取用户
func (s *UserService) GetByUID(uid string) (*model.User, error) {
	user, err := s.userRepo.FindByExternalUID(uid)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// GetByID 通过内部ID获取用户
func (s *UserService) GetByID(id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// UpdateProfile 更新用户资料，只修改请求中携带的字段
func (s *UserService) UpdateProfile(uid string, update ProfileUpdate) (*model.User, error) {
	user, err := s.GetByUID(uid)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Work != nil {
		user.Work = *update.Work
	}
	if update.Location != nil {
		user.Location = *update.Location
	}
	if update.Description != nil {
		user.Description = *update.Description
	}
	if update.PhotoURL != nil {
		user.PhotoURL = *update.PhotoURL
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "更新用户资料失败", err)
	}
	return user, nil
}

// UpdatePhoto 更新用户头像地址
func (s *UserService) UpdatePhoto(uid, photoURL string) (*model.User, error) {
	user, err := s.GetByUID(uid)
	if err != nil {
		return nil, err
	}

	user.PhotoURL = photoURL
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "更新用户头像失败", err)
	}
	return user, nil
}
