package service

import (
	"testing"

	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByExternalUID(uid string) (*model.User, error) {
	args := m.Called(uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindAllExcept(userID int) ([]*model.User, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

// TestSyncUserExisting 测试按外部标识找到已有用户时直接返回
func TestSyncUserExisting(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	existing := &model.User{ID: 1, ExternalUID: "uid-1", Name: "Alice", Email: "alice@example.com"}
	mockRepo.On("FindByExternalUID", "uid-1").Return(existing, nil)

	user, err := service.SyncUser("uid-1", "Alice", "alice@example.com", "")
	assert.NoError(t, err)
	assert.Equal(t, 1, user.ID)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

// TestSyncUserEmailFallback 测试外部标识未命中时按邮箱兜底匹配
func TestSyncUserEmailFallback(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	existing := &model.User{ID: 2, Name: "Bob", Email: "bob@example.com"}
	mockRepo.On("FindByExternalUID", "uid-2").Return(nil, nil)
	mockRepo.On("FindByEmail", "bob@example.com").Return(existing, nil)

	user, err := service.SyncUser("uid-2", "Bob", "bob@example.com", "")
	assert.NoError(t, err)
	assert.Equal(t, 2, user.ID)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

// TestSyncUserCreates 测试全部未命中时创建新用户
func TestSyncUserCreates(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	mockRepo.On("FindByExternalUID", "uid-3").Return(nil, nil)
	mockRepo.On("FindByEmail", "carol@example.com").Return(nil, nil)
	mockRepo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

	user, err := service.SyncUser("uid-3", "Carol", "carol@example.com", "http://img/carol.png")
	assert.NoError(t, err)
	assert.Equal(t, "uid-3", user.ExternalUID)
	assert.Equal(t, "Carol", user.Name)
	assert.Equal(t, "http://img/carol.png", user.PhotoURL)
	mockRepo.AssertExpectations(t)
}

// TestUpdateProfilePartial 测试只更新请求中携带的字段
func TestUpdateProfilePartial(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	existing := &model.User{ID: 1, ExternalUID: "uid-1", Name: "Alice", Bio: "old bio", Work: "Engineer"}
	mockRepo.On("FindByExternalUID", "uid-1").Return(existing, nil)
	mockRepo.On("Update", mock.AnythingOfType("*model.User")).Return(nil)

	newBio := "new bio"
	user, err := service.UpdateProfile("uid-1", ProfileUpdate{Bio: &newBio})
	assert.NoError(t, err)
	assert.Equal(t, "new bio", user.Bio)
	// 未携带的字段保持原值
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "Engineer", user.Work)
	mockRepo.AssertExpectations(t)
}

// TestGetByUIDNotFound 测试用户不存在时返回业务错误
func TestGetByUIDNotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo)

	mockRepo.On("FindByExternalUID", "ghost").Return(nil, nil)

	user, err := service.GetByUID("ghost")
	assert.Nil(t, user)
	assert.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrUserNotFound, appErr.Code)
}
