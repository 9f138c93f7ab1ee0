package feed

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Maddy398/linkback/internal/middleware"
	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/service"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
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

// MockPostRepository 是 PostRepository 接口的模拟实现
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(post *model.Post) error {
	args := m.Called(post)
	return args.Error(0)
}

func (m *MockPostRepository) FindByID(id int) (*model.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) ListAllWithAuthors() ([]*model.PostWithAuthor, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostWithAuthor), args.Error(1)
}

func (m *MockPostRepository) ListCommentsByPostIDs(postIDs []int) ([]*model.PostCommentRow, error) {
	args := m.Called(postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostCommentRow), args.Error(1)
}

func (m *MockPostRepository) ListLikesByPostIDs(postIDs []int) ([]*model.PostLikeRow, error) {
	args := m.Called(postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.PostLikeRow), args.Error(1)
}

func (m *MockPostRepository) ToggleLike(userID, postID int) (bool, error) {
	args := m.Called(userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) CreateComment(comment *model.Comment) error {
	args := m.Called(comment)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(postID int) error {
	args := m.Called(postID)
	return args.Error(0)
}

// mockStorage 测试用的存储实现
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) UploadFile(file *multipart.FileHeader, path string) (string, error) {
	args := m.Called(file, path)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) DeleteFile(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func newTestRouter(handler *FeedHandler, uid string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.ExternalUIDKey, uid)
		c.Next()
	})
	router.POST("/api/posts", handler.CreatePost)
	return router
}

func multipartBody(t *testing.T, content string, withFile bool) (*bytes.Buffer, string) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	if content != "" {
		assert.NoError(t, writer.WriteField("content", content))
	}
	if withFile {
		part, err := writer.CreateFormFile("file", "report.pdf")
		assert.NoError(t, err)
		_, err = part.Write([]byte("file-bytes"))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

// TestCreatePostMediaOnly 测试纯附件帖子允许正文为空
func TestCreatePostMediaOnly(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPostRepo := new(MockPostRepository)
	storage := new(mockStorage)
	handler := NewFeedHandler(service.NewFeedService(mockUserRepo, mockPostRepo), storage)
	router := newTestRouter(handler, "uid-1")

	mockUserRepo.On("FindByExternalUID", "uid-1").Return(&model.User{ID: 1, ExternalUID: "uid-1"}, nil)
	storage.On("UploadFile", mock.AnythingOfType("*multipart.FileHeader"), mock.AnythingOfType("string")).
		Return("posts/uid-1/stored.pdf", nil)
	mockPostRepo.On("Create", mock.AnythingOfType("*model.Post")).Return(nil)

	body, contentType := multipartBody(t, "", true)
	req := httptest.NewRequest("POST", "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockPostRepo.AssertExpectations(t)
	storage.AssertNotCalled(t, "DeleteFile", mock.Anything)
}

// TestCreatePostNothing 测试正文和附件都没有时返回 400
func TestCreatePostNothing(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPostRepo := new(MockPostRepository)
	storage := new(mockStorage)
	handler := NewFeedHandler(service.NewFeedService(mockUserRepo, mockPostRepo), storage)
	router := newTestRouter(handler, "uid-1")

	body, contentType := multipartBody(t, "", false)
	req := httptest.NewRequest("POST", "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockPostRepo.AssertNotCalled(t, "Create", mock.Anything)
	storage.AssertNotCalled(t, "UploadFile", mock.Anything, mock.Anything)
}

// TestCreatePostCleansUpBlobOnFailure 测试帖子没写成时清理已上传的附件
func TestCreatePostCleansUpBlobOnFailure(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockPostRepo := new(MockPostRepository)
	storage := new(mockStorage)
	handler := NewFeedHandler(service.NewFeedService(mockUserRepo, mockPostRepo), storage)
	router := newTestRouter(handler, "ghost")

	// 用户不存在，发布失败
	mockUserRepo.On("FindByExternalUID", "ghost").Return(nil, nil)
	storage.On("UploadFile", mock.AnythingOfType("*multipart.FileHeader"), mock.AnythingOfType("string")).
		Return("posts/ghost/stored.pdf", nil)
	storage.On("DeleteFile", "posts/ghost/stored.pdf").Return(nil)

	body, contentType := multipartBody(t, "hello", true)
	req := httptest.NewRequest("POST", "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	storage.AssertCalled(t, "DeleteFile", "posts/ghost/stored.pdf")
	mockPostRepo.AssertNotCalled(t, "Create", mock.Anything)
}
