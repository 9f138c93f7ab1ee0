package interfaces

import "github.com/Maddy398/linkback/internal/model"

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id int) (*model.User, error)
	FindByExternalUID(uid string) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	FindAllExcept(userID int) ([]*model.User, error)
}
