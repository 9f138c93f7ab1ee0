package mysql

import (
	"database/sql"
	"time"

	"github.com/Maddy398/linkback/internal/model"
	"github.com/Maddy398/linkback/internal/util"

	"go.uber.org/zap"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db}
}

// Create 创建一个新用户
func (r *userRepository) Create(user *model.User) error {
	util.Logger.Info("尝试创建新用户", zap.String("external_uid", user.ExternalUID))
	query := `INSERT INTO users (external_uid, name, email, photo_url, bio, work, location, description, created_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW())`
	result, err := r.db.Exec(query, user.ExternalUID, user.Name, user.Email, user.PhotoURL,
		user.Bio, user.Work, user.Location, user.Description)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = int(id)
	user.CreatedAt = time.Now()
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

const userColumns = `id, external_uid, name, email, photo_url, bio, work, location, description, created_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.ExternalUID, &user.Name, &user.Email, &user.PhotoURL,
		&user.Bio, &user.Work, &user.Location, &user.Description, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByID 通过内部ID查找用户，不存在时返回 (nil, nil)
func (r *userRepository) FindByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRow(query, id))
}

// FindByExternalUID 通过外部身份标识查找用户
func (r *userRepository) FindByExternalUID(uid string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_uid = ?`
	return scanUser(r.db.QueryRow(query, uid))
}

// FindByEmail 通过邮箱查找用户，用于同步时的兜底匹配
func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRow(query, email))
}

// Update 更新用户资料
func (r *userRepository) Update(user *model.User) error {
	_, err := r.db.Exec(`
		UPDATE users
		SET name = ?, photo_url = ?, bio = ?, work = ?, location = ?, description = ?
		WHERE id = ?`,
		user.Name, user.PhotoURL, user.Bio, user.Work, user.Location, user.Description, user.ID)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Error(err), zap.Int("user_id", user.ID))
	}
	return err
}

// FindAllExcept 返回指定用户之外的全部用户，用于用户目录
func (r *userRepository) FindAllExcept(userID int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id != ? ORDER BY created_at DESC`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.ID, &user.ExternalUID, &user.Name, &user.Email, &user.PhotoURL,
			&user.Bio, &user.Work, &user.Location, &user.Description, &user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}
