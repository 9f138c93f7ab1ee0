package mysql

import (
	"testing"

	"github.com/Maddy398/linkback/internal/repository/interfaces"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func existsRow(exists bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(exists)
}

func pairLockRows(a, b int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(a).AddRow(b)
}

// TestCreateRequestLocksPair 测试发送请求的事务先锁定双方用户行，
// 再做事务内检查：并发的交叉请求在行锁上串行化，
// 后到的事务在检查时能看到先提交的请求
func TestCreateRequestLocksPair(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(2, 1).
		WillReturnRows(existsRow(false))
	mock.ExpectExec(`INSERT INTO connection_requests`).
		WithArgs(1, 2).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.CreateRequest(1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreateRequestReversePending 测试反方向已有待处理请求时拒绝插入
func TestCreateRequestReversePending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(2, 1).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	err = repo.CreateRequest(1, 2)
	assert.Equal(t, interfaces.ErrRequestPending, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCreateRequestDuplicateKey 测试唯一键冲突映射为重复请求哨兵，
// 同方向的并发重复请求不会以数据库错误冒泡
func TestCreateRequestDuplicateKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connection_requests`).
		WithArgs(2, 1).
		WillReturnRows(existsRow(false))
	mock.ExpectExec(`INSERT INTO connection_requests`).
		WithArgs(1, 2).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err = repo.CreateRequest(1, 2)
	assert.Equal(t, interfaces.ErrRequestPending, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAcceptRequestMirroredRows 测试接受请求在同一事务内删除请求并
// 插入双向镜像连接记录，保证对称不变量
func TestAcceptRequestMirroredRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectExec(`DELETE FROM connection_requests WHERE sender_id = \? AND receiver_id = \?`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	err = repo.AcceptRequest(1, 2)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAcceptRequestNoPending 测试没有待处理请求时整个事务回滚
func TestAcceptRequestNoPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectExec(`DELETE FROM connection_requests WHERE sender_id = \? AND receiver_id = \?`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.AcceptRequest(1, 2)
	assert.Equal(t, interfaces.ErrNoPendingRequest, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestAcceptRequestAlreadyConnected 测试连接记录的唯一键冲突
// 映射为已连接哨兵而不是数据库错误
func TestAcceptRequestAlreadyConnected(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectExec(`DELETE FROM connection_requests WHERE sender_id = \? AND receiver_id = \?`).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	mock.ExpectRollback()

	err = repo.AcceptRequest(1, 2)
	assert.Equal(t, interfaces.ErrAlreadyConnected, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestToggleConnectionConnectClearsPending 测试直连分支先清除双方向的
// 待处理请求再插入镜像记录，不会留下既连接又有待处理请求的状态
func TestToggleConnectionConnectClearsPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectExec(`DELETE FROM connection_requests`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	connected, err := repo.ToggleConnection(1, 2)
	assert.NoError(t, err)
	assert.True(t, connected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestToggleConnectionDisconnect 测试断开分支删除双方的镜像记录
func TestToggleConnectionDisconnect(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(true))
	mock.ExpectExec(`DELETE FROM connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	connected, err := repo.ToggleConnection(1, 2)
	assert.NoError(t, err)
	assert.False(t, connected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestToggleConnectionTwice 测试连续两次切换回到初始状态
func TestToggleConnectionTwice(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewConnectionRepository(db)

	// 第一次：未连接 → 建立连接
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(false))
	mock.ExpectExec(`DELETE FROM connection_requests`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(1, 2))
	mock.ExpectCommit()

	// 第二次：已连接 → 断开
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id IN .+ FOR UPDATE`).
		WithArgs(1, 2).
		WillReturnRows(pairLockRows(1, 2))
	mock.ExpectQuery(`SELECT EXISTS.+FROM connections`).
		WithArgs(1, 2).
		WillReturnRows(existsRow(true))
	mock.ExpectExec(`DELETE FROM connections`).
		WithArgs(1, 2, 2, 1).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	first, err := repo.ToggleConnection(1, 2)
	assert.NoError(t, err)
	assert.True(t, first)

	second, err := repo.ToggleConnection(1, 2)
	assert.NoError(t, err)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}
