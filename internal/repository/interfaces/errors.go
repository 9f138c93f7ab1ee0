package interfaces

import "errors"

// 仓库层的业务哨兵错误，由服务层映射为对应的应用错误码
var (
	ErrAlreadyConnected = errors.New("users already connected")
	ErrRequestPending   = errors.New("request already pending")
	ErrNoPendingRequest = errors.New("no pending request from this user")
	ErrPostNotFound     = errors.New("post not found")
)
