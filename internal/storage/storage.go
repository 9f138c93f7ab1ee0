package storage

import "mime/multipart"

// Storage 统一的附件存储接口。UploadFile 返回可取回的引用
// （本地后端为相对路径，对象存储后端为完整URL）；
// DeleteFile 按引用删除，调用方按尽力而为处理失败
type Storage interface {
	UploadFile(file *multipart.FileHeader, path string) (string, error)
	DeleteFile(path string) error
}
