package util

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// GenerateUniqueFilename 生成唯一的文件名
func GenerateUniqueFilename(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	name := filepath.Base(originalFilename)
	name = name[:len(name)-len(ext)]

	timestamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	return name + "_" + timestamp + ext
}

// IsImageContentType 判断上传文件是否为图片
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
