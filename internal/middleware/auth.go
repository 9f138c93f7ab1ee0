package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/Maddy398/linkback/internal/errors"
	"github.com/Maddy398/linkback/internal/identity"
	"github.com/Maddy398/linkback/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ExternalUIDKey 认证中间件写入 gin 上下文的外部用户标识键
const ExternalUIDKey = "external_uid"

// AuthMiddleware 解析 Bearer 凭证并把外部用户标识写入上下文。
// 凭证解析完全委托给注入的 Verifier
func AuthMiddleware(verifier identity.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Debug("进入认证中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "无效的认证格式"))
			c.Abort()
			return
		}

		uid, err := verifier.Verify(ctx, parts[1])
		if err != nil {
			errors.HandleError(c, errors.Wrap(errors.ErrUnauthorized, "无效或过期的令牌", err))
			c.Abort()
			return
		}

		c.Set(ExternalUIDKey, uid)

		select {
		case <-ctx.Done():
			errors.HandleError(c, errors.New(errors.ErrTimeout, "请求超时"))
			c.Abort()
			return
		default:
			c.Next()
		}
	}
}
