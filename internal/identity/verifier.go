package identity

import "context"

// Verifier 将不透明的 Bearer 凭证解析为稳定的外部用户标识。
// 凭证本身由外部身份服务签发，核心代码不关心其格式；
// 解析失败一律视为未认证。
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}
