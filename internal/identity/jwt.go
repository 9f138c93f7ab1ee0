package identity

import (
	"context"
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JWTVerifier 基于 HS256 JWT 的凭证解析实现，
// 从 uid 声明中取出外部用户标识
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", errors.New("令牌为空")
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("意外的签名方法")
		}
		return v.secret, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("无效的令牌")
	}

	uid, ok := claims["uid"].(string)
	if !ok || uid == "" {
		return "", errors.New("令牌缺少 uid 声明")
	}
	return uid, nil
}

// GenerateToken 为指定的外部用户标识签发令牌，主要用于测试和本地调试
func (v *JWTVerifier) GenerateToken(uid string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": uid,
		"exp": time.Now().Add(time.Hour * 24).Unix(),
	})
	return token.SignedString(v.secret)
}
