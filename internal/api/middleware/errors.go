package middleware

import "errors"

var (
	ErrTokenMalformed = errors.New("Token 缺失或格式错误")
	ErrTokenRevoked   = errors.New("Token 无效或已过期")
	ErrTokenInvalid   = errors.New("Token 无效或已过期")
)
