package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid    = errors.New("参数错误")
	ErrChannelSelf     = errors.New("不能与自己创建频道")
	ErrChannelExists   = errors.New("频道已存在")
	ErrChannelNotFound = errors.New("频道不存在")
	ErrMessageNotFound = errors.New("消息不存在")
	ErrNotParticipant  = errors.New("不是频道成员")
	UnauthorizedError  = errors.New("权限不足")
	UnExpectedError    = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:    BadRequest,
	ErrChannelSelf:     BadRequest,
	ErrChannelExists:   Conflict,
	ErrChannelNotFound: NotFound,
	ErrMessageNotFound: NotFound,
	ErrNotParticipant:  Forbidden,
	UnauthorizedError:  Unauthorized,
	UnExpectedError:    InternalServerError,
}
