package repository

import (
	"Ripple/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserDirectory 外部用户目录协作方：解析用户展示信息
type UserDirectory interface {
	GetUserById(ctx context.Context, userID uint64) (*model.User, error)
	GetUsersByIds(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error)
}

// ContentDirectory 外部内容目录协作方：解析对象的文本预览
type ContentDirectory interface {
	GetPreview(ctx context.Context, objectID uint64) (string, error)
}

type userDirectoryImpl struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) UserDirectory {
	return &userDirectoryImpl{db: db}
}

func (s *userDirectoryImpl) GetUserById(ctx context.Context, userID uint64) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	return &user, err
}

// GetUsersByIds 批量解析，缺失的用户直接跳过
func (s *userDirectoryImpl) GetUsersByIds(ctx context.Context, userIDs []uint64) (map[uint64]*model.User, error) {
	var users []*model.User
	err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error
	if err != nil {
		return nil, err
	}

	res := make(map[uint64]*model.User, len(users))
	for _, u := range users {
		res[u.ID] = u
	}
	return res, nil
}

const previewLimit = 60

type contentDirectoryImpl struct {
	db *gorm.DB
}

func NewContentDirectory(db *gorm.DB) ContentDirectory {
	return &contentDirectoryImpl{db: db}
}

// GetPreview 取帖子标题或正文片段，目标不存在时返回空串
func (s *contentDirectoryImpl) GetPreview(ctx context.Context, objectID uint64) (string, error) {
	var post model.Post
	err := s.db.WithContext(ctx).First(&post, objectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}

	preview := post.Title
	if preview == "" {
		preview = post.Content
	}
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit]) + "..."
	}
	return preview, nil
}
