package model

// User 用户展示信息只读视图，主表由账号系统维护
type User struct {
	ID        uint64 `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"type:varchar(64)" json:"username"`
	Nickname  string `gorm:"type:varchar(64)" json:"nickname"`
	AvatarURL string `gorm:"type:varchar(255)" json:"avatarUrl"`
}

func (User) TableName() string { return "users" }

// Post 帖子内容只读视图，用于通知的对象预览
type Post struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"type:varchar(255)" json:"title"`
	Content string `gorm:"type:text" json:"content"`
}

func (Post) TableName() string { return "posts" }
