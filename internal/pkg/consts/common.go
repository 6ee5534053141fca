package consts

// 通知聚合的动作类型
const (
	ActionTypeLike        int8 = 1 // 帖子点赞
	ActionTypeCollect     int8 = 2 // 帖子收藏
	ActionTypeComment     int8 = 3 // 帖子评论
	ActionTypeCommentLike int8 = 4 // 评论点赞
	ActionTypeFollow      int8 = 5 // 被关注
)

// ChatChannelRoomKey 房间标识前缀，房间名形如 chatchannel:<id>
const ChatChannelRoomKey = "chatchannel:"

// EndOfListHeader 分页结束标记响应头（带外信号，不嵌入响应体）
const EndOfListHeader = "X-End-Of-List"
