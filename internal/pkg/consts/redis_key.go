package consts

const (
	// NotifyUserKey 通知推送的用户频道前缀 (跨进程中继总线)
	NotifyUserKey = "notify:user:"
)

const (
	// NotificationPruneLock 通知保留期清理任务的分布式锁
	NotificationPruneLock = "lock:notification:prune"
)
