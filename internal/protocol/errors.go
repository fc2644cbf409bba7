package protocol

// 错误码
const (
	ErrCodeUnknown     = 1000
	ErrCodeInvalidMsg  = 1001
	ErrCodeRateLimit   = 1002 // 请求过于频繁
	ErrCodeInvalidBody = 1003 // 请求参数校验失败

	ErrCodeRoomNotFound = 2001
	ErrCodeNameTaken    = 2002 // 昵称已被占用
	ErrCodeNotInRoom    = 2003
	ErrCodeGameStarted  = 2004 // 游戏已开始
	ErrCodeNotHost      = 2005 // 仅房主可操作

	ErrCodeGameNotStart     = 3001
	ErrCodeNotEnoughPlayers = 3002
	ErrCodeNotAllReady      = 3003
	ErrCodeNotVoting        = 3004
	ErrCodeSelfVote         = 3005
	ErrCodeNotSpy           = 3006
	ErrCodeGameNotEnded     = 3007

	ErrCodeStoreFailure = 5001 // 存储读写失败
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:          "未知错误",
	ErrCodeInvalidMsg:       "无效的消息格式",
	ErrCodeRateLimit:        "请求过于频繁，请稍后再试",
	ErrCodeInvalidBody:      "请求参数校验失败",
	ErrCodeRoomNotFound:     "房间不存在",
	ErrCodeNameTaken:        "昵称已被占用",
	ErrCodeNotInRoom:        "您不在房间中",
	ErrCodeGameStarted:      "游戏已开始",
	ErrCodeNotHost:          "只有房主可以执行此操作",
	ErrCodeGameNotStart:     "游戏尚未开始",
	ErrCodeNotEnoughPlayers: "至少需要 3 名玩家",
	ErrCodeNotAllReady:      "还有玩家未准备",
	ErrCodeNotVoting:        "当前不在投票阶段",
	ErrCodeSelfVote:         "不能投票给自己",
	ErrCodeNotSpy:           "只有卧底可以猜测地点",
	ErrCodeGameNotEnded:     "本局尚未结束",
	ErrCodeStoreFailure:     "存储读写失败",
}

// MessageFor 返回错误码对应的消息，未知错误码回退到通用消息
func MessageFor(code int) string {
	if msg, ok := ErrorMessages[code]; ok {
		return msg
	}
	return ErrorMessages[ErrCodeUnknown]
}
