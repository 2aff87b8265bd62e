package model

import "netmock/pkg/traffic"

type SessionID string
type PatternID string

// Stats 引擎调用统计
type Stats struct {
	Total     int64               `json:"total"`
	Matched   int64               `json:"matched"`
	ByPattern map[PatternID]int64 `json:"byPattern"`
}

// Call 一次被拦截调用的快照，Response 为 nil 表示该次调用以错误结束
type Call struct {
	Request  *traffic.Request  `json:"request"`
	Response *traffic.Response `json:"response"`
}

// Event 拦截事件
type Event struct {
	Type    string     `json:"type"`
	Session SessionID  `json:"session"`
	Pattern *PatternID `json:"pattern"`
	URL     string     `json:"url"`
	Method  string     `json:"method"`
	Error   error      `json:"error"`
}

// 事件类型
const (
	EventMatched     = "matched"
	EventUnmatched   = "unmatched"
	EventPassThrough = "passthrough"
	EventError       = "error"
)
