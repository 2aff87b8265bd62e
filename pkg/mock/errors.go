package mock

import (
	"errors"

	"netmock/internal/rules"
	"netmock/internal/synth"
)

// 配置类错误：注册期同步返回，绝不延迟到匹配期
var (
	ErrInvalidURLMatcher = rules.ErrInvalidURLMatcher
	ErrInvalidMethod     = rules.ErrInvalidMethod
	ErrInvalidContent    = synth.ErrInvalidContent
	ErrDuplicateAlias    = rules.ErrDuplicateAlias
)

var (
	// ErrUnmatchedRequest 开启 AssertAllMocked 时请求未命中任何规则
	ErrUnmatchedRequest = errors.New("unmatched request")

	// ErrIncompleteMock 会话结束时仍有规则从未命中
	ErrIncompleteMock = errors.New("incomplete mock")
)
