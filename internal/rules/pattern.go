package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"netmock/internal/synth"
	"netmock/pkg/model"
)

var (
	// ErrInvalidURLMatcher 不支持的 URL 匹配器类型
	ErrInvalidURLMatcher = errors.New("invalid url matcher")

	// ErrInvalidMethod 不支持的 HTTP 方法
	ErrInvalidMethod = errors.New("invalid method")

	// ErrDuplicateAlias 别名重复注册
	ErrDuplicateAlias = errors.New("duplicate alias")
)

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Pattern 一条注册规则：匹配条件在注册后不可变，仅命中状态可变
type Pattern struct {
	ID           model.PatternID
	Method       string // 空串表示任意方法（回调型规则）
	URL          URLMatcher
	MatchHeaders map[string]string // 子集匹配，键为小写
	MatchJSON    map[string]string // gjson 路径 -> 期望值
	Reply        *synth.Spec
	PassThrough  bool
	Once         bool
	Alias        string

	called   bool
	reserved int
}

// NewPattern 构造并校验规则，配置错误在注册期同步返回
func NewPattern(method string, urlMatcher any) (*Pattern, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if m != "" && !allowedMethods[m] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	um, err := CompileURLMatcher(urlMatcher)
	if err != nil {
		return nil, err
	}
	return &Pattern{
		ID:     model.PatternID(uuid.NewString()),
		Method: m,
		URL:    um,
	}, nil
}

// Called 规则是否已命中过
func (p *Pattern) Called() bool { return p.called }

// 在途预约也算占用，避免并发调用让单次规则命中两次
func (p *Pattern) exhausted() bool { return p.Once && (p.called || p.reserved > 0) }
