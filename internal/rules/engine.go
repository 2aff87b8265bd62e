package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"netmock/pkg/traffic"
)

// Engine 有序规则注册表。匹配条件冲突时每条规则按注册序保有一次
// 首发权，全部命中过之后由最后注册者接管重复调用
type Engine struct {
	mu       sync.Mutex
	patterns []*Pattern
	aliases  map[string]*Pattern
}

func New() *Engine {
	return &Engine{aliases: make(map[string]*Pattern)}
}

// Register 追加规则，别名冲突视为配置错误
func (e *Engine) Register(p *Pattern) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.Alias != "" {
		if _, ok := e.aliases[p.Alias]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, p.Alias)
		}
		e.aliases[p.Alias] = p
	}
	e.patterns = append(e.patterns, p)
	return nil
}

// Resolve 按注册序选出首条从未命中的满足条件规则；候选规则全部命中过时
// 落在最后注册的候选上。已耗尽的单次规则跳过。选中的规则被预约占用，
// 调用完成后由 Commit 消费预约，取消则由 Release 归还
func (e *Engine) Resolve(req *traffic.Request) (*Pattern, map[string]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var match *Pattern
	var matchCaptures map[string]string
	for _, p := range e.patterns {
		if p.exhausted() {
			continue
		}
		if p.Method != "" && !strings.EqualFold(p.Method, req.Method) {
			continue
		}
		captures, ok := p.URL.Match(req.URL)
		if !ok {
			continue
		}
		if !matchHeaders(req, p.MatchHeaders) {
			continue
		}
		if !matchJSON(req, p.MatchJSON) {
			continue
		}
		match, matchCaptures = p, captures
		if !p.called && p.reserved == 0 {
			break
		}
	}
	if match == nil {
		return nil, nil, false
	}
	match.reserved++
	return match, matchCaptures, true
}

// Commit 调用完成后登记命中并消费解析时的预约
func (e *Engine) Commit(p *Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.reserved > 0 {
		p.reserved--
	}
	p.called = true
}

// Release 取消的调用归还预约，规则状态不留任何痕迹
func (e *Engine) Release(p *Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p.reserved > 0 {
		p.reserved--
	}
}

// Pop 按别名移除并返回规则
func (e *Engine) Pop(alias string) (*Pattern, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.aliases[alias]
	if !ok {
		return nil, false
	}
	delete(e.aliases, alias)
	for i := range e.patterns {
		if e.patterns[i] == p {
			e.patterns = append(e.patterns[:i], e.patterns[i+1:]...)
			break
		}
	}
	return p, true
}

// Reset 清空注册表
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.patterns = nil
	e.aliases = make(map[string]*Pattern)
}

// Patterns 返回当前规则快照（注册序）
func (e *Engine) Patterns() []*Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Pattern, len(e.patterns))
	copy(out, e.patterns)
	return out
}

// Uncalled 返回从未命中的规则，供会话断言使用
func (e *Engine) Uncalled() []*Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*Pattern
	for _, p := range e.patterns {
		if !p.called {
			out = append(out, p)
		}
	}
	return out
}

func matchHeaders(req *traffic.Request, want map[string]string) bool {
	for k, v := range want {
		if req.Headers.Get(k) != v {
			return false
		}
	}
	return true
}

func matchJSON(req *traffic.Request, want map[string]string) bool {
	if len(want) == 0 {
		return true
	}
	if len(req.Body) == 0 {
		return false
	}
	for path, v := range want {
		if gjson.GetBytes(req.Body, path).String() != v {
			return false
		}
	}
	return true
}
