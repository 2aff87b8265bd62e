package mock

import (
	"sync"

	"netmock/pkg/model"
)

// 进程级默认会话：显式初始化与销毁，而不是隐式单例
var (
	defaultMu      sync.Mutex
	defaultSession *Session
)

// Default 返回默认会话，首次访问时创建
func Default() *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSession == nil {
		defaultSession = New(Config{})
	}
	return defaultSession
}

// SetDefault 替换默认会话，返回之前的会话
func SetDefault(s *Session) *Session {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultSession
	defaultSession = s
	return prev
}

// Activate 启动默认会话的拦截
func Activate() { Default().Start() }

// Deactivate 停止默认会话的拦截并执行会话断言
func Deactivate() error { return Default().Stop() }

// DeactivateAndReset 停止拦截、执行断言并清空状态
func DeactivateAndReset() error {
	s := Default()
	err := s.Stop()
	s.Reset()
	return err
}

// With 块级作用域：新建会话并启动拦截，fn 返回后保证停止并执行断言，
// 包括 panic 在内的所有退出路径都会恢复原传输
func With(fn func(*Session) error, cfg ...Config) (err error) {
	var c Config
	if len(cfg) > 0 {
		c = cfg[0]
	}
	s := New(c)
	s.Start()
	defer func() {
		stopErr := s.Close()
		if err == nil {
			err = stopErr
		}
	}()
	return fn(s)
}

// Get 在默认会话上注册 GET 规则
func Get(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Get(urlMatcher, opts...)
}

// Post 在默认会话上注册 POST 规则
func Post(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Post(urlMatcher, opts...)
}

// Put 在默认会话上注册 PUT 规则
func Put(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Put(urlMatcher, opts...)
}

// Patch 在默认会话上注册 PATCH 规则
func Patch(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Patch(urlMatcher, opts...)
}

// Delete 在默认会话上注册 DELETE 规则
func Delete(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Delete(urlMatcher, opts...)
}

// Head 在默认会话上注册 HEAD 规则
func Head(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Head(urlMatcher, opts...)
}

// Options 在默认会话上注册 OPTIONS 规则
func Options(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Options(urlMatcher, opts...)
}

// Add 在默认会话上注册规则
func Add(method string, urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return Default().Add(method, urlMatcher, opts...)
}

// Stats 默认会话的聚合统计
func Stats() model.Stats { return Default().Stats() }

// Reset 清空默认会话状态
func Reset() { Default().Reset() }
