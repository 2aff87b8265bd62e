package mock

import (
	"netmock/internal/recorder"
	"netmock/internal/rules"
	"netmock/pkg/model"
)

// Route 注册返回的规则句柄，暴露调用记录的只读视图
type Route struct {
	pattern *rules.Pattern
	rec     *recorder.Recorder
}

// ID 规则ID
func (r *Route) ID() model.PatternID { return r.pattern.ID }

// Alias 规则别名
func (r *Route) Alias() string { return r.pattern.Alias }

// PassThrough 是否为放行规则
func (r *Route) PassThrough() bool { return r.pattern.PassThrough }

// Called 规则是否命中过
func (r *Route) Called() bool { return r.rec.CallCount(r.pattern.ID) > 0 }

// CallCount 规则命中次数
func (r *Route) CallCount() int { return r.rec.CallCount(r.pattern.ID) }

// Calls 规则的有序调用日志（完成序）
func (r *Route) Calls() []model.Call { return r.rec.Calls(r.pattern.ID) }
