package recorder

import (
	"sync"

	"netmock/internal/logger"
	"netmock/pkg/model"
	"netmock/pkg/traffic"
)

// Sink 调用记录的旁路出口（如 sqlite 归档），失败只记日志不影响调用
type Sink interface {
	Save(pattern *model.PatternID, call model.Call) error
}

// Recorder 调用记录器：按完成序追加调用日志并维护聚合计数
type Recorder struct {
	mu        sync.Mutex
	total     int64
	matched   int64
	byPattern map[model.PatternID]int64
	logs      map[model.PatternID][]model.Call
	sink      Sink
	log       logger.Logger
}

// New 创建记录器
func New(l logger.Logger) *Recorder {
	if l == nil {
		l = logger.NewNop()
	}
	return &Recorder{
		byPattern: make(map[model.PatternID]int64),
		logs:      make(map[model.PatternID][]model.Call),
		log:       l,
	}
}

// SetSink 设置归档出口
func (r *Recorder) SetSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink = s
}

// Record 登记一次已命中的调用，res 为 nil 表示该次调用以错误结束。
// 同一规则并发命中时日志按完成序追加。
func (r *Recorder) Record(id model.PatternID, req *traffic.Request, res *traffic.Response) {
	call := model.Call{Request: req.Clone(), Response: res.Clone()}

	r.mu.Lock()
	r.total++
	r.matched++
	r.byPattern[id]++
	r.logs[id] = append(r.logs[id], call)
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		if err := sink.Save(&id, call); err != nil {
			r.log.Warn("调用归档失败", "pattern", string(id), "error", err)
		}
	}
}

// RecordUnmatched 登记一次未命中但放行的调用，仅计入总量
func (r *Recorder) RecordUnmatched(req *traffic.Request, res *traffic.Response) {
	call := model.Call{Request: req.Clone(), Response: res.Clone()}

	r.mu.Lock()
	r.total++
	sink := r.sink
	r.mu.Unlock()

	if sink != nil {
		if err := sink.Save(nil, call); err != nil {
			r.log.Warn("调用归档失败", "error", err)
		}
	}
}

// Stats 返回聚合统计快照
func (r *Recorder) Stats() model.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	by := make(map[model.PatternID]int64, len(r.byPattern))
	for k, v := range r.byPattern {
		by[k] = v
	}
	return model.Stats{Total: r.total, Matched: r.matched, ByPattern: by}
}

// Calls 返回指定规则的有序调用日志
func (r *Recorder) Calls(id model.PatternID) []model.Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Call, len(r.logs[id]))
	copy(out, r.logs[id])
	return out
}

// CallCount 指定规则的调用次数
func (r *Recorder) CallCount(id model.PatternID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.logs[id])
}

// Reset 清空全部记录
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = 0
	r.matched = 0
	r.byPattern = make(map[model.PatternID]int64)
	r.logs = make(map[model.PatternID][]model.Call)
}
