package recorder

import (
	"errors"
	"testing"

	"netmock/pkg/model"
	"netmock/pkg/traffic"
)

func newRequest(url string) *traffic.Request {
	req := traffic.NewRequest()
	req.Method = "GET"
	req.URL = url
	return req
}

func TestRecordAndStats(t *testing.T) {
	r := New(nil)
	a, b := model.PatternID("a"), model.PatternID("b")

	res := traffic.NewResponse()
	r.Record(a, newRequest("https://foo.bar/"), res)
	r.Record(a, newRequest("https://foo.bar/"), res)
	r.Record(b, newRequest("https://ham.spam/"), nil) // 错误结束的调用同样计数

	stats := r.Stats()
	if stats.Total != 3 || stats.Matched != 3 {
		t.Errorf("stats = %+v, want total 3 matched 3", stats)
	}

	// 聚合计数与各规则计数之和一致
	var sum int64
	for _, n := range stats.ByPattern {
		sum += n
	}
	if sum != stats.Matched {
		t.Errorf("sum of per-pattern counts = %d, want %d", sum, stats.Matched)
	}

	if r.CallCount(a) != 2 || r.CallCount(b) != 1 {
		t.Errorf("call counts = %d/%d, want 2/1", r.CallCount(a), r.CallCount(b))
	}

	calls := r.Calls(b)
	if len(calls) != 1 || calls[0].Request == nil || calls[0].Response != nil {
		t.Error("errored call must record request with absent response")
	}
}

func TestRecordUnmatched(t *testing.T) {
	r := New(nil)
	r.RecordUnmatched(newRequest("https://foo.bar/"), nil)

	stats := r.Stats()
	if stats.Total != 1 || stats.Matched != 0 {
		t.Errorf("stats = %+v, want total 1 matched 0", stats)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	r := New(nil)
	id := model.PatternID("a")
	req := newRequest("https://foo.bar/")
	r.Record(id, req, traffic.NewResponse())

	req.URL = "https://mutated/"
	if got := r.Calls(id)[0].Request.URL; got != "https://foo.bar/" {
		t.Errorf("recorded URL = %q, snapshot must not track later mutation", got)
	}
}

func TestResetIdempotent(t *testing.T) {
	r := New(nil)
	id := model.PatternID("a")
	r.Record(id, newRequest("https://foo.bar/"), traffic.NewResponse())

	r.Reset()
	r.Reset()

	stats := r.Stats()
	if stats.Total != 0 || stats.Matched != 0 || len(stats.ByPattern) != 0 {
		t.Errorf("stats after reset = %+v", stats)
	}
	if r.CallCount(id) != 0 {
		t.Error("call count should be zero after reset")
	}
}

type failingSink struct{ calls int }

func (s *failingSink) Save(*model.PatternID, model.Call) error {
	s.calls++
	return errors.New("disk full")
}

func TestSinkFailureDoesNotAffectRecording(t *testing.T) {
	r := New(nil)
	sink := &failingSink{}
	r.SetSink(sink)

	id := model.PatternID("a")
	r.Record(id, newRequest("https://foo.bar/"), traffic.NewResponse())

	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
	if r.CallCount(id) != 1 {
		t.Error("recording must succeed despite sink failure")
	}
}
