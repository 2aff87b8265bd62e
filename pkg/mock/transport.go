package mock

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"netmock/internal/adapter/httpconv"
	"netmock/internal/synth"
	"netmock/pkg/model"
	"netmock/pkg/traffic"
)

// Transport 传输拦截器：替换真实网络传输的边界组件。
// 同时提供三个调用面——http.RoundTripper（可直接装入 http.Client）、
// 阻塞式 Send、可取消的 SendContext——全部建立在同一个同步核心之上，
// 同样的请求与注册状态在任何调用面上得到同样的结果。
type Transport struct {
	session *Session
}

var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip 实现 http.RoundTripper，阻塞调用面。
// 放行到真实网络的响应原样返回给调用方，多值头、协议版本等形态不变，
// 中立快照仅用于调用登记
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	nreq, err := httpconv.ToNeutralRequest(req)
	if err != nil {
		return nil, err
	}
	var forwarded *http.Response
	res, err := t.intercept(req.Context(), nreq, func(ctx context.Context) (*traffic.Response, error) {
		hres, err := t.session.realTransport().RoundTrip(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		nres, err := httpconv.ToNeutralResponse(hres)
		if err != nil {
			return nil, err
		}
		forwarded = hres
		return nres, nil
	})
	if err != nil {
		return nil, err
	}
	if forwarded != nil {
		return forwarded, nil
	}
	return httpconv.ToHTTPResponse(res, req), nil
}

// Send 阻塞式中立模型调用面
func (t *Transport) Send(req *traffic.Request) (*traffic.Response, error) {
	return t.SendContext(context.Background(), req)
}

// SendContext 可取消调用面；ctx 在合成完成前取消时不产生任何调用记录
func (t *Transport) SendContext(ctx context.Context, req *traffic.Request) (*traffic.Response, error) {
	return t.intercept(ctx, req, func(ctx context.Context) (*traffic.Response, error) {
		hreq, err := httpconv.ToHTTPRequest(req)
		if err != nil {
			return nil, err
		}
		hres, err := t.session.realTransport().RoundTrip(hreq.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		return httpconv.ToNeutralResponse(hres)
	})
}

// intercept 同步核心：解析 -> 分支 -> 合成 -> 登记。
// 挂起只发生在计算型回调内部，核心逻辑本身不引入任何让步点。
func (t *Transport) intercept(ctx context.Context, req *traffic.Request, forward func(context.Context) (*traffic.Response, error)) (*traffic.Response, error) {
	s := t.session
	s.log.Debug("拦截请求", "method", req.Method, "url", req.URL)

	p, captures, ok := s.engine.Resolve(req)

	// 未命中
	if !ok {
		if s.assertAllMocked {
			err := fmt.Errorf("%w: %s %s", ErrUnmatchedRequest, req.Method, req.URL)
			s.emit(model.Event{Type: model.EventUnmatched, URL: req.URL, Method: req.Method, Error: err})
			return nil, err
		}
		res, err := forward(ctx)
		s.rec.RecordUnmatched(req, res)
		s.emit(model.Event{Type: model.EventPassThrough, URL: req.URL, Method: req.Method, Error: err})
		return res, err
	}

	// 命中放行规则
	if p.PassThrough {
		res, err := forward(ctx)
		s.engine.Commit(p)
		s.rec.Record(p.ID, req, res)
		s.emit(model.Event{Type: model.EventPassThrough, Pattern: &p.ID, URL: req.URL, Method: req.Method, Error: err})
		return res, err
	}

	// 合成响应。回调可在 ctx 上挂起，期间不持有任何引擎锁。
	res, err := synth.Synthesize(ctx, p.Reply, req, captures)
	if cancelled(ctx, err) {
		s.engine.Release(p)
		return nil, err
	}

	s.engine.Commit(p)
	s.rec.Record(p.ID, req, res)
	if err != nil {
		s.emit(model.Event{Type: model.EventError, Pattern: &p.ID, URL: req.URL, Method: req.Method, Error: err})
		return nil, err
	}
	s.emit(model.Event{Type: model.EventMatched, Pattern: &p.ID, URL: req.URL, Method: req.Method})
	return res, nil
}

// cancelled 判断合成失败是否由调用方取消引起，取消不留任何记录
func cancelled(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
