package mock

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"netmock/internal/config"
	"netmock/internal/logger"
	"netmock/internal/recorder"
	"netmock/internal/rules"
	"netmock/internal/storage"
	"netmock/internal/synth"
	"netmock/pkg/model"
)

// Config 会话配置选项
type Config struct {
	// AssertAllCalled 会话结束时要求所有规则都命中过，默认开启
	AssertAllCalled *bool

	// AssertAllMocked 未命中即硬失败而非隐式放行，默认开启
	AssertAllMocked *bool

	// RealTransport 放行路径使用的真实传输，默认取创建会话时的
	// http.DefaultTransport
	RealTransport http.RoundTripper

	// ArchiveDSN 调用归档 sqlite DSN，为空不归档
	ArchiveDSN string

	// ArchivePrefix 归档表前缀
	ArchivePrefix string

	// 日志选项
	LogLevel   string
	LogWriters []string
	LogFile    string

	// EventBuffer 事件通道容量，默认 64
	EventBuffer int
}

// Bool 构造 *bool 配置值
func Bool(v bool) *bool { return &v }

// Session 会话控制器：拦截生效的作用域，承载注册表与调用记录的生命周期
type Session struct {
	id        model.SessionID
	engine    *rules.Engine
	rec       *recorder.Recorder
	transport *Transport
	log       logger.Logger
	archive   *storage.Archive
	events    chan model.Event

	assertAllCalled bool
	assertAllMocked bool
	real            http.RoundTripper

	mu          sync.Mutex
	depth       int
	active      bool
	prevDefault http.RoundTripper
}

// New 创建会话
func New(cfg Config) *Session {
	var l logger.Logger
	if len(cfg.LogWriters) > 0 || cfg.LogLevel != "" {
		l = logger.New(logger.Options{Level: cfg.LogLevel, Writers: cfg.LogWriters, File: cfg.LogFile})
	} else {
		l = logger.NewNop()
	}

	real := cfg.RealTransport
	if real == nil {
		real = http.DefaultTransport
	}

	buf := cfg.EventBuffer
	if buf <= 0 {
		buf = 64
	}

	s := &Session{
		id:              model.SessionID(uuid.NewString()),
		engine:          rules.New(),
		log:             l,
		events:          make(chan model.Event, buf),
		assertAllCalled: boolOr(cfg.AssertAllCalled, true),
		assertAllMocked: boolOr(cfg.AssertAllMocked, true),
		real:            real,
	}
	s.rec = recorder.New(l)
	s.transport = &Transport{session: s}

	if cfg.ArchiveDSN != "" {
		prefix := cfg.ArchivePrefix
		if prefix == "" {
			prefix = "netmock_"
		}
		archive, err := storage.Open(cfg.ArchiveDSN, prefix, l)
		if err != nil {
			l.Warn("归档库打开失败，本会话不归档", "dsn", cfg.ArchiveDSN, "error", err)
		} else {
			s.archive = archive
			s.rec.SetSink(archive)
		}
	}
	return s
}

// NewFromConfigFile 从 YAML 配置文件创建会话
func NewFromConfigFile(path string) (*Session, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return New(Config{
		ArchiveDSN:    cfg.Sqlite.Dsn,
		ArchivePrefix: cfg.Sqlite.Prefix,
		LogLevel:      cfg.Log.Level,
		LogWriters:    cfg.Log.Writer,
		LogFile:       cfg.Log.File,
	}), nil
}

// ID 会话ID
func (s *Session) ID() model.SessionID { return s.id }

// Transport 返回拦截器，可直接装入 http.Client
func (s *Session) Transport() *Transport { return s.transport }

// Events 拦截事件订阅通道
func (s *Session) Events() <-chan model.Event { return s.events }

// Stats 聚合调用统计
func (s *Session) Stats() model.Stats { return s.rec.Stats() }

// Start 安装拦截器替换 http.DefaultTransport，可重入（嵌套作用域计数）
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
	if s.active {
		return
	}
	s.active = true
	s.prevDefault = http.DefaultTransport
	http.DefaultTransport = s.transport
	s.log.Debug("拦截开始", "session", string(s.id))
}

// Stop 卸载拦截器恢复原传输；AssertAllCalled 开启时校验所有规则均已命中
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.depth > 0 {
		s.depth--
	}
	if s.depth > 0 {
		s.mu.Unlock()
		return nil
	}
	if s.active {
		s.active = false
		http.DefaultTransport = s.prevDefault
		s.log.Debug("拦截结束", "session", string(s.id))
	}
	s.mu.Unlock()

	if s.assertAllCalled {
		if uncalled := s.engine.Uncalled(); len(uncalled) > 0 {
			names := make([]string, len(uncalled))
			for i, p := range uncalled {
				names[i] = fmt.Sprintf("%s %s", p.Method, describe(p))
			}
			return fmt.Errorf("%w: not called: %s", ErrIncompleteMock, strings.Join(names, ", "))
		}
	}
	return nil
}

// Reset 清空注册表与调用记录但不卸载拦截器，幂等
func (s *Session) Reset() {
	s.engine.Reset()
	s.rec.Reset()
}

// Close 结束会话并关闭归档库
func (s *Session) Close() error {
	err := s.Stop()
	if s.archive != nil {
		err = errors.Join(err, s.archive.Close())
	}
	return err
}

// Active 拦截是否生效中
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Add 通用注册入口，方法大小写不敏感
func (s *Session) Add(method string, urlMatcher any, opts ...RouteOptions) (*Route, error) {
	o := firstOption(opts)
	p, err := rules.NewPattern(method, urlMatcher)
	if err != nil {
		return nil, err
	}
	spec, err := synth.NewSpec(o.Status, o.Content, o.ContentType, o.Headers)
	if err != nil {
		return nil, err
	}
	p.Reply = spec
	p.PassThrough = o.PassThrough
	p.Once = o.Once
	p.Alias = o.Alias
	if len(o.MatchHeaders) > 0 {
		p.MatchHeaders = make(map[string]string, len(o.MatchHeaders))
		for k, v := range o.MatchHeaders {
			p.MatchHeaders[strings.ToLower(k)] = v
		}
	}
	p.MatchJSON = o.MatchJSON
	if err := s.engine.Register(p); err != nil {
		return nil, err
	}
	s.log.Debug("注册规则", "pattern", string(p.ID), "method", p.Method)
	return &Route{pattern: p, rec: s.rec}, nil
}

// AddCallback 注册匹配任意请求的计算型规则
func (s *Session) AddCallback(fn ContentFunc, opts ...RouteOptions) (*Route, error) {
	o := firstOption(opts)
	o.Content = fn
	return s.Add("", nil, o)
}

// Get 注册 GET 规则
func (s *Session) Get(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodGet, urlMatcher, opts...)
}

// Post 注册 POST 规则
func (s *Session) Post(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodPost, urlMatcher, opts...)
}

// Put 注册 PUT 规则
func (s *Session) Put(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodPut, urlMatcher, opts...)
}

// Patch 注册 PATCH 规则
func (s *Session) Patch(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodPatch, urlMatcher, opts...)
}

// Delete 注册 DELETE 规则
func (s *Session) Delete(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodDelete, urlMatcher, opts...)
}

// Head 注册 HEAD 规则
func (s *Session) Head(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodHead, urlMatcher, opts...)
}

// Options 注册 OPTIONS 规则
func (s *Session) Options(urlMatcher any, opts ...RouteOptions) (*Route, error) {
	return s.Add(http.MethodOptions, urlMatcher, opts...)
}

// Pop 按别名移除并返回规则句柄
func (s *Session) Pop(alias string) (*Route, bool) {
	p, ok := s.engine.Pop(alias)
	if !ok {
		return nil, false
	}
	return &Route{pattern: p, rec: s.rec}, true
}

// realTransport 放行路径的真实传输
func (s *Session) realTransport() http.RoundTripper { return s.real }

// emit 非阻塞发送事件，通道满则丢弃
func (s *Session) emit(ev model.Event) {
	ev.Session = s.id
	select {
	case s.events <- ev:
	default:
	}
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func describe(p *rules.Pattern) string {
	if p.Alias != "" {
		return p.Alias
	}
	return string(p.ID)
}
