package traffic

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Header 封装通用的头部操作
type Header map[string]string

// Get 获取指定 Header 的值（大小写不敏感）
func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[strings.ToLower(key)]
}

// Set 设置指定 Header 的值（自动转换为小写）
func (h Header) Set(key, value string) {
	h[strings.ToLower(key)] = value
}

// Del 删除指定 Header
func (h Header) Del(key string) {
	delete(h, strings.ToLower(key))
}

// Has 判断指定 Header 是否存在
func (h Header) Has(key string) bool {
	if h == nil {
		return false
	}
	_, ok := h[strings.ToLower(key)]
	return ok
}

// Clone 复制 Header
func (h Header) Clone() Header {
	if h == nil {
		return nil
	}
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

// Request 中立的请求模型
type Request struct {
	ID      string            // 事务唯一ID
	URL     string            // 完整URL
	Method  string            // HTTP方法
	Headers Header            // 请求头
	Body    []byte            // 请求体原始数据
	Query   map[string]string // 预解析的查询参数
	Cookies map[string]string // 预解析的Cookie
}

// Response 中立的响应模型
type Response struct {
	StatusCode int    // 状态码
	Headers    Header // 响应头
	Body       []byte // 响应体数据
}

// NewRequest 创建初始化请求对象
func NewRequest() *Request {
	return &Request{
		Headers: make(Header),
		Query:   make(map[string]string),
		Cookies: make(map[string]string),
	}
}

// NewResponse 创建初始化响应对象
func NewResponse() *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Headers:    make(Header),
	}
}

// Clone 复制请求快照，调用日志只持有快照
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := &Request{
		ID:      r.ID,
		URL:     r.URL,
		Method:  r.Method,
		Headers: r.Headers.Clone(),
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	if r.Query != nil {
		out.Query = make(map[string]string, len(r.Query))
		for k, v := range r.Query {
			out.Query[k] = v
		}
	}
	if r.Cookies != nil {
		out.Cookies = make(map[string]string, len(r.Cookies))
		for k, v := range r.Cookies {
			out.Cookies[k] = v
		}
	}
	return out
}

// Clone 复制响应快照
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := &Response{
		StatusCode: r.StatusCode,
		Headers:    r.Headers.Clone(),
	}
	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}
	return out
}

// Text 按需将响应体按 UTF-8 解码为文本，不解析响应声明的字符集；
// 其他编码由调用方基于 Body 自行解码，引擎本身不做隐式转码
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON 按需将响应体解码为结构化数据
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}
