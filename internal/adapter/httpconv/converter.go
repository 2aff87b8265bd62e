package httpconv

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"netmock/pkg/traffic"
)

// ToNeutralRequest 将 net/http 请求转换为中立 Request 模型。
// 请求体会被完整读取后原位恢复，调用方不感知。
func ToNeutralRequest(req *http.Request) (*traffic.Request, error) {
	out := traffic.NewRequest()
	out.ID = uuid.NewString()
	out.URL = req.URL.String()
	out.Method = req.Method

	for k, vs := range req.Header {
		if len(vs) > 0 {
			out.Headers.Set(k, vs[0])
		}
	}

	if req.Body != nil && req.Body != http.NoBody {
		body, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
		out.Body = body
	}

	// 解析 Query 参数
	for key, vals := range req.URL.Query() {
		if len(vals) > 0 {
			out.Query[strings.ToLower(key)] = vals[0]
		}
	}

	// 解析 Cookie
	for _, c := range req.Cookies() {
		out.Cookies[strings.ToLower(c.Name)] = c.Value
	}

	return out, nil
}

// ToHTTPRequest 将中立 Request 还原为 net/http 请求，透传路径使用
func ToHTTPRequest(req *traffic.Request) (*http.Request, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	out, err := http.NewRequest(req.Method, req.URL, body)
	if err != nil {
		return nil, err
	}
	for k, v := range req.Headers {
		out.Header.Set(k, v)
	}
	return out, nil
}

// ToNeutralResponse 将 net/http 响应转换为中立 Response 模型
func ToNeutralResponse(res *http.Response) (*traffic.Response, error) {
	out := traffic.NewResponse()
	out.StatusCode = res.StatusCode
	for k, vs := range res.Header {
		if len(vs) > 0 {
			out.Headers.Set(k, vs[0])
		}
	}
	if res.Body != nil {
		body, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		res.Body = io.NopCloser(bytes.NewReader(body))
		out.Body = body
	}
	return out, nil
}

// ToHTTPResponse 将中立 Response 还原为 net/http 响应，形态与真实网络响应一致
func ToHTTPResponse(res *traffic.Response, req *http.Request) *http.Response {
	header := make(http.Header, len(res.Headers))
	for k, v := range res.Headers {
		header.Set(k, v)
	}
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode)),
		StatusCode:    res.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(res.Body)),
		ContentLength: int64(len(res.Body)),
		Request:       req,
	}
}
