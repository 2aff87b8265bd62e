package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/sjson"

	"netmock/pkg/traffic"
)

// ErrInvalidContent 不支持的响应内容类型
var ErrInvalidContent = errors.New("invalid content")

// ContentFunc 计算型响应回调，入参为原始请求与 URL 命名捕获组。
// 返回值可以是响应体（string/[]byte/结构化数据）、完整的 *traffic.Response，
// 或一个错误（原样抛给调用方，模拟网络层失败）。
type ContentFunc func(ctx context.Context, req *traffic.Request, captures map[string]string) (any, error)

type contentKind int

const (
	contentNone contentKind = iota
	contentText
	contentBytes
	contentJSON
	contentError
	contentFunc
)

// Spec 响应生成规格，注册期编译完成
type Spec struct {
	Status      int
	Headers     map[string]string
	ContentType string

	kind contentKind
	text string
	raw  []byte
	err  error
	fn   ContentFunc
}

// NewSpec 将注册入参编译为响应规格，内容类型的动态分发在注册期完成一次
func NewSpec(status int, content any, contentType string, headers map[string]string) (*Spec, error) {
	s := &Spec{Status: status, ContentType: contentType, Headers: headers}
	switch c := content.(type) {
	case nil:
		s.kind = contentNone
	case string:
		s.kind = contentText
		s.text = c
	case []byte:
		s.kind = contentBytes
		s.raw = c
	case error:
		s.kind = contentError
		s.err = c
	case ContentFunc:
		s.kind = contentFunc
		s.fn = c
	case func(context.Context, *traffic.Request, map[string]string) (any, error):
		s.kind = contentFunc
		s.fn = c
	default:
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, fmt.Errorf("%w: %T", ErrInvalidContent, content)
		}
		s.kind = contentJSON
		s.raw = raw
	}
	return s, nil
}

// IsError 内容是否为预置错误
func (s *Spec) IsError() bool { return s.kind == contentError }

// Synthesize 按规格生成响应。预置错误与回调返回的错误均原样向上传播。
func Synthesize(ctx context.Context, spec *Spec, req *traffic.Request, captures map[string]string) (*traffic.Response, error) {
	var body []byte
	defaultType := "text/plain"

	switch spec.kind {
	case contentNone:
	case contentText:
		body = []byte(spec.text)
	case contentBytes:
		body = spec.raw
	case contentJSON:
		body = spec.raw
		defaultType = "application/json"
	case contentError:
		return nil, spec.err
	case contentFunc:
		v, err := spec.fn(ctx, req, captures)
		if err != nil {
			return nil, err
		}
		switch out := v.(type) {
		case *traffic.Response:
			return mergeResponse(spec, out), nil
		case string:
			body = []byte(out)
		case []byte:
			body = out
		case nil:
		default:
			raw, err := json.Marshal(out)
			if err != nil {
				return nil, fmt.Errorf("%w: callback returned %T", ErrInvalidContent, v)
			}
			body = raw
			defaultType = "application/json"
		}
	}

	res := traffic.NewResponse()
	res.StatusCode = statusOrDefault(spec.Status)
	res.Body = body
	applyHeaders(res, spec, defaultType)
	return res, nil
}

// mergeResponse 回调返回完整响应时的合并：默认头与规格头打底，回调头覆盖
func mergeResponse(spec *Spec, out *traffic.Response) *traffic.Response {
	res := traffic.NewResponse()
	if out.StatusCode != 0 {
		res.StatusCode = out.StatusCode
	} else {
		res.StatusCode = statusOrDefault(spec.Status)
	}
	res.Body = out.Body
	applyHeaders(res, spec, "text/plain")
	for k, v := range out.Headers {
		res.Headers.Set(k, v)
	}
	return res
}

// applyHeaders 头合并规则：默认 Content-Type 打底，显式 headers 逐键覆盖，
// 显式 content_type 最后覆盖
func applyHeaders(res *traffic.Response, spec *Spec, defaultType string) {
	res.Headers.Set("Content-Type", defaultType)
	for k, v := range spec.Headers {
		res.Headers.Set(k, v)
	}
	if spec.ContentType != "" {
		res.Headers.Set("Content-Type", spec.ContentType)
	}
}

func statusOrDefault(status int) int {
	if status == 0 {
		return http.StatusOK
	}
	return status
}

// PatchJSON 基于模板生成 JSON 响应体，常用于把捕获值写入固定模板
func PatchJSON(base []byte, sets map[string]any) ([]byte, error) {
	out := base
	if len(out) == 0 {
		out = []byte(`{}`)
	}
	var err error
	for path, v := range sets {
		out, err = sjson.SetBytes(out, path, v)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
