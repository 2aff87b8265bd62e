package mock

import (
	"encoding/json"

	"netmock/internal/rules"
	"netmock/internal/synth"
)

// ContentFunc 计算型响应回调，详见 synth.ContentFunc
type ContentFunc = synth.ContentFunc

// URL 结构化 URL 匹配器，零值字段为通配
type URL = rules.URL

// RouteOptions 单条规则的注册选项
type RouteOptions struct {
	// Status 响应状态码，0 表示默认 200
	Status int

	// Content 响应内容：string / []byte / 结构化数据（JSON 编码）/
	// error（调用时原样抛出）/ ContentFunc（计算型响应）
	Content any

	// ContentType 覆盖响应 Content-Type
	ContentType string

	// Headers 响应头，逐键覆盖默认头
	Headers map[string]string

	// MatchHeaders 请求头子集匹配条件
	MatchHeaders map[string]string

	// MatchJSON 请求体 JSON 匹配条件，gjson 路径 -> 期望值
	MatchJSON map[string]string

	// PassThrough 命中后放行至真实网络
	PassThrough bool

	// Once 单次规则，命中一次后耗尽
	Once bool

	// Alias 规则别名，可用于 Pop
	Alias string
}

// JSONBody 基于模板生成 JSON 响应体，sets 为 sjson 路径 -> 值
func JSONBody(template string, sets map[string]any) (json.RawMessage, error) {
	out, err := synth.PatchJSON([]byte(template), sets)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func firstOption(opts []RouteOptions) RouteOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return RouteOptions{}
}
