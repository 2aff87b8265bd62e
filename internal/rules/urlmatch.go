package rules

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// URL 结构化 URL 匹配器的字段，零值字段为通配
type URL struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

type urlKind int

const (
	urlAny urlKind = iota
	urlExact
	urlRegex
	urlParts
)

// URLMatcher 注册期编译完成的 URL 匹配器，匹配期不再做类型判断
type URLMatcher struct {
	kind  urlKind
	exact *url.URL
	re    *regexp.Regexp
	parts URL
}

// CompileURLMatcher 将注册入参编译为匹配器，不支持的类型在注册期报错
func CompileURLMatcher(v any) (URLMatcher, error) {
	switch m := v.(type) {
	case nil:
		return URLMatcher{kind: urlAny}, nil
	case string:
		if m == "" {
			return URLMatcher{kind: urlAny}, nil
		}
		u, err := url.Parse(m)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return URLMatcher{}, fmt.Errorf("%w: %q", ErrInvalidURLMatcher, m)
		}
		return URLMatcher{kind: urlExact, exact: u}, nil
	case *regexp.Regexp:
		if m == nil {
			return URLMatcher{kind: urlAny}, nil
		}
		return URLMatcher{kind: urlRegex, re: m}, nil
	case URL:
		return URLMatcher{kind: urlParts, parts: m}, nil
	default:
		return URLMatcher{}, fmt.Errorf("%w: %T", ErrInvalidURLMatcher, v)
	}
}

// Match 用原始 URL 字符串做匹配，命名捕获组通过返回值透出
func (m URLMatcher) Match(rawURL string) (map[string]string, bool) {
	switch m.kind {
	case urlAny:
		return nil, true
	case urlExact:
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, false
		}
		return nil, equalURL(m.exact, u)
	case urlRegex:
		loc := m.re.FindStringSubmatchIndex(rawURL)
		if loc == nil || loc[0] != 0 || loc[1] != len(rawURL) {
			return nil, false
		}
		groups := m.re.FindStringSubmatch(rawURL)
		captures := map[string]string{}
		for i, name := range m.re.SubexpNames() {
			if name != "" && i < len(groups) {
				captures[name] = groups[i]
			}
		}
		return captures, true
	case urlParts:
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, false
		}
		p := m.parts
		if p.Scheme != "" && !strings.EqualFold(p.Scheme, u.Scheme) {
			return nil, false
		}
		if p.Host != "" && !strings.EqualFold(p.Host, u.Hostname()) {
			return nil, false
		}
		if p.Port != 0 && p.Port != effectivePort(u) {
			return nil, false
		}
		if p.Path != "" && p.Path != normalPath(u) {
			return nil, false
		}
		return nil, true
	}
	return nil, false
}

// equalURL 规范化后的相等比较，尾斜杠有意义，仅根路径补全 "/"
func equalURL(a, b *url.URL) bool {
	return strings.EqualFold(a.Scheme, b.Scheme) &&
		strings.EqualFold(a.Hostname(), b.Hostname()) &&
		effectivePort(a) == effectivePort(b) &&
		normalPath(a) == normalPath(b) &&
		a.RawQuery == b.RawQuery
}

func normalPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func effectivePort(u *url.URL) int {
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		return n
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return 443
	case "http":
		return 80
	}
	return 0
}
