// Package mock 提供出站 HTTP 请求的拦截与模拟响应能力。
//
// 测试代码注册规则（方法 + URL 匹配器 + 响应规格）后，应用代码发出的
// 请求会被传输拦截器接管：命中规则时返回合成响应或放行真实网络，
// 未命中时按会话策略硬失败或放行。所有调用按完成序记入调用日志。
//
// 基本用法：
//
//	err := mock.With(func(s *mock.Session) error {
//		r, err := s.Get("https://foo.bar/", mock.RouteOptions{Status: 404})
//		if err != nil {
//			return err
//		}
//		resp, err := http.Get("https://foo.bar/")
//		// resp.StatusCode == 404, r.CallCount() == 1
//		_ = resp
//		return err
//	})
//
// URL 匹配器支持四种形式：nil（任意）、完整 URL 字符串（规范化相等）、
// *regexp.Regexp（全串匹配，命名捕获组传给计算型回调）、mock.URL 结构
// （零值字段为通配）。
package mock
