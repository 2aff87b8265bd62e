package ctxkeys

// RequestIDKey 贯穿日志与归档的请求ID上下文键
type RequestIDKey struct{}
