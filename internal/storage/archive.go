package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"netmock/internal/ctxkeys"
	"netmock/internal/logger"
	"netmock/pkg/model"
)

// CallRecord 调用归档记录表
type CallRecord struct {
	ID              uint   `gorm:"primaryKey"`
	RequestID       string `gorm:"index"`
	PatternID       string `gorm:"index"` // 未命中调用为空
	Method          string
	URL             string
	RequestHeaders  string
	RequestBody     []byte
	HasResponse     bool
	StatusCode      int
	ResponseHeaders string
	ResponseBody    []byte
	CreatedAt       time.Time
}

// Archive 调用记录的 sqlite 归档，供测试运行结束后离线排查
type Archive struct {
	db  *gorm.DB
	log logger.Logger
}

// Open 打开（必要时创建）归档库并完成建表
func Open(dsn, prefix string, l logger.Logger) (*Archive, error) {
	if l == nil {
		l = logger.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(l),
		NamingStrategy: schema.NamingStrategy{TablePrefix: prefix},
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&CallRecord{}); err != nil {
		return nil, err
	}
	return &Archive{db: db, log: l}, nil
}

// Save 落一条调用记录，实现 recorder.Sink。
// 请求ID写入上下文，SQL日志可据此关联到具体调用
func (a *Archive) Save(pattern *model.PatternID, call model.Call) error {
	ctx := context.Background()
	rec := CallRecord{}
	if pattern != nil {
		rec.PatternID = string(*pattern)
	}
	if call.Request != nil {
		ctx = context.WithValue(ctx, ctxkeys.RequestIDKey{}, call.Request.ID)
		rec.RequestID = call.Request.ID
		rec.Method = call.Request.Method
		rec.URL = call.Request.URL
		rec.RequestBody = call.Request.Body
		rec.RequestHeaders = marshalHeaders(call.Request.Headers)
	}
	if call.Response != nil {
		rec.HasResponse = true
		rec.StatusCode = call.Response.StatusCode
		rec.ResponseBody = call.Response.Body
		rec.ResponseHeaders = marshalHeaders(call.Response.Headers)
	}
	return a.db.WithContext(ctx).Create(&rec).Error
}

// Close 关闭底层连接
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func marshalHeaders(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	b, err := json.Marshal(h)
	if err != nil {
		return ""
	}
	return string(b)
}
