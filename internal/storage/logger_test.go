package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"netmock/internal/ctxkeys"
)

type capturingLogger struct {
	kv [][]any
}

func (l *capturingLogger) Debug(_ string, kv ...any) { l.kv = append(l.kv, kv) }
func (l *capturingLogger) Info(_ string, kv ...any)  { l.kv = append(l.kv, kv) }
func (l *capturingLogger) Warn(_ string, kv ...any)  { l.kv = append(l.kv, kv) }
func (l *capturingLogger) Error(_ string, kv ...any) { l.kv = append(l.kv, kv) }

func requestIDContext(id string) context.Context {
	return context.WithValue(context.Background(), ctxkeys.RequestIDKey{}, id)
}

func TestGormLoggerCarriesRequestID(t *testing.T) {
	sink := &capturingLogger{}
	gl := NewGormLogger(sink).LogMode(gormlogger.Info)

	gl.Info(requestIDContext("req-1"), "建表完成")

	if len(sink.kv) != 1 {
		t.Fatalf("log entries = %d, want 1", len(sink.kv))
	}
	kv := sink.kv[0]
	if len(kv) < 2 || kv[0] != "requestId" || kv[1] != "req-1" {
		t.Errorf("kv = %v, want leading requestId req-1", kv)
	}
}

func TestGormLoggerTraceCarriesRequestID(t *testing.T) {
	sink := &capturingLogger{}
	gl := NewGormLogger(sink).LogMode(gormlogger.Error)

	gl.Trace(requestIDContext("req-2"), time.Now(), func() (string, int64) {
		return "INSERT INTO netmock_call_records", 1
	}, errors.New("disk full"))

	if len(sink.kv) != 1 {
		t.Fatalf("log entries = %d, want 1", len(sink.kv))
	}
	kv := sink.kv[0]
	if len(kv) < 2 || kv[0] != "requestId" || kv[1] != "req-2" {
		t.Errorf("kv = %v, want leading requestId req-2", kv)
	}
}
