// Package logger 认证组件共用的 zap 日志器
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// 控制台输出的等级颜色
var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  "\x1b[35m",
	zapcore.InfoLevel:   "\x1b[34m",
	zapcore.WarnLevel:   "\x1b[33m",
	zapcore.ErrorLevel:  "\x1b[31m",
	zapcore.DPanicLevel: "\x1b[31;1m",
	zapcore.PanicLevel:  "\x1b[31;1m",
	zapcore.FatalLevel:  "\x1b[31;1m",
}

// 等级固定 5 字符宽度
func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	s := level.CapitalString()
	if len(s) < 5 {
		s += strings.Repeat(" ", 5-len(s))
	}
	if c, ok := levelColors[level]; ok {
		s = c + s + "\x1b[0m"
	}
	enc.AppendString(s)
}

func callerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	const width = 28
	s := caller.TrimmedPath()
	if len(s) < width {
		s += strings.Repeat(" ", width-len(s))
	}
	enc.AppendString(s)
}

// parseLevel 无法识别的级别按 info 处理
func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// New 创建写入 w 的 Logger
// level: debug, info, warn, error
// format: json, console
func New(level, format string, w io.Writer) *zap.Logger {
	var encoder zapcore.Encoder
	if format == "json" {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = "time"
		cfg.EncodeLevel = colorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("[2006-01-02 15:04:05]")
		cfg.EncodeCaller = callerEncoder
		cfg.ConsoleSeparator = " "
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), parseLevel(level))
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

// Init 初始化输出到 stdout 的全局日志器，可重复调用
func Init(level, format string) {
	Set(New(level, format, os.Stdout))
}

// Set 替换全局日志器，nil 恢复为默认
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// Get 获取全局 Logger，未初始化时使用 info 级别的控制台输出
func Get() *zap.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = New("info", "console", os.Stdout)
	}
	return global
}

// Named 创建命名 Logger
func Named(name string) *zap.Logger {
	return Get().Named(name)
}

// Sync 刷新全局日志缓冲
func Sync() error {
	return Get().Sync()
}

// 字段函数 (从 zap 导出)
var (
	String   = zap.String
	Int      = zap.Int
	Uint16   = zap.Uint16
	Err      = zap.Error
	Stringer = zap.Stringer
)
