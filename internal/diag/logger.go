package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) zl() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel 解析级别字符串；未知值返回 false。
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, true
	case "", "info":
		return Info, true
	case "warn":
		return Warn, true
	case "error":
		return Error, true
	default:
		return Info, false
	}
}

// LogDir / LogMaxBytes: 默认日志目录与轮转阈值。
const (
	LogDir      = "logs"
	LogMaxBytes = 10 * 1024 * 1024
)

// Logger 为结构化事件日志器：单行 JSON（zerolog 编码），写入轮转文件。
// 事件字段：level ts corr_id comp stage code dur_ms count contract_id msg kv。
type Logger struct {
	zl   zerolog.Logger
	sink io.Closer
}

// NewLogger 通过配置的 level 初始化，日志写入 logs/ 目录，10MiB 轮转。
func NewLogger(corrID, level string) *Logger {
	rf := NewRotatingFile(LogDir, LogMaxBytes)
	l := NewLoggerTo(&lineWriter{rf: rf}, corrID, level)
	l.sink = rf
	return l
}

// NewLoggerTo 将日志写到任意 io.Writer（测试/serve 前台模式）。
func NewLoggerTo(w io.Writer, corrID, level string) *Logger {
	lvl, _ := ParseLevel(level)
	zl := zerolog.New(w).Level(lvl.zl()).With().
		Timestamp().
		Str("corr_id", corrID).
		Logger()
	return &Logger{zl: zl}
}

// Close 释放底层文件句柄。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Event 为标准事件结构。
type Event struct {
	Comp       string
	Stage      string // start|finish|error|skip
	Code       string
	DurMS      int64
	Count      int64
	ContractID string
	Msg        string
	KV         map[string]string
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil {
		return
	}
	e := l.zl.WithLevel(lv.zl())
	if e == nil {
		return
	}
	e = e.Str("comp", ev.Comp).Str("stage", ev.Stage)
	if ev.Code != "" {
		e = e.Str("code", ev.Code)
	}
	if ev.DurMS != 0 {
		e = e.Int64("dur_ms", ev.DurMS)
	}
	if ev.Count != 0 {
		e = e.Int64("count", ev.Count)
	}
	if ev.ContractID != "" {
		e = e.Str("contract_id", ev.ContractID)
	}
	if len(ev.KV) > 0 {
		d := zerolog.Dict()
		for k, v := range ev.KV {
			d = d.Str(k, v)
		}
		e = e.Dict("kv", d)
	}
	e.Msg(ev.Msg)
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", Msg: msg})
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带 contract_id 的 start。
func (l *Logger) StartWith(comp, msg, contractID string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", ContractID: contractID, Msg: msg})
	return &Timer{l: l, comp: comp, contractID: contractID, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWith(comp, code, msg, durSince, "")
}

// ErrorWith 支持 contract_id。
func (l *Logger) ErrorWith(comp, code, msg string, durSince *time.Time, contractID string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Msg: msg, ContractID: contractID})
}

// Warn 记录告警（例如未识别到任何字段而跳过）。
func (l *Logger) Warn(comp, stage, msg, contractID string) {
	l.log(Warn, Event{Comp: comp, Stage: stage, Msg: msg, ContractID: contractID})
}

// DebugStart 输出调试级别的 start 类事件（仅在 level=debug 时生效）。
func (l *Logger) DebugStart(comp, msg, contractID string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "start", ContractID: contractID, Msg: msg, KV: kv})
}

// InfoFinish 在已有起点的情况下记录 finish。
func (l *Logger) InfoFinish(comp, msg string, start time.Time, count int64) {
	l.log(Info, Event{Comp: comp, Stage: "finish", DurMS: time.Since(start).Milliseconds(), Count: count, Msg: msg})
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l          *Logger
	comp       string
	contractID string
	t0         time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, ContractID: t.contractID, Msg: msg})
}

// FinishKV 记录带键值的 finish。
func (t *Timer) FinishKV(msg string, count int64, kv map[string]string) {
	if t == nil || t.l == nil {
		return
	}
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: time.Since(t.t0).Milliseconds(), Count: count, ContractID: t.contractID, Msg: msg, KV: kv})
}

// lineWriter 将 zerolog 的整行输出交给 RotatingFile；失败时回退 stderr。
type lineWriter struct {
	mu sync.Mutex
	rf *RotatingFile
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	line := p
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if err := w.rf.WriteLine(line); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(p)
	}
	return len(p), nil
}
