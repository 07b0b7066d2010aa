package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// 键使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs []string `json:"inputs"`
	// SkipEmpty: 未识别到任何字段时跳过追加；nil 视为 true。
	SkipEmpty *bool   `json:"skip_empty,omitempty"`
	Logging   Logging `json:"logging"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// Workbook/Sheet: xlsx Sink 的路径与工作表快捷项；非空时覆盖 options.sink 中的同名键。
	Workbook string `json:"workbook,omitempty"`
	Sheet    string `json:"sheet,omitempty"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`

	Server Server `json:"server"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader string `json:"reader"`
	Sink   string `json:"sink"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader json.RawMessage `json:"reader,omitempty"`
	Sink   json.RawMessage `json:"sink,omitempty"`
}

// Server: serve 子命令的监听配置。
type Server struct {
	Addr string `json:"addr"`
}

// SkipEmptyValue 返回生效的跳过策略。
func (c Config) SkipEmptyValue() bool {
	if c.SkipEmpty == nil {
		return true
	}
	return *c.SkipEmpty
}
