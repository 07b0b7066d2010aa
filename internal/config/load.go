package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sigs.k8s.io/yaml"
)

// EnvPrefix: 环境变量前缀。
const EnvPrefix = "P2X_"

// DefaultAddr: serve 默认监听地址。
const DefaultAddr = ":8080"

// DefaultWorkbook: xlsx Sink 未配置 path 时使用的共享工作簿。
const DefaultWorkbook = "Job Numbers.xlsx"

// DefaultJSONL / DefaultDatabase: jsonl 与 sqlite Sink 的默认输出文件。
const (
	DefaultJSONL    = "contracts.jsonl"
	DefaultDatabase = "contracts.db"
)

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	return Config{
		Logging: Logging{Level: "info"},
		Components: Components{
			Reader: "fs",
			Sink:   "xlsx",
		},
		Server: Server{Addr: DefaultAddr},
	}
}

// Load 从文件路径或原始内容解析 Config（YAML 或 JSON，严格拒绝未知字段）。
func Load(path string, raw []byte) (Config, error) {
	var cfg Config
	switch {
	case len(raw) > 0:
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		raw = b
	default:
		return cfg, errors.New("no config source provided")
	}
	js, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", sourceName(path), err)
	}
	dec := json.NewDecoder(bytes.NewReader(js))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", sourceName(path), err)
	}
	return cfg, nil
}

func sourceName(path string) string {
	if path == "" {
		return "config"
	}
	return path
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并；空值不覆盖。
func Merge(base, over Config) Config {
	out := base
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	if over.SkipEmpty != nil {
		v := *over.SkipEmpty
		out.SkipEmpty = &v
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Sink != "" {
		out.Components.Sink = over.Components.Sink
	}
	if s := strings.TrimSpace(over.Workbook); s != "" {
		out.Workbook = s
	}
	if s := strings.TrimSpace(over.Sheet); s != "" {
		out.Sheet = s
	}
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Sink) > 0 {
		out.Options.Sink = cloneRaw(over.Options.Sink)
	}
	if s := strings.TrimSpace(over.Server.Addr); s != "" {
		out.Server.Addr = s
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合，其余忽略）。
// 支持：INPUTS, READER, SINK, WORKBOOK, SHEET, LOG_LEVEL, SKIP_EMPTY, ADDR
// 以及 OPTIONS__<READER|SINK>__JSON。CONFIG_FILE 由 CLI 在加载文件前读取。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := kv[eq+1:]
		switch key {
		case "INPUTS":
			over.Inputs = splitComma(val)
		case "READER":
			over.Components.Reader = strings.TrimSpace(val)
		case "SINK":
			over.Components.Sink = strings.TrimSpace(val)
		case "WORKBOOK":
			over.Workbook = strings.TrimSpace(val)
		case "SHEET":
			over.Sheet = strings.TrimSpace(val)
		case "LOG_LEVEL":
			over.Logging.Level = strings.TrimSpace(val)
		case "ADDR":
			over.Server.Addr = strings.TrimSpace(val)
		case "SKIP_EMPTY":
			if strings.TrimSpace(val) == "" {
				continue
			}
			b, err := strconv.ParseBool(strings.TrimSpace(val))
			if err != nil {
				return Config{}, fmt.Errorf("env %sSKIP_EMPTY: %w", EnvPrefix, err)
			}
			over.SkipEmpty = &b
		default:
			// OPTIONS__<component>__JSON：原样 JSON；空值视为未设置
			parts := strings.Split(key, "__")
			if len(parts) != 3 || parts[0] != "OPTIONS" || parts[2] != "JSON" || strings.TrimSpace(val) == "" {
				continue
			}
			if !json.Valid([]byte(val)) {
				return Config{}, fmt.Errorf("env %s: invalid JSON", kv[:eq])
			}
			switch parts[1] {
			case "READER":
				over.Options.Reader = json.RawMessage(val)
			case "SINK":
				over.Options.Sink = json.RawMessage(val)
			}
		}
	}
	return over, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
