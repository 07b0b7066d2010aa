package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"paste2excel/internal/diag"
	"paste2excel/internal/pipeline"
	"paste2excel/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return errors.New("config: input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.New("config: '-' cannot be mixed with other roots")
	}
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" {
		if _, ok := diag.ParseLevel(lv); !ok {
			return fmt.Errorf("config: unknown log level %q", lv)
		}
	}
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered (have %s)", name, strings.Join(registry.ReaderNames(), ", "))
	}
	if name := effName(cfg.Components.Sink, d.Components.Sink); registry.Sink[name] == nil {
		return fmt.Errorf("config: sink %q not registered (have %s)", name, strings.Join(registry.SinkNames(), ", "))
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry（工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	sn := effName(cfg.Components.Sink, d.Components.Sink)

	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: reader %s options: %w", rn, err)
	}
	raw, err := SinkOptions(cfg)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}
	s, err := registry.Sink[sn](raw)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("config: sink %s options: %w", sn, err)
	}

	comp := pipeline.Components{Reader: r, Sink: s}
	set := pipeline.Settings{
		Inputs:    cloneStrings(cfg.Inputs),
		SkipEmpty: cfg.SkipEmptyValue(),
	}
	return comp, set, nil
}

// SinkOptions 返回传给 Sink 工厂的 JSON。
// 未给出 path 时使用各 Sink 的默认文件；xlsx 另以 Workbook/Sheet 覆盖 path/sheet。
func SinkOptions(cfg Config) (json.RawMessage, error) {
	name := effName(cfg.Components.Sink, Defaults().Components.Sink)
	raw := cloneRaw(cfg.Options.Sink)
	obj := map[string]json.RawMessage{}
	if len(raw) > 0 && strings.TrimSpace(string(raw)) != "null" {
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("config: options.sink: %w", err)
		}
	}
	if name == "xlsx" {
		if cfg.Workbook != "" {
			obj["path"], _ = json.Marshal(cfg.Workbook)
		}
		if cfg.Sheet != "" {
			obj["sheet"], _ = json.Marshal(cfg.Sheet)
		}
	}
	if def, ok := defaultSinkPath[name]; ok && obj["path"] == nil {
		obj["path"], _ = json.Marshal(def)
	}
	if len(obj) == 0 {
		return raw, nil
	}
	return json.Marshal(obj)
}

var defaultSinkPath = map[string]string{
	"xlsx":   DefaultWorkbook,
	"jsonl":  DefaultJSONL,
	"sqlite": DefaultDatabase,
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
