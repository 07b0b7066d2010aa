package config

import (
	"encoding/json"

	"sigs.k8s.io/yaml"
)

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 无 inputs 时 CLI 使用交互粘贴；
// - Sink 为 xlsx，写入 ./Job Numbers.xlsx 的 2024 工作表；
// - 选项包含全部键，给出中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	skip := true
	cfg := Config{
		SkipEmpty:  &skip,
		Logging:    d.Logging,
		Components: d.Components,
		Server:     d.Server,
	}
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules"],
  "allow_exts": [".txt"]
}`)
	cfg.Options.Sink = json.RawMessage(`{
  "path": "Job Numbers.xlsx",
  "sheet": "2024",
  "anchor_column": "D",
  "columns": {},
  "font_family": "Times New Roman",
  "font_size": 14,
  "date_format": "mm/dd/yyyy",
  "create_if_missing": false
}`)
	return cfg
}

// RenderTemplate 以 YAML 输出默认模板。
func RenderTemplate() ([]byte, error) {
	return yaml.Marshal(DefaultTemplateConfig())
}

// EnvTemplate: init-config 写出的 .env 模板（全部注释，不改变默认行为）。
const EnvTemplate = `# paste2excel environment overrides (loaded before P2X_* overlay; never overrides existing variables)
# P2X_CONFIG_FILE=config.yaml
# P2X_INPUTS=contracts/
# P2X_READER=fs
# P2X_SINK=xlsx
# P2X_WORKBOOK=Job Numbers.xlsx
# P2X_SHEET=2024
# P2X_LOG_LEVEL=info
# P2X_SKIP_EMPTY=true
# P2X_ADDR=:8080
# P2X_OPTIONS__SINK__JSON={"path":"Job Numbers.xlsx","sheet":"2024"}
`
