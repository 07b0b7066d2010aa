package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"paste2excel/internal/pipeline"
)

// 解析完整 config.yaml
func TestLoadYAML(t *testing.T) {
	cfg, err := Load("../../testdata/config/basic.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"../contracts"}, cfg.Inputs)
	assert.Equal(t, "jsonl", cfg.Components.Sink)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.SkipEmptyValue())
	assert.JSONEq(t, `{"path":"out/contracts.jsonl"}`, string(cfg.Options.Sink))
	require.NoError(t, Validate(cfg))
}

// JSON 是 YAML 的子集，同一入口解析
func TestLoadJSON(t *testing.T) {
	cfg, err := Load("../../testdata/config/basic.json", nil)
	require.NoError(t, err)
	assert.Equal(t, "2024", cfg.Sheet)
	assert.Equal(t, []string{"-"}, cfg.Inputs)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("", []byte(`unknown: 1`))
	assert.Error(t, err, "未知字段应报错")
	// 未加引号的 2024 在 YAML 中是整数
	_, err = Load("", []byte(`sheet: 2024`))
	assert.Error(t, err)
	_, err = Load("", nil)
	assert.Error(t, err)
	_, err = Load("../../testdata/config/missing.yaml", nil)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	off := false
	base := Defaults()
	over := Config{
		Inputs:     []string{"a.txt"},
		SkipEmpty:  &off,
		Components: Components{Sink: "sqlite"},
		Options:    Options{Sink: json.RawMessage(`{"path":"x.db"}`)},
	}
	got := Merge(base, over)
	assert.Equal(t, "fs", got.Components.Reader, "空值不覆盖")
	assert.Equal(t, "sqlite", got.Components.Sink)
	assert.False(t, got.SkipEmptyValue())
	assert.Equal(t, "info", got.Logging.Level)
	assert.Equal(t, DefaultAddr, got.Server.Addr)

	// 副本语义：修改 over 不影响结果
	over.Inputs[0] = "b.txt"
	*over.SkipEmpty = true
	assert.Equal(t, []string{"a.txt"}, got.Inputs)
	assert.False(t, got.SkipEmptyValue())
}

func TestEnvOverlay(t *testing.T) {
	env := []string{
		"P2X_INPUTS=a, b ,",
		"P2X_SINK=jsonl",
		"P2X_WORKBOOK=book.xlsx",
		"P2X_SHEET=2025",
		"P2X_LOG_LEVEL=warn",
		"P2X_SKIP_EMPTY=false",
		"P2X_OPTIONS__READER__JSON={\"allow_exts\":[]}",
		"P2X_OPTIONS__SINK__JSON=",
		"P2X_UNKNOWN=1",
		"OTHER=1",
	}
	over, err := EnvOverlay(env)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, over.Inputs)
	assert.Equal(t, "jsonl", over.Components.Sink)
	assert.Equal(t, "book.xlsx", over.Workbook)
	assert.Equal(t, "2025", over.Sheet)
	assert.Equal(t, "warn", over.Logging.Level)
	require.NotNil(t, over.SkipEmpty)
	assert.False(t, *over.SkipEmpty)
	assert.JSONEq(t, `{"allow_exts":[]}`, string(over.Options.Reader))
	assert.Nil(t, over.Options.Sink)
}

func TestEnvOverlayErrors(t *testing.T) {
	_, err := EnvOverlay([]string{"P2X_SKIP_EMPTY=maybe"})
	assert.Error(t, err)
	_, err = EnvOverlay([]string{"P2X_OPTIONS__SINK__JSON={bad"})
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]Config{
		"empty input": {Inputs: []string{" "}},
		"dash mixed":  {Inputs: []string{"-", "a"}},
		"bad level":   {Logging: Logging{Level: "loud"}},
		"bad reader":  {Components: Components{Reader: "ftp"}},
		"bad sink":    {Components: Components{Sink: "csv"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, Validate(cfg))
		})
	}
	assert.NoError(t, Validate(Config{}))
}

func TestSinkOptionsOverlay(t *testing.T) {
	cfg := DefaultTemplateConfig()
	cfg.Workbook = "/tmp/other.xlsx"
	raw, err := SinkOptions(cfg)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "/tmp/other.xlsx", m["path"])
	assert.Equal(t, "2024", m["sheet"])
	assert.Equal(t, "Times New Roman", m["font_family"])

	// 无选项时也能生成
	raw, err = SinkOptions(Config{Sheet: "Bids"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sheet":"Bids","path":"Job Numbers.xlsx"}`, string(raw))

	// 非 xlsx Sink 不受影响
	raw, err = SinkOptions(Config{Workbook: "x", Components: Components{Sink: "jsonl"}, Options: Options{Sink: json.RawMessage(`{"path":"a.jsonl"}`)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"a.jsonl"}`, string(raw))

	raw, err = SinkOptions(Config{Components: Components{Sink: "sqlite"}, Options: Options{Sink: json.RawMessage(`{"table":"jobs"}`)}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"table":"jobs","path":"contracts.db"}`, string(raw))
}

func TestAssemble(t *testing.T) {
	cfg := Merge(Defaults(), Config{
		Inputs:     []string{"contracts"},
		Components: Components{Sink: "jsonl"},
		Options:    Options{Sink: json.RawMessage(`{"path":"out.jsonl"}`)},
	})
	comp, set, err := Assemble(cfg)
	require.NoError(t, err)
	assert.NotNil(t, comp.Reader)
	assert.NotNil(t, comp.Sink)
	assert.Equal(t, pipeline.Settings{Inputs: []string{"contracts"}, SkipEmpty: true}, set)

	cfg.Options.Sink = json.RawMessage(`{"path":"out.jsonl","bogus":1}`)
	_, _, err = Assemble(cfg)
	assert.Error(t, err)
}

// 模板可被 Load 回读且通过校验
func TestTemplateRoundTrip(t *testing.T) {
	b, err := RenderTemplate()
	require.NoError(t, err)
	cfg, err := Load("", b)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "xlsx", cfg.Components.Sink)
	assert.True(t, cfg.SkipEmptyValue())

	var sink map[string]any
	require.NoError(t, yaml.Unmarshal(cfg.Options.Sink, &sink))
	assert.Equal(t, "2024", sink["sheet"])

	_, _, err = Assemble(cfg)
	require.NoError(t, err)
}

func TestSplitComma(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitComma("a, b , ,c"))
	assert.Nil(t, splitComma(""))
}
