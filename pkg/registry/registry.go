package registry

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"sort"

	"paste2excel/pkg/contract"
	rcon "paste2excel/plugins/reader/console"
	rfs "paste2excel/plugins/reader/filesystem"
	sjl "paste2excel/plugins/sink/jsonl"
	ssql "paste2excel/plugins/sink/sqlite"
	sxl "paste2excel/plugins/sink/xlsx"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewSink 工厂签名：接收原样 JSON Options。
type NewSink func(raw json.RawMessage) (contract.Sink, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// console: 交互粘贴，首个空行结束
	"console": func(raw json.RawMessage) (contract.Reader, error) {
		return Console(raw, os.Stdin, os.Stderr)
	},
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Sink 工厂注册表。
var Sink = map[string]NewSink{
	// xlsx: 共享工作簿，锚列首个空行追加
	"xlsx": func(raw json.RawMessage) (contract.Sink, error) {
		var opts sxl.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sxl.New(&opts)
	},
	// jsonl: 每份合同一行 JSON
	"jsonl": func(raw json.RawMessage) (contract.Sink, error) {
		var opts sjl.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return sjl.New(&opts)
	},
	// sqlite: 每个槽位一列
	"sqlite": func(raw json.RawMessage) (contract.Sink, error) {
		var opts ssql.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ssql.New(&opts)
	},
}

// Console 以注入的输入输出流构建控制台 Reader；选项解码规则与 Reader["console"] 相同。
func Console(raw json.RawMessage, in io.Reader, out io.Writer) (contract.Reader, error) {
	var opts rcon.Options
	if err := strictUnmarshal(raw, &opts); err != nil {
		return nil, err
	}
	return rcon.NewWith(&opts, in, out), nil
}

// ReaderNames 返回已注册 Reader 名（字典序）。
func ReaderNames() []string { return keys(Reader) }

// SinkNames 返回已注册 Sink 名（字典序）。
func SinkNames() []string { return keys(Sink) }

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
