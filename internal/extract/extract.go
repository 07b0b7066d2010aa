// Package extract 从粘贴的合同文本中按固定标签抽取字段。
//
// 规则（逐字段）：`<Label>:\s*(.+)`，取全文首个匹配（不要求行首）。
// `\s*` 允许跨越换行；捕获组中的 `.` 不匹配换行，因此值截止于该行末尾。
// 未匹配即字段缺失，不视为错误；值原样保留，不做校验。
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"paste2excel/pkg/contract"
)

// Rule: 字段与其标签文本的一条映射。
type Rule struct {
	Field contract.FieldName
	Label string
}

var defaultTable = []Rule{
	{Field: contract.JobName, Label: "Job Name"},
	{Field: contract.JobAddress, Label: "Job Address"},
	{Field: contract.GcName, Label: "GC/Property Owner/Customer Name"},
	{Field: contract.Architect, Label: "Architect"},
	{Field: contract.JobContractPrice, Label: "Job Contract Price Total"},
	{Field: contract.RetainageOnContract, Label: "Retainage on Contract"},
	{Field: contract.DateContractAwarded, Label: "Date Contract Awarded"},
}

// DefaultTable 返回内置模板表（副本）。
func DefaultTable() []Rule {
	out := make([]Rule, len(defaultTable))
	copy(out, defaultTable)
	return out
}

type compiled struct {
	field contract.FieldName
	re    *regexp.Regexp
}

// Extractor 持有编译后的规则表；只读，可并发使用。
type Extractor struct {
	rules []compiled
}

// space 为冒号后可跳过的空白：除 \s 外还包括 \v、U+0085、\x1c-\x1f 及 Unicode
// 分隔符（如 PDF/Word 粘贴带来的 NBSP）。
const space = `[\s\v\x{85}\x{1c}-\x{1f}\p{Z}]`

// New 按表构建 Extractor。字段须属于封闭集合且不重复，标签非空。
func New(table []Rule) (*Extractor, error) {
	seen := make(map[contract.FieldName]struct{}, len(table))
	rules := make([]compiled, 0, len(table))
	for _, r := range table {
		if !r.Field.Valid() {
			return nil, fmt.Errorf("%w: unknown field %q", contract.ErrInvalidInput, r.Field)
		}
		if _, dup := seen[r.Field]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", contract.ErrInvalidInput, r.Field)
		}
		if strings.TrimSpace(r.Label) == "" {
			return nil, fmt.Errorf("%w: empty label for %q", contract.ErrInvalidInput, r.Field)
		}
		seen[r.Field] = struct{}{}
		re, err := regexp.Compile(regexp.QuoteMeta(r.Label) + `:` + space + `*(.+)`)
		if err != nil {
			return nil, err
		}
		rules = append(rules, compiled{field: r.Field, re: re})
	}
	if len(rules) == 0 {
		return nil, errors.New("extract: empty rule table")
	}
	return &Extractor{rules: rules}, nil
}

var std = mustDefault()

func mustDefault() *Extractor {
	e, err := New(defaultTable)
	if err != nil {
		panic(err)
	}
	return e
}

// Default 返回基于内置模板表的 Extractor。
func Default() *Extractor { return std }

// Extract 使用内置模板表抽取。
func Extract(text string) contract.ExtractedFields { return std.Extract(text) }

// Extract 对每条规则取首个匹配的捕获组；纯函数，永不失败。
func (e *Extractor) Extract(text string) contract.ExtractedFields {
	out := make(contract.ExtractedFields, len(e.rules))
	for _, r := range e.rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out[r.field] = m[1]
	}
	return out
}

// Labels 返回规则表中的字段顺序（用于日志/诊断）。
func (e *Extractor) Labels() []contract.FieldName {
	out := make([]contract.FieldName, len(e.rules))
	for i, r := range e.rules {
		out[i] = r.field
	}
	return out
}
