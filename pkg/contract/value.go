package contract

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind: TargetValue 的标签。
type Kind int

const (
	// KindString: 普通字符串（恒等映射）。
	KindString Kind = iota
	// KindDate: 结构化日历日期（无时间分量）。
	KindDate
	// KindRaw: 日期无法解析时的原样字符串回退；与 KindString 区分，下游不套用日期格式。
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindDate:
		return "date"
	case KindRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// DisplayDateLayout: 日期的文本呈现（与表格 mm/dd/yyyy 一致）。
const DisplayDateLayout = "01/02/2006"

// isoDateLayout 用于序列化（JSON/SQLite）。
const isoDateLayout = "2006-01-02"

// TargetValue: 带标签的值；零值为空字符串。
type TargetValue struct {
	kind  Kind
	text  string
	year  int
	month time.Month
	day   int
}

// String 构造普通字符串值。
func String(s string) TargetValue { return TargetValue{kind: KindString, text: s} }

// Raw 构造原样回退值。
func Raw(s string) TargetValue { return TargetValue{kind: KindRaw, text: s} }

// Date 构造日历日期值（年月日经 time.Date 归一）。
func Date(year int, month time.Month, day int) TargetValue {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return TargetValue{kind: KindDate, year: t.Year(), month: t.Month(), day: t.Day()}
}

// DateOf 取 t 的日历日期，丢弃时间分量与时区。
func DateOf(t time.Time) TargetValue { return Date(t.Year(), t.Month(), t.Day()) }

func (v TargetValue) Kind() Kind   { return v.kind }
func (v TargetValue) IsDate() bool { return v.kind == KindDate }

// Time 返回日期的 UTC 零点；非日期值返回零值。
func (v TargetValue) Time() time.Time {
	if v.kind != KindDate {
		return time.Time{}
	}
	return time.Date(v.year, v.month, v.day, 0, 0, 0, 0, time.UTC)
}

// Text 返回文本形态：字符串/原样值直接返回；日期按 DisplayDateLayout 呈现。
func (v TargetValue) Text() string {
	if v.kind == KindDate {
		return v.Time().Format(DisplayDateLayout)
	}
	return v.text
}

func (v TargetValue) String() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.Text())
}

// Equal 比较标签与内容。
func (v TargetValue) Equal(o TargetValue) bool {
	return v.kind == o.kind && v.text == o.text && v.year == o.year && v.month == o.month && v.day == o.day
}

type wireValue struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// MarshalJSON: {"kind":"date","value":"2024-01-05"} / {"kind":"string","value":"..."}。
func (v TargetValue) MarshalJSON() ([]byte, error) {
	w := wireValue{Kind: v.kind.String(), Value: v.text}
	if v.kind == KindDate {
		w.Value = v.Time().Format(isoDateLayout)
	}
	return json.Marshal(w)
}

func (v *TargetValue) UnmarshalJSON(b []byte) error {
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	switch w.Kind {
	case "string":
		*v = String(w.Value)
	case "raw":
		*v = Raw(w.Value)
	case "date":
		t, err := time.Parse(isoDateLayout, w.Value)
		if err != nil {
			return fmt.Errorf("%w: date value %q", ErrInvalidInput, w.Value)
		}
		*v = DateOf(t)
	default:
		return fmt.Errorf("%w: value kind %q", ErrInvalidInput, w.Kind)
	}
	return nil
}

// ISODate 返回日期的 YYYY-MM-DD 形态；非日期返回空串。
func (v TargetValue) ISODate() string {
	if v.kind != KindDate {
		return ""
	}
	return v.Time().Format(isoDateLayout)
}
