package contract

// ContractID: 单份合同输入的逻辑标识（文件路径需规范化；stdin/console/http-<uuid> 等）。
type ContractID string

// FieldName: 模板字段名（封闭集合，不支持动态字段）。
type FieldName string

const (
	JobName             FieldName = "JobName"
	JobAddress          FieldName = "JobAddress"
	GcName              FieldName = "GcName"
	Architect           FieldName = "Architect"
	JobContractPrice    FieldName = "JobContractPrice"
	RetainageOnContract FieldName = "RetainageOnContract"
	DateContractAwarded FieldName = "DateContractAwarded"
)

var allFields = []FieldName{
	JobName,
	JobAddress,
	GcName,
	Architect,
	JobContractPrice,
	RetainageOnContract,
	DateContractAwarded,
}

// AllFields 按模板顺序返回全部字段名（副本）。
func AllFields() []FieldName {
	out := make([]FieldName, len(allFields))
	copy(out, allFields)
	return out
}

// Valid 判断字段名是否属于封闭集合。
func (f FieldName) Valid() bool {
	for _, k := range allFields {
		if k == f {
			return true
		}
	}
	return false
}

// ExtractedFields: 字段名 → 抽取到的原样字符串。
// 约束：仅包含匹配成功的字段；缺失不是错误。
type ExtractedFields map[FieldName]string

// TargetColumn: 目标槽位（与 FieldName 非一一对应：JobAddress 派生 AddressSlot 与 StateSlot）。
type TargetColumn string

const (
	JobNameSlot       TargetColumn = "JobNameSlot"
	GcNameSlot        TargetColumn = "GcNameSlot"
	StateSlot         TargetColumn = "StateSlot"
	AddressSlot       TargetColumn = "AddressSlot"
	ArchitectSlot     TargetColumn = "ArchitectSlot"
	ContractPriceSlot TargetColumn = "ContractPriceSlot"
	RetainageSlot     TargetColumn = "RetainageSlot"
	DateAwardedSlot   TargetColumn = "DateAwardedSlot"
)

var allColumns = []TargetColumn{
	JobNameSlot,
	GcNameSlot,
	StateSlot,
	AddressSlot,
	ArchitectSlot,
	ContractPriceSlot,
	RetainageSlot,
	DateAwardedSlot,
}

// AllColumns 以稳定顺序返回全部槽位（副本）。
func AllColumns() []TargetColumn {
	out := make([]TargetColumn, len(allColumns))
	copy(out, allColumns)
	return out
}

// Valid 判断槽位是否属于封闭集合。
func (c TargetColumn) Valid() bool {
	for _, k := range allColumns {
		if k == c {
			return true
		}
	}
	return false
}

// TargetRecord: 一行逻辑记录（槽位 → 带标签的值）。
// 约束：来源字段缺失则槽位缺失，不放置空占位。
type TargetRecord map[TargetColumn]TargetValue

// Columns 以 AllColumns 的顺序返回记录中存在的槽位。
func (r TargetRecord) Columns() []TargetColumn {
	out := make([]TargetColumn, 0, len(r))
	for _, c := range allColumns {
		if _, ok := r[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// AppendResult: Sink 追加后的回执。
// Row 对表格类 Sink 为 1 起始行号；SQLite 为行 id；JSONL 为行序号。
type AppendResult struct {
	Row     int
	Columns []TargetColumn
}
