// Package mapper 将抽取字段映射为按槽位组织的目标记录。
package mapper

import (
	"paste2excel/pkg/contract"
)

// transform 由字段值产出槽位值；ok=false 表示不写该槽位。
type transform func(v string) (contract.TargetValue, bool)

type slotRule struct {
	from contract.FieldName
	to   contract.TargetColumn
	fn   transform
}

var table = []slotRule{
	{from: contract.JobName, to: contract.JobNameSlot, fn: identity},
	{from: contract.JobAddress, to: contract.AddressSlot, fn: identity},
	{from: contract.JobAddress, to: contract.StateSlot, fn: state},
	{from: contract.GcName, to: contract.GcNameSlot, fn: identity},
	{from: contract.Architect, to: contract.ArchitectSlot, fn: identity},
	{from: contract.JobContractPrice, to: contract.ContractPriceSlot, fn: identity},
	{from: contract.RetainageOnContract, to: contract.RetainageSlot, fn: identity},
	{from: contract.DateContractAwarded, to: contract.DateAwardedSlot, fn: date},
}

func identity(v string) (contract.TargetValue, bool) { return contract.String(v), true }

func state(v string) (contract.TargetValue, bool) {
	code, ok := StateCode(v)
	if !ok {
		return contract.TargetValue{}, false
	}
	return contract.String(code), true
}

// 解析失败仍写入，但以原样值保存（未修剪）。
func date(v string) (contract.TargetValue, bool) {
	if t, ok := ParseDate(v); ok {
		return contract.DateOf(t), true
	}
	return contract.Raw(v), true
}

// Map 按槽位表派生记录；纯函数，永不失败。
func Map(fields contract.ExtractedFields) contract.TargetRecord {
	rec := make(contract.TargetRecord, len(fields)+1)
	for _, r := range table {
		v, ok := fields[r.from]
		if !ok {
			continue
		}
		if tv, keep := r.fn(v); keep {
			rec[r.to] = tv
		}
	}
	return rec
}
