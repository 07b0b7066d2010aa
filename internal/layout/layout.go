// Package layout 定义槽位到表格列字母的映射（归属表格类 Sink）。
package layout

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"paste2excel/pkg/contract"
)

// DefaultAnchor: 以该列首个空单元格决定追加行。
const DefaultAnchor = "D"

// Layout: 槽位 → 列字母。
type Layout map[contract.TargetColumn]string

// Default 返回共享工作簿既有的列布局。
func Default() Layout {
	return Layout{
		contract.JobNameSlot:       "C",
		contract.GcNameSlot:        "D",
		contract.StateSlot:         "E",
		contract.ContractPriceSlot: "F",
		contract.DateAwardedSlot:   "G",
		contract.AddressSlot:       "CD",
		contract.ArchitectSlot:     "CE",
		contract.RetainageSlot:     "CF",
	}
}

// Merge 以 over 覆盖 base 中对应槽位（列字母统一为大写）。
func Merge(base Layout, over map[string]string) (Layout, error) {
	out := make(Layout, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		col := contract.TargetColumn(k)
		if !col.Valid() {
			return nil, fmt.Errorf("%w: unknown slot %q", contract.ErrInvalidInput, k)
		}
		out[col] = strings.ToUpper(strings.TrimSpace(v))
	}
	return out, nil
}

// Validate 校验列字母合法且一列只承载一个槽位。
func (l Layout) Validate() error {
	used := make(map[string]contract.TargetColumn, len(l))
	for _, slot := range l.slots() {
		letters := l[slot]
		if _, err := ColumnIndex(letters); err != nil {
			return fmt.Errorf("slot %s: %w", slot, err)
		}
		if prev, dup := used[letters]; dup {
			return fmt.Errorf("%w: column %s assigned to both %s and %s", contract.ErrInvalidInput, letters, prev, slot)
		}
		used[letters] = slot
	}
	return nil
}

// Cell 返回槽位在第 row 行的单元格名（如 CD12）；槽位缺失或坐标非法时 ok 为 false。
func (l Layout) Cell(slot contract.TargetColumn, row int) (string, bool) {
	letters, ok := l[slot]
	if !ok {
		return "", false
	}
	col, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return "", false
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", false
	}
	return cell, true
}

func (l Layout) slots() []contract.TargetColumn {
	out := make([]contract.TargetColumn, 0, len(l))
	for k := range l {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ColumnIndex 将列字母转为 1 起始序号（A=1, Z=26, AA=27, CD=82）。
// 只接受大写字母；越过 XFD 视为非法。
func ColumnIndex(letters string) (int, error) {
	if letters == "" || strings.ToUpper(letters) != letters {
		return 0, fmt.Errorf("%w: column %q", contract.ErrInvalidInput, letters)
	}
	n, err := excelize.ColumnNameToNumber(letters)
	if err != nil {
		return 0, fmt.Errorf("%w: column %q: %v", contract.ErrInvalidInput, letters, err)
	}
	return n, nil
}
