package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"paste2excel/internal/atomicfile"
	"paste2excel/internal/layout"
	"paste2excel/pkg/contract"
)

// Options: 工作簿 Sink 的选项。
type Options struct {
	// Path: 工作簿路径（必需）。
	Path string `json:"path"`
	// Sheet: 工作表名；默认 "2024"。
	Sheet string `json:"sheet"`
	// AnchorColumn: 以该列首个空单元格确定追加行；默认 "D"。
	AnchorColumn string `json:"anchor_column"`
	// Columns: 覆盖默认列布局（槽位名 → 列字母）。
	Columns map[string]string `json:"columns,omitempty"`
	// FontFamily/FontSize: 写入单元格的字体；默认 Times New Roman 14。
	FontFamily string  `json:"font_family"`
	FontSize   float64 `json:"font_size"`
	// DateFormat: 日期单元格数字格式；默认 mm/dd/yyyy。
	DateFormat string `json:"date_format"`
	// CreateIfMissing: 工作簿不存在时新建（含目标工作表）；默认 false 返回 ErrStoreNotFound。
	CreateIfMissing bool `json:"create_if_missing"`
	// Atomic: 临时文件 + 替换提交；默认 true。
	Atomic *bool `json:"atomic,omitempty"`
}

const (
	DefaultSheet      = "2024"
	DefaultFontFamily = "Times New Roman"
	DefaultFontSize   = 14
	DefaultDateFormat = "mm/dd/yyyy"
)

// Workbook 将记录追加到 xlsx 工作表的下一可用行。
type Workbook struct {
	path       string
	sheet      string
	anchor     string
	layout     layout.Layout
	font       excelize.Font
	dateFormat string
	create     bool
	atomic     bool

	mu sync.Mutex
}

// New 校验选项并创建工作簿 Sink；不在此处打开文件。
func New(opts *Options) (*Workbook, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("%w: xlsx path required", contract.ErrInvalidInput)
	}
	w := &Workbook{
		path:       opts.Path,
		sheet:      DefaultSheet,
		anchor:     layout.DefaultAnchor,
		font:       excelize.Font{Family: DefaultFontFamily, Size: DefaultFontSize},
		dateFormat: DefaultDateFormat,
		create:     opts.CreateIfMissing,
		atomic:     true,
	}
	if s := strings.TrimSpace(opts.Sheet); s != "" {
		w.sheet = s
	}
	if a := strings.ToUpper(strings.TrimSpace(opts.AnchorColumn)); a != "" {
		w.anchor = a
	}
	if _, err := layout.ColumnIndex(w.anchor); err != nil {
		return nil, fmt.Errorf("anchor_column: %w", err)
	}
	l, err := layout.Merge(layout.Default(), opts.Columns)
	if err != nil {
		return nil, err
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	w.layout = l
	if f := strings.TrimSpace(opts.FontFamily); f != "" {
		w.font.Family = f
	}
	if opts.FontSize > 0 {
		w.font.Size = opts.FontSize
	}
	if d := strings.TrimSpace(opts.DateFormat); d != "" {
		w.dateFormat = d
	}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	return w, nil
}

var _ contract.Sink = (*Workbook)(nil)

// Append 打开工作簿，定位锚列首个空行，写入记录中存在的槽位并保存。
func (w *Workbook) Append(ctx context.Context, _ contract.ContractID, rec contract.TargetRecord) (contract.AppendResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return contract.AppendResult{}, err
	}

	f, err := w.open()
	if err != nil {
		return contract.AppendResult{}, err
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.sheet)
	if err != nil {
		return contract.AppendResult{}, err
	}
	if idx < 0 {
		return contract.AppendResult{}, fmt.Errorf("%w: %q in %s", contract.ErrSheetNotFound, w.sheet, w.path)
	}

	row, err := FirstEmptyRow(f, w.sheet, w.anchor)
	if err != nil {
		return contract.AppendResult{}, err
	}
	textStyle, err := f.NewStyle(&excelize.Style{Font: &w.font})
	if err != nil {
		return contract.AppendResult{}, err
	}
	dateFmt := w.dateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{Font: &w.font, CustomNumFmt: &dateFmt})
	if err != nil {
		return contract.AppendResult{}, err
	}

	cols := rec.Columns()
	written := make([]contract.TargetColumn, 0, len(cols))
	for _, col := range cols {
		cell, ok := w.layout.Cell(col, row)
		if !ok {
			continue
		}
		if err := w.writeCell(f, cell, rec[col], textStyle, dateStyle); err != nil {
			return contract.AppendResult{}, fmt.Errorf("cell %s: %w", cell, err)
		}
		written = append(written, col)
	}

	if err := w.save(ctx, f); err != nil {
		return contract.AppendResult{}, err
	}
	return contract.AppendResult{Row: row, Columns: written}, nil
}

func (w *Workbook) writeCell(f *excelize.File, cell string, v contract.TargetValue, textStyle, dateStyle int) error {
	if v.IsDate() {
		if err := f.SetCellValue(w.sheet, cell, v.Time()); err != nil {
			return err
		}
		return f.SetCellStyle(w.sheet, cell, cell, dateStyle)
	}
	// 字符串与原样回退都按文本写入，不套用日期格式
	if err := f.SetCellStr(w.sheet, cell, v.Text()); err != nil {
		return err
	}
	return f.SetCellStyle(w.sheet, cell, cell, textStyle)
}

func (w *Workbook) open() (*excelize.File, error) {
	_, err := os.Stat(w.path)
	switch {
	case err == nil:
		return excelize.OpenFile(w.path)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	case !w.create:
		return nil, fmt.Errorf("%w: %s", contract.ErrStoreNotFound, w.path)
	}
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), w.sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func (w *Workbook) save(ctx context.Context, f *excelize.File) error {
	if !w.atomic {
		return f.SaveAs(w.path)
	}
	return atomicfile.Write(ctx, w.path, 0o644, func(out io.Writer) error {
		_, err := f.WriteTo(out)
		return err
	})
}

// FirstEmptyRow 返回 column 列中第一个值为空的行号（1 起始）。
func FirstEmptyRow(f *excelize.File, sheet, column string) (int, error) {
	col, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, err
	}
	for row := 1; ; row++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return 0, err
		}
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return 0, err
		}
		if v == "" {
			return row, nil
		}
	}
}
