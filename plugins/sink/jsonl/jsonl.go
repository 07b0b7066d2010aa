package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"paste2excel/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// Path: 输出文件（必需）；父目录不存在时创建。
	Path string `json:"path"`
	// PermFile/PermDir: 可选权限；为 0 表示使用默认 0644/0755。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
}

// Line: 一行输出对象。
type Line struct {
	ContractID contract.ContractID                            `json:"contract_id"`
	AppendedAt time.Time                                      `json:"appended_at"`
	Slots      map[contract.TargetColumn]contract.TargetValue `json:"slots"`
}

// File 以 JSON Lines 形式追加记录；行号即回执 Row。
type File struct {
	path  string
	permF os.FileMode
	permD os.FileMode
	now   func() time.Time

	mu sync.Mutex
}

// New 创建 JSONL Sink。
func New(opts *Options) (*File, error) {
	if opts == nil || strings.TrimSpace(opts.Path) == "" {
		return nil, fmt.Errorf("%w: jsonl path required", contract.ErrInvalidInput)
	}
	pf := opts.PermFile
	if pf == 0 {
		pf = 0o644
	}
	pd := opts.PermDir
	if pd == 0 {
		pd = 0o755
	}
	return &File{path: opts.Path, permF: pf, permD: pd, now: time.Now}, nil
}

var _ contract.Sink = (*File)(nil)

// Append 追加一行并返回其 1 起始行号。
func (f *File) Append(ctx context.Context, id contract.ContractID, rec contract.TargetRecord) (contract.AppendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-ctx.Done():
		return contract.AppendResult{}, ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(f.path), f.permD); err != nil {
		return contract.AppendResult{}, err
	}
	line := Line{
		ContractID: id,
		AppendedAt: f.now().UTC().Truncate(time.Second),
		Slots:      make(map[contract.TargetColumn]contract.TargetValue, len(rec)),
	}
	cols := rec.Columns()
	for _, c := range cols {
		line.Slots[c] = rec[c]
	}
	b, err := json.Marshal(line)
	if err != nil {
		return contract.AppendResult{}, err
	}

	fh, err := os.OpenFile(f.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, f.permF)
	if err != nil {
		return contract.AppendResult{}, err
	}
	n, terminated, err := countLines(fh)
	if err != nil {
		_ = fh.Close()
		return contract.AppendResult{}, err
	}
	// 先补齐残行的换行，避免与新记录拼成一行
	out := make([]byte, 0, len(b)+2)
	if !terminated {
		out = append(out, '\n')
	}
	out = append(append(out, b...), '\n')
	if _, err := fh.Write(out); err != nil {
		_ = fh.Close()
		return contract.AppendResult{}, err
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		return contract.AppendResult{}, err
	}
	if err := fh.Close(); err != nil {
		return contract.AppendResult{}, err
	}
	return contract.AppendResult{Row: n + 1, Columns: cols}, nil
}

// countLines 统计已有行数（末尾缺换行的残行也算一行）；terminated 表示内容为空或以换行结尾。
func countLines(r io.Reader) (n int, terminated bool, err error) {
	br := bufio.NewReaderSize(r, 64*1024)
	buf := make([]byte, 32*1024)
	var last byte = '\n'
	for {
		k, rerr := br.Read(buf)
		if k > 0 {
			n += bytes.Count(buf[:k], []byte{'\n'})
			last = buf[k-1]
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return 0, false, rerr
		}
	}
	if last != '\n' {
		n++
	}
	return n, last == '\n', nil
}
