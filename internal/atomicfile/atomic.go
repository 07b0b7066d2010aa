// Package atomicfile 以“同目录临时文件 + 替换”的方式提交整文件写入。
package atomicfile

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
)

// WriteFunc 向临时文件写出全部内容。
type WriteFunc func(w io.Writer) error

// Write 在 dest 同目录创建临时文件，写入、fsync、关闭后替换 dest。
// 任一步失败都会删除临时文件，dest 保持原样。
func Write(ctx context.Context, dest string, perm os.FileMode, fn WriteFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if perm != 0 {
		_ = os.Chmod(tmpPath, perm)
	}

	bw := bufio.NewWriterSize(tmp, 64*1024)
	if err := fn(bw); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := replace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}
