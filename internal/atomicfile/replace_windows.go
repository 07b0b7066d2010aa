//go:build windows

package atomicfile

import "golang.org/x/sys/windows"

// replace 以 MoveFileEx 覆盖目标；共享盘上的工作簿被 Excel 占用时返回系统错误。
func replace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

func syncDir(string) error { return nil }
