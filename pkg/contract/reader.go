package contract

import (
	"context"
	"io"
)

// Reader: 合同原文来源抽象（控制台粘贴/文件/目录/STDIN）。
// 约束：
// 1) 每份合同回调一次 yield，调用方负责 Close；
// 2) ContractID 稳定且去平台差异化；
// 3) 不做抽取/业务解析，仅提供字节流；
// 4) 不在内部起并发。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(id ContractID, r io.ReadCloser) error) error
}
