package contract

import "context"

// Sink: 接收一条 TargetRecord 并持久化（定位下一可用行、按列写入、提交）。
// 约束：
//  1. 单写者：调用方保证同一 Sink 顺序调用；
//  2. 列位置/样式策略归 Sink 所有，核心不感知；
//  3. 仅写入记录中存在的槽位；
//  4. 错误直接上抛（不做重试/回退）。
type Sink interface {
	Append(ctx context.Context, id ContractID, rec TargetRecord) (AppendResult, error)
}
