package contract

import "errors"

// 最小错误分类（核心抽取/映射永不报错；以下仅用于外围协作者）。
var (
	// ErrPathInvalid: 目标标识映射为无效/越界路径。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvalidInput: 输入/选项不合法。
	ErrInvalidInput = errors.New("invalid input")
	// ErrStoreNotFound: 持久化存储（工作簿/数据库文件）不存在。
	ErrStoreNotFound = errors.New("store not found")
	// ErrSheetNotFound: 工作簿中缺少目标工作表。
	ErrSheetNotFound = errors.New("sheet not found")
	// ErrNoFields: 未识别到任何字段（调用方策略，核心不返回）。
	ErrNoFields = errors.New("no fields recognized")
)
