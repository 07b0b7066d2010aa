package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"paste2excel/internal/diag"
	"paste2excel/internal/extract"
	"paste2excel/internal/mapper"
	"paste2excel/pkg/contract"
)

// - 单写者：逐份合同顺序处理，同一 Sink 不会被并发调用。
// - 首错中止：任一阶段出错立即返回（带阶段前缀，%w 包装）。
// - 核心（抽取/映射）永不报错；空记录是否跳过由 Settings 决定。

// Components 聚合运行所需的组件。
type Components struct {
	Reader contract.Reader
	// Sink 为 nil 时只抽取/映射，不落盘（dry-run）。
	Sink contract.Sink
	// Extractor 为 nil 时使用内置标签表。
	Extractor *extract.Extractor
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Inputs []string
	// SkipEmpty: 未识别到任何字段时跳过追加。
	SkipEmpty bool
	// Observe: 每份合同处理完成后回调（CLI 输出回执）。
	Observe func(Result)
}

// Result 为单份合同的处理结果。
type Result struct {
	ID       contract.ContractID
	Fields   contract.ExtractedFields
	Record   contract.TargetRecord
	Appended bool
	Skipped  bool
	Append   contract.AppendResult
}

// Summary 为一次 Run 的汇总。
type Summary struct {
	Contracts int
	Appended  int
	Skipped   int
	Rows      []contract.AppendResult
}

// Prepare 规范化换行后抽取并映射，不产生副作用。
func Prepare(comp Components, id contract.ContractID, text string) Result {
	ex := comp.Extractor
	if ex == nil {
		ex = extract.Default()
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	fields := ex.Extract(text)
	return Result{ID: id, Fields: fields, Record: mapper.Map(fields)}
}

// Commit 将 Prepare 的结果交给 Sink；Sink 为 nil 时原样返回。
func Commit(ctx context.Context, comp Components, res Result, logger *diag.Logger) (Result, error) {
	if comp.Sink == nil {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	t0 := time.Now()
	timer := logger.StartWith("sink", "append", string(res.ID))
	ar, err := comp.Sink.Append(ctx, res.ID, res.Record)
	if err != nil {
		code := diag.Classify(err)
		logger.ErrorWith("sink", string(code), "append failed", &t0, string(res.ID))
		diag.IncOp("sink", "error", "error")
		if code != diag.CodeUnknown {
			diag.IncError("sink", string(code))
		}
		return res, fmt.Errorf("sink append: %w", err)
	}
	timer.FinishKV("append", int64(len(ar.Columns)), map[string]string{"row": strconv.Itoa(ar.Row)})
	diag.IncOp("sink", "finish", "success")
	diag.ObserveDuration("sink", "append", time.Since(t0).Milliseconds())
	res.Appended = true
	res.Append = ar
	return res, nil
}

// Process 处理单份合同：Prepare 后直接 Commit（不应用跳过策略）。
func Process(ctx context.Context, comp Components, id contract.ContractID, text string, logger *diag.Logger) (Result, error) {
	res := Prepare(comp, id, text)
	logger.DebugStart("extract", "fields", string(id), map[string]string{"count": strconv.Itoa(len(res.Fields))})
	return Commit(ctx, comp, res, logger)
}

// Run 执行完整流水线：Reader → Extract → Map → Sink。
// Sink 实现 io.Closer 时在结束后关闭；关闭失败记录日志，且在无其他错误时作为返回错误。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (sum Summary, err error) {
	if comp.Reader == nil {
		return sum, fmt.Errorf("sanity: %w: reader is nil", contract.ErrInvalidInput)
	}
	defer func() {
		c, ok := comp.Sink.(io.Closer)
		if !ok {
			return
		}
		if cerr := c.Close(); cerr != nil {
			logger.ErrorWith("sink", string(diag.Classify(cerr)), "close failed", nil, "")
			diag.IncOp("sink", "error", "error")
			if err == nil {
				err = fmt.Errorf("sink close: %w", cerr)
			}
		}
	}()

	start := time.Now()
	rtimer := logger.Start("pipeline", "run")
	err = comp.Reader.Iterate(ctx, set.Inputs, func(id contract.ContractID, rc io.ReadCloser) error {
		if err := ctx.Err(); err != nil {
			_ = rc.Close()
			return err
		}
		b, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			code := diag.Classify(err)
			logger.ErrorWith("reader", string(code), "read failed", nil, string(id))
			diag.IncOp("reader", "error", "error")
			return fmt.Errorf("reader read: %w", err)
		}
		diag.IncOp("reader", "finish", "success")
		sum.Contracts++

		res := Prepare(comp, id, string(b))
		logger.DebugStart("extract", "fields", string(id), map[string]string{"count": strconv.Itoa(len(res.Fields))})
		if len(res.Fields) == 0 && set.SkipEmpty {
			logger.Warn("pipeline", "skip", contract.ErrNoFields.Error(), string(id))
			diag.IncOp("pipeline", "skip", "skipped")
			sum.Skipped++
			res.Skipped = true
			observe(set, res)
			return nil
		}
		res, err = Commit(ctx, comp, res, logger)
		if err != nil {
			return err
		}
		if res.Appended {
			sum.Appended++
			sum.Rows = append(sum.Rows, res.Append)
		}
		observe(set, res)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.ErrorWith("pipeline", string(diag.CodeCancel), "canceled", &start, "")
		}
		return sum, err
	}
	rtimer.FinishKV("run", int64(sum.Contracts), map[string]string{
		"appended": strconv.Itoa(sum.Appended),
		"skipped":  strconv.Itoa(sum.Skipped),
	})
	diag.ObserveDuration("pipeline", "run", time.Since(start).Milliseconds())
	return sum, nil
}

func observe(set Settings, res Result) {
	if set.Observe != nil {
		set.Observe(res)
	}
}
