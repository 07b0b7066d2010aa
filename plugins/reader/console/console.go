package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"paste2excel/pkg/contract"
)

// DefaultPrompt: 交互粘贴提示语。
const DefaultPrompt = "Paste your contract details here (press Enter twice to end):"

// ID: 控制台输入的固定 ContractID。
const ID contract.ContractID = "console"

// Options 为控制台 Reader 的可选配置。
type Options struct {
	// Prompt: 覆盖默认提示语；为空使用 DefaultPrompt。
	Prompt string `json:"prompt"`
	// BufSize: 单行最大字节数；<=0 使用 1MiB。
	BufSize int `json:"buf_size"`
}

// Console 从交互终端读取一份合同：逐行读取，遇到首个空行或 EOF 结束。
type Console struct {
	in      io.Reader
	out     io.Writer
	prompt  string
	bufSize int
}

// New 创建绑定 STDIN/STDERR 的控制台 Reader。
func New(opts *Options) *Console { return NewWith(opts, os.Stdin, os.Stderr) }

// NewWith 允许注入输入输出流。
func NewWith(opts *Options, in io.Reader, out io.Writer) *Console {
	c := &Console{in: in, out: out, prompt: DefaultPrompt, bufSize: 1 << 20}
	if opts != nil {
		if strings.TrimSpace(opts.Prompt) != "" {
			c.prompt = opts.Prompt
		}
		if opts.BufSize > 0 {
			c.bufSize = opts.BufSize
		}
	}
	return c
}

var _ contract.Reader = (*Console)(nil)

// Iterate 忽略 roots；仅产出一份合同（行以 \n 连接，不含结束空行）。
func (c *Console) Iterate(ctx context.Context, _ []string, yield func(contract.ContractID, io.ReadCloser) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.out != nil {
		if _, err := fmt.Fprintln(c.out, c.prompt); err != nil {
			return err
		}
	}
	text, err := c.readBlock(ctx)
	if err != nil {
		return err
	}
	return yield(ID, io.NopCloser(strings.NewReader(text)))
}

func (c *Console) readBlock(ctx context.Context) (string, error) {
	sc := bufio.NewScanner(c.in)
	// 最大行长取 max(bufSize, cap(buf))，初始容量不能超过 bufSize
	sc.Buffer(make([]byte, 0, min(64*1024, c.bufSize)), c.bufSize)
	var lines []string
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line := sc.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("console read: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}
