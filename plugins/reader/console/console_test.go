package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paste2excel/pkg/contract"
)

func collect(t *testing.T, c *Console) (contract.ContractID, string) {
	t.Helper()
	var id contract.ContractID
	var text string
	err := c.Iterate(context.Background(), nil, func(cid contract.ContractID, rc io.ReadCloser) error {
		defer rc.Close()
		b, err := io.ReadAll(rc)
		id, text = cid, string(b)
		return err
	})
	require.NoError(t, err)
	return id, text
}

func TestConsoleStopsAtBlankLine(t *testing.T) {
	in := strings.NewReader("Job Name: Acme\r\nJob Address: 1 Main St NC\n\nArchitect: ignored\n")
	var out bytes.Buffer
	id, text := collect(t, NewWith(nil, in, &out))
	assert.Equal(t, ID, id)
	assert.Equal(t, "Job Name: Acme\nJob Address: 1 Main St NC", text)
	assert.Equal(t, DefaultPrompt+"\n", out.String())
}

func TestConsoleEOFWithoutBlankLine(t *testing.T) {
	_, text := collect(t, NewWith(&Options{Prompt: "paste:"}, strings.NewReader("Job Name: Acme"), io.Discard))
	assert.Equal(t, "Job Name: Acme", text)
}

// 仅含空白的行不视为结束。
func TestConsoleWhitespaceLineContinues(t *testing.T) {
	_, text := collect(t, NewWith(nil, strings.NewReader("a\n  \nb\n\n"), nil))
	assert.Equal(t, "a\n  \nb", text)
}

func TestConsoleEmptyInput(t *testing.T) {
	_, text := collect(t, NewWith(nil, strings.NewReader("\n"), nil))
	assert.Equal(t, "", text)
}

func TestConsoleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWith(nil, strings.NewReader("x\n"), nil).Iterate(ctx, nil, func(contract.ContractID, io.ReadCloser) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConsoleLineTooLong(t *testing.T) {
	c := NewWith(&Options{BufSize: 8}, strings.NewReader(strings.Repeat("x", 64)+"\n"), nil)
	err := c.Iterate(context.Background(), nil, func(contract.ContractID, io.ReadCloser) error { return nil })
	assert.Error(t, err)
}
