package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paste2excel/pkg/contract"
)

func TestDefaultLayout(t *testing.T) {
	l := Default()
	require.NoError(t, l.Validate())
	require.Len(t, l, len(contract.AllColumns()))

	cell, ok := l.Cell(contract.StateSlot, 12)
	assert.True(t, ok)
	assert.Equal(t, "E12", cell)
	cell, _ = l.Cell(contract.AddressSlot, 3)
	assert.Equal(t, "CD3", cell)
	cell, _ = l.Cell(contract.DateAwardedSlot, 7)
	assert.Equal(t, "G7", cell)

	// 行号须从 1 开始
	_, ok = l.Cell(contract.JobNameSlot, 0)
	assert.False(t, ok)
	wide := Layout{contract.JobNameSlot: "XFD"}
	cell, ok = wide.Cell(contract.JobNameSlot, 1048576)
	assert.True(t, ok)
	assert.Equal(t, "XFD1048576", cell)
	_, ok = Layout{contract.JobNameSlot: "XFE"}.Cell(contract.JobNameSlot, 1)
	assert.False(t, ok)
}

func TestColumnIndex(t *testing.T) {
	cases := map[string]int{"A": 1, "Z": 26, "AA": 27, "CD": 82, "CF": 84, "XFD": 16384}
	for in, want := range cases {
		got, err := ColumnIndex(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "a", "A1", "XFE", "ABCD"} {
		_, err := ColumnIndex(bad)
		assert.True(t, errors.Is(err, contract.ErrInvalidInput), bad)
	}
}

func TestMergeAndValidate(t *testing.T) {
	l, err := Merge(Default(), map[string]string{"ArchitectSlot": " ce ", "RetainageSlot": "H"})
	require.NoError(t, err)
	assert.Equal(t, "CE", l[contract.ArchitectSlot])
	assert.Equal(t, "H", l[contract.RetainageSlot])
	assert.Equal(t, "CF", Default()[contract.RetainageSlot], "默认布局不应被修改")

	_, err = Merge(Default(), map[string]string{"Owner": "Z"})
	assert.True(t, errors.Is(err, contract.ErrInvalidInput))

	dup, err := Merge(Default(), map[string]string{"StateSlot": "C"})
	require.NoError(t, err)
	assert.True(t, errors.Is(dup.Validate(), contract.ErrInvalidInput))

	_, ok := Layout{}.Cell(contract.JobNameSlot, 1)
	assert.False(t, ok)
}
