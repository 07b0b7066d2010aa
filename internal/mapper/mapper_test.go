package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paste2excel/internal/extract"
	"paste2excel/pkg/contract"
)

func assertRecord(t *testing.T, want, got contract.TargetRecord) {
	t.Helper()
	require.Len(t, got, len(want), "槽位数量不符: %v", got)
	for c, v := range want {
		g, ok := got[c]
		require.True(t, ok, "缺少槽位 %s", c)
		assert.True(t, v.Equal(g), "槽位 %s: want %s got %s", c, v, g)
	}
}

func TestMapAddressDerivesState(t *testing.T) {
	got := Map(contract.ExtractedFields{contract.JobAddress: "100 Main St NC"})
	assertRecord(t, contract.TargetRecord{
		contract.AddressSlot: contract.String("100 Main St NC"),
		contract.StateSlot:   contract.String("NC"),
	}, got)
}

func TestMapAddressWithoutState(t *testing.T) {
	got := Map(contract.ExtractedFields{contract.JobAddress: "100 Main Street, Raleigh"})
	assertRecord(t, contract.TargetRecord{
		contract.AddressSlot: contract.String("100 Main Street, Raleigh"),
	}, got)
}

func TestMapDates(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want contract.TargetValue
	}{
		{"月份全名", "January 5, 2024", contract.Date(2024, time.January, 5)},
		{"月份全名两位日", "March 15, 2023", contract.Date(2023, time.March, 15)},
		{"月份大小写不敏感", "january 5, 2024", contract.Date(2024, time.January, 5)},
		{"首尾空白", "  January 5, 2024  ", contract.Date(2024, time.January, 5)},
		{"日月年优先", "03/04/2024", contract.Date(2024, time.April, 3)},
		{"日月年单位数", "3/4/2024", contract.Date(2024, time.April, 3)},
		{"回退到月日年", "12/25/2024", contract.Date(2024, time.December, 25)},
		{"无法解析", "not a date", contract.Raw("not a date")},
		{"原样保留未修剪", " TBD ", contract.Raw(" TBD ")},
		{"缩写月份不支持", "Jan 5, 2024", contract.Raw("Jan 5, 2024")},
		{"ISO 不支持", "2024-01-05", contract.Raw("2024-01-05")},
		{"非法日期", "31/02/2024", contract.Raw("31/02/2024")},
		{"两位年份不支持", "03/04/24", contract.Raw("03/04/24")},
		{"公元零年不是日期", "01/01/0000", contract.Raw("01/01/0000")},
		{"公元零年月份全名", "January 1, 0000", contract.Raw("January 1, 0000")},
		{"公元一年", "01/01/0001", contract.Date(1, time.January, 1)},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(contract.ExtractedFields{contract.DateContractAwarded: tt.in})
			assertRecord(t, contract.TargetRecord{contract.DateAwardedSlot: tt.want}, got)
		})
	}
}

func TestRawIsTaggedDistinctly(t *testing.T) {
	got := Map(contract.ExtractedFields{contract.DateContractAwarded: "not a date"})
	v := got[contract.DateAwardedSlot]
	assert.Equal(t, contract.KindRaw, v.Kind())
	assert.False(t, v.Equal(contract.String("not a date")))
}

func TestMapIdentitySlots(t *testing.T) {
	got := Map(contract.ExtractedFields{
		contract.JobName:             "Acme Tower",
		contract.GcName:              "Smith Builders",
		contract.Architect:           "Studio K",
		contract.JobContractPrice:    "TBD",
		contract.RetainageOnContract: "5%",
	})
	assertRecord(t, contract.TargetRecord{
		contract.JobNameSlot:       contract.String("Acme Tower"),
		contract.GcNameSlot:        contract.String("Smith Builders"),
		contract.ArchitectSlot:     contract.String("Studio K"),
		contract.ContractPriceSlot: contract.String("TBD"),
		contract.RetainageSlot:     contract.String("5%"),
	}, got)
}

func TestMapEmpty(t *testing.T) {
	assert.Empty(t, Map(nil))
	assert.Empty(t, Map(contract.ExtractedFields{}))
	assert.Empty(t, Map(extract.Extract("")))
}

func TestStateCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"100 Main St NC", "NC", true},
		{"100 Main St, Raleigh, NC 27601", "NC", true},
		{"NE corner of 5th and Elm, Omaha NE", "NE", true},
		{"PO Box 12, Austin TX", "PO", true},
		{"100 Main St Raleigh", "", false},
		{"100 MAIN ST", "ST", true},
		{"Suite 4B, Durham", "", false},
		{"100NC", "", false},
		{"NC", "NC", true},
		{"(SC)", "SC", true},
		{"nc", "", false},
		{"", "", false},
		// 非 ASCII 字母与数字同样是词字符
		{"1 Calle DOÑA Ana, San Juan PR 00901", "PR", true},
		{"ÉTX 5 Rue Main, Reno NV", "NV", true},
		{"Ünit AZ", "AZ", true},
		{"²NC", "", false},
		{"NC 27601", "NC", true},
		{"A_NC", "", false},
	}
	for _, tt := range cases {
		got, ok := StateCode(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseDateOrder(t *testing.T) {
	require.Equal(t, []string{"month-name", "day-month-year", "month-day-year"}, []string{
		DateLayouts[0].Name, DateLayouts[1].Name, DateLayouts[2].Name,
	})
	_, ok := ParseDate("")
	assert.False(t, ok)
	_, ok = ParseDate("   ")
	assert.False(t, ok)
}

func TestExtractThenMap(t *testing.T) {
	text := "Job Name: Acme Tower\nJob Address: 100 Main St NC\nDate Contract Awarded: 03/04/2024\n"
	got := Map(extract.Extract(text))
	assertRecord(t, contract.TargetRecord{
		contract.JobNameSlot:     contract.String("Acme Tower"),
		contract.AddressSlot:     contract.String("100 Main St NC"),
		contract.StateSlot:       contract.String("NC"),
		contract.DateAwardedSlot: contract.Date(2024, time.April, 3),
	}, got)
}
