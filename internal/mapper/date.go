package mapper

import (
	"strings"
	"time"
)

// DateLayout: 一个候选日期格式。
type DateLayout struct {
	Name   string
	Layout string
}

// DateLayouts 为按优先级排列的候选格式，首个成功者胜出。
// 日/月/年先于月/日/年：03/04/2024 解析为 4 月 3 日。
// 该顺序与表格 mm/dd/yyyy 的呈现存在出入，保持现状待业务确认。
var DateLayouts = []DateLayout{
	{Name: "month-name", Layout: "January 2, 2006"},
	{Name: "day-month-year", Layout: "2/1/2006"},
	{Name: "month-day-year", Layout: "1/2/2006"},
}

// ParseDate 去除首尾空白后依次尝试 DateLayouts。
func ParseDate(s string) (time.Time, bool) {
	return parseWith(DateLayouts, s)
}

func parseWith(layouts []DateLayout, s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range layouts {
		t, err := time.Parse(l.Layout, s)
		if err != nil {
			continue
		}
		// 年份下限为 1；0000 年按无法解析处理
		if t.Year() < 1 {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
