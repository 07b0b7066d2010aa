package mapper

import "unicode"

// StateCode 从地址中取首个独立的两字母 ASCII 大写词元。
// 词元两侧不得紧邻词字符（任意字母、数字或 '_'），因此 "DOÑA" 中的 DO 不算。
// "NE corner ... NC" 会得到 NE：已知的启发式局限，不以州名单校验。
func StateCode(address string) (string, bool) {
	rs := []rune(address)
	for i := 0; i+1 < len(rs); i++ {
		if !isASCIIUpper(rs[i]) || !isASCIIUpper(rs[i+1]) {
			continue
		}
		if i > 0 && isWordRune(rs[i-1]) {
			continue
		}
		if i+2 < len(rs) && isWordRune(rs[i+2]) {
			continue
		}
		return string(rs[i : i+2]), true
	}
	return "", false
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
