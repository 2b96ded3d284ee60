// coerce.go
package dataset

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// 千分位写法：1,234 / -12,345,678.9；"1,5" 这种逗号小数不匹配
var thousandsRe = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// stripThousands 只去掉千分位位置上的逗号，其他含逗号的写法视为无法解析
func stripThousands(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	if !thousandsRe.MatchString(s) {
		return s, false
	}
	return strings.ReplaceAll(s, ",", ""), true
}

// 视为缺失值的写法(pandas / Excel 导出常见)
var missingTokens = []string{"", "na", "n/a", "nan", "null", "none", "-", "#n/a"}

// isMissingToken 判断是否为缺失值写法
func isMissingToken(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range missingTokens {
		if s == t {
			return true
		}
	}
	return false
}

// parseNumber 解析数值单元格，容忍千分位逗号和百分号
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s, ok := stripThousands(s)
	if !ok {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}

// parseInteger 整数列允许 "1234.0" 这种整值浮点写法
func parseInteger(raw string) (int64, bool) {
	s, ok := stripThousands(strings.TrimSpace(raw))
	if !ok {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, ok := parseNumber(s)
	if !ok || f != math.Trunc(f) || math.IsNaN(f) {
		return 0, false
	}
	return int64(f), true
}

// ParseList 解析列表单元格
// 支持 "AA, DL" / "AA;DL" / "['AA', 'DL']" / "AA|DL"
func ParseList(raw string) []string {
	s := strings.TrimSpace(raw)
	if isMissingToken(s) {
		return nil
	}
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	sep := ","
	for _, c := range []string{";", "|"} {
		if !strings.Contains(s, ",") && strings.Contains(s, c) {
			sep = c
		}
	}

	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.Trim(strings.TrimSpace(part), `'"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseMap 解析映射单元格
// 支持 JSON 对象、Python dict 写法 "{'weather': 10}" 以及 "weather=10;carrier=5"
func ParseMap(raw string) (map[string]float64, bool) {
	s := strings.TrimSpace(raw)
	if isMissingToken(s) {
		return map[string]float64{}, true
	}

	if strings.HasPrefix(s, "{") {
		var m map[string]float64
		if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &m); err == nil {
			return m, true
		}
		s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	}

	out := make(map[string]float64)
	sep := ";"
	if !strings.Contains(s, ";") {
		sep = ","
	}
	for _, pair := range strings.Split(s, sep) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexAny(pair, "=:")
		if idx < 0 {
			return nil, false
		}
		key := strings.Trim(strings.TrimSpace(pair[:idx]), `'"`)
		val, ok := parseNumber(strings.Trim(strings.TrimSpace(pair[idx+1:]), `'"`))
		if !ok || key == "" {
			return nil, false
		}
		out[key] = val
	}
	return out, true
}
