package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"DrawSync/internal/model"
)

// ParserUniversal 通用表格型和值源解析器标识
const ParserUniversal = "universal"

func init() {
	RegisterParser(ParserUniversal, ParseUniversal)
}

// 字段名对照表：不同源对同一字段的命名差异在此抹平
var (
	issueFields = []string{"qihao", "issue", "expect", "period", "issueNo", "issue_no"}
	timeFields  = []string{"opentime", "open_time", "openTime", "time", "drawTime", "kjtime"}
	numsFields  = []string{"opennum", "open_nums", "openNum", "opencode", "openCode", "number", "nums"}
	sumFields   = []string{"sum", "total", "he"}
)

// ParseUniversal 通用解析器：容忍多种容器形态与字段命名。
// 容器：顶层对象 / data|result|list|items 数组（取首元素）/ 顶层数组（取首元素）。
// 号码串形态 a+b+c、a,b,c、a b c、abc 均归一为 a+b+c；缺少sum时由号码计算。
func ParseUniversal(body []byte) (*model.RawDraw, error) {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("响应体不是合法JSON: %w", err)
	}

	record, ok := pickRecord(root)
	if !ok {
		return nil, nil
	}

	issue, ok := pickString(record, issueFields)
	if !ok {
		return nil, nil
	}
	openTime, _ := pickString(record, timeFields)
	rawNums, ok := pickString(record, numsFields)
	if !ok {
		return nil, nil
	}

	nums, digits, err := NormalizeNums(rawNums)
	if err != nil {
		return nil, fmt.Errorf("号码串%q无法归一: %w", rawNums, err)
	}

	sum := digits[0] + digits[1] + digits[2]
	if declared, ok := pickInt(record, sumFields); ok {
		sum = declared
	}

	return &model.RawDraw{
		Issue:    issue,
		OpenTime: openTime,
		OpenNums: nums,
		Sum:      sum,
	}, nil
}

// pickRecord 从容器中取出单条记录对象
func pickRecord(root interface{}) (map[string]interface{}, bool) {
	switch v := root.(type) {
	case []interface{}:
		if len(v) == 0 {
			return nil, false
		}
		m, ok := v[0].(map[string]interface{})
		return m, ok
	case map[string]interface{}:
		for _, container := range []string{"data", "result", "list", "items"} {
			inner, ok := v[container]
			if !ok {
				continue
			}
			switch iv := inner.(type) {
			case []interface{}:
				if len(iv) == 0 {
					return nil, false
				}
				m, ok := iv[0].(map[string]interface{})
				return m, ok
			case map[string]interface{}:
				return iv, true
			}
		}
		return v, true
	default:
		return nil, false
	}
}

func pickString(record map[string]interface{}, names []string) (string, bool) {
	for _, name := range names {
		v, ok := record[name]
		if !ok {
			continue
		}
		switch sv := v.(type) {
		case string:
			if strings.TrimSpace(sv) != "" {
				return strings.TrimSpace(sv), true
			}
		case float64:
			return strconv.FormatInt(int64(sv), 10), true
		}
	}
	return "", false
}

func pickInt(record map[string]interface{}, names []string) (int, bool) {
	for _, name := range names {
		v, ok := record[name]
		if !ok {
			continue
		}
		switch sv := v.(type) {
		case float64:
			return int(sv), true
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(sv)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// NormalizeNums 号码串归一：接受 a+b+c / a,b,c / a b c / abc 四种形态，
// 每位必须是0~9的单个数字，输出规范形式 a+b+c 与三位数字。
func NormalizeNums(raw string) (string, [3]int, error) {
	var digits [3]int
	s := strings.TrimSpace(raw)

	var parts []string
	switch {
	case strings.Contains(s, "+"):
		parts = strings.Split(s, "+")
	case strings.Contains(s, ","):
		parts = strings.Split(s, ",")
	case strings.Contains(s, " "):
		parts = strings.Fields(s)
	default:
		if len(s) != 3 {
			return "", digits, fmt.Errorf("紧凑形态应为3位数字，实际%d位", len(s))
		}
		parts = []string{s[0:1], s[1:2], s[2:3]}
	}

	if len(parts) != 3 {
		return "", digits, fmt.Errorf("应为3段，实际%d段", len(parts))
	}
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) != 1 || p[0] < '0' || p[0] > '9' {
			return "", digits, fmt.Errorf("第%d位%q不是0~9的单个数字", i+1, p)
		}
		digits[i] = int(p[0] - '0')
	}
	return fmt.Sprintf("%d+%d+%d", digits[0], digits[1], digits[2]), digits, nil
}
