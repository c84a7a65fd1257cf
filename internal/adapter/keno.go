package adapter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"DrawSync/internal/model"
)

// ParserKeno 基诺降位源解析器标识
const ParserKeno = "keno"

func init() {
	RegisterParser(ParserKeno, ParseKeno)
}

// 降位取数的下标组（0-based），三位分别对各自下标组求和后取模10
var kenoIndexGroups = [3][6]int{
	{1, 4, 7, 10, 13, 16},
	{2, 5, 8, 11, 14, 17},
	{3, 6, 9, 12, 15, 18},
}

type kenoRecord struct {
	DrawNbr  json.Number `json:"drawNbr"`
	DrawDate string      `json:"drawDate"` // "Mon D, YYYY"
	DrawTime string      `json:"drawTime"` // "HH:MM:SS AM/PM"
	DrawNbrs []int       `json:"drawNbrs"`
}

// ParseKeno 基诺源解析器：取数组首元素，对20个号码按固定下标组降位，
// 日期时间按 +08:00 墙钟解析。
func ParseKeno(body []byte) (*model.RawDraw, error) {
	var records []kenoRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("基诺响应体解析失败: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	rec := records[0]
	if len(rec.DrawNbrs) < 20 {
		return nil, fmt.Errorf("基诺号码应为20个，实际%d个", len(rec.DrawNbrs))
	}

	issueNum, err := strconv.ParseInt(rec.DrawNbr.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("基诺期号%q非法: %w", rec.DrawNbr.String(), err)
	}

	var digits [3]int
	for i, group := range kenoIndexGroups {
		total := 0
		for _, idx := range group {
			total += rec.DrawNbrs[idx]
		}
		digits[i] = total % 10
	}

	openTime, err := time.ParseInLocation("Jan 2, 2006 3:04:05 PM", rec.DrawDate+" "+rec.DrawTime, model.CSTZone)
	if err != nil {
		return nil, fmt.Errorf("基诺开奖时间%q %q解析失败: %w", rec.DrawDate, rec.DrawTime, err)
	}

	return &model.RawDraw{
		Issue:    fmt.Sprintf("%07d", issueNum),
		OpenTime: openTime.Format("2006-01-02 15:04:05"),
		OpenNums: fmt.Sprintf("%d+%d+%d", digits[0], digits[1], digits[2]),
		Sum:      digits[0] + digits[1] + digits[2],
	}, nil
}
