package service

import (
	"fmt"
	"regexp"
	"time"

	"DrawSync/internal/model"
)

var (
	issuePattern = regexp.MustCompile(`^\d{7}$`)
	numsPattern  = regexp.MustCompile(`^\d\+\d\+\d$`)
)

// validateRaw 入库前校验：期号7位数字、号码文法、时间可解析、和值一致。
// 任一违例中止处理（调用方记WARN后丢弃）。返回解析出的开奖时刻。
func validateRaw(raw model.RawDraw, now time.Time) (time.Time, error) {
	if !issuePattern.MatchString(raw.Issue) {
		return time.Time{}, fmt.Errorf("期号%q不是7位数字", raw.Issue)
	}
	if !numsPattern.MatchString(raw.OpenNums) {
		return time.Time{}, fmt.Errorf("号码%q不符合 a+b+c 文法", raw.OpenNums)
	}

	a := int(raw.OpenNums[0] - '0')
	b := int(raw.OpenNums[2] - '0')
	c := int(raw.OpenNums[4] - '0')
	if a+b+c != raw.Sum {
		return time.Time{}, fmt.Errorf("和值不一致：号码%s合计%d，声明%d", raw.OpenNums, a+b+c, raw.Sum)
	}

	openTime, err := parseOpenTime(raw.OpenTime, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("开奖时间%q解析失败: %w", raw.OpenTime, err)
	}
	return openTime, nil
}

// parseOpenTime 源端时间串按 +08:00 解析。
// 接受 "2006-01-02 15:04:05"；缺年份形态 "01-02 15:04:05" 补当前年。
func parseOpenTime(s string, now time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, model.CSTZone); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("01-02 15:04:05", s, model.CSTZone)
	if err != nil {
		return time.Time{}, err
	}
	year := now.In(model.CSTZone).Year()
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, model.CSTZone), nil
}
