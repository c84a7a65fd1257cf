package adapter

import (
	"fmt"
	"time"

	"DrawSync/internal/model"
)

// Parser 采集源响应解析函数。必须是纯函数：接收响应体，
// 返回原始开奖记录；(nil, nil) 表示本轮无记录（静默跳过）。
type Parser func(body []byte) (*model.RawDraw, error)

// Source 采集源描述
type Source struct {
	Name     string            // 源名称（落库到 draws.source）
	URL      string            // 拉取地址
	Interval time.Duration     // 轮询间隔，实际取值钳制在 500ms~2s
	ParserID string            // 解析器标识（universal / keno）
	SkipTLS  bool              // 跳过证书校验
	Headers  map[string]string // 自定义请求头
}

// ========== 解析器注册表（各解析器在init中注册） ==========
var parserRegistry = make(map[string]Parser)

// RegisterParser 注册解析器。重复注册视为编码错误，直接panic。
func RegisterParser(id string, p Parser) {
	if p == nil {
		panic(fmt.Sprintf("解析器%s不能为nil", id))
	}
	if _, exists := parserRegistry[id]; exists {
		panic(fmt.Sprintf("解析器%s重复注册", id))
	}
	parserRegistry[id] = p
}

// GetParser 按标识获取解析器
func GetParser(id string) (Parser, bool) {
	p, ok := parserRegistry[id]
	return p, ok
}
