package model

import "fmt"

// 分类标签：固定封闭集合，共49个（21个布尔/枚举分类 + 28个和值桶 "00"~"27"）。
// 遗漏表与日统计表均以这些标签为键，新增分类属于破坏性变更。
const (
	CatBig          = "big"
	CatSmall        = "small"
	CatOdd          = "odd"
	CatEven         = "even"
	CatExtremeBig   = "extreme_big"
	CatExtremeSmall = "extreme_small"
	CatBigOdd       = "big-odd"
	CatSmallOdd     = "small-odd"
	CatBigEven      = "big-even"
	CatSmallEven    = "small-even"
	CatTriple       = "triple"
	CatPair         = "pair"
	CatStraight     = "straight"
	CatMisc         = "misc"
	CatSmallEdge    = "small_edge"
	CatMiddle       = "middle"
	CatBigEdge      = "big_edge"
	CatEdge         = "edge"
	CatDragon       = "dragon"
	CatTiger        = "tiger"
	CatTie          = "tie"
)

// SumCategory 和值桶标签，两位零填充："00"~"27"
func SumCategory(sum int) string {
	return fmt.Sprintf("%02d", sum)
}

// AllCategories 返回全部49个分类标签（顺序固定，便于批量建表与断言）
func AllCategories() []string {
	cats := []string{
		CatBig, CatSmall, CatOdd, CatEven,
		CatExtremeBig, CatExtremeSmall,
		CatBigOdd, CatSmallOdd, CatBigEven, CatSmallEven,
		CatTriple, CatPair, CatStraight, CatMisc,
		CatSmallEdge, CatMiddle, CatBigEdge, CatEdge,
		CatDragon, CatTiger, CatTie,
	}
	for s := 0; s <= 27; s++ {
		cats = append(cats, SumCategory(s))
	}
	return cats
}
