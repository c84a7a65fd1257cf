package enrich

import (
	"DrawSync/internal/model"
)

// Enrich 由 OpenNums/Sum 一次性推导19个派生字段。纯函数，仅在入库前调用一次，
// 之后所有读路径直接使用持久化结果，不再重算。
func Enrich(d *model.Draw) {
	a, b, c := d.Digits()
	sum := d.Sum

	d.IsBig = sum >= 14
	d.IsSmall = sum <= 13
	d.IsOdd = sum%2 == 1
	d.IsEven = sum%2 == 0
	d.IsExtremeBig = sum >= 22
	d.IsExtremeSmall = sum <= 5
	d.Combination = combination(d.IsBig, d.IsOdd)

	d.IsTriple, d.IsPair, d.IsStraight, d.IsMisc = classifyForm(a, b, c)

	d.IsSmallEdge = sum <= 9
	d.IsMiddle = sum >= 10 && sum <= 17
	d.IsBigEdge = sum >= 18
	d.IsEdge = d.IsSmallEdge || d.IsBigEdge

	d.IsDragon = a > c
	d.IsTiger = a < c
	d.IsTie = a == c
}

func combination(big, odd bool) string {
	switch {
	case big && odd:
		return model.CatBigOdd
	case !big && odd:
		return model.CatSmallOdd
	case big && !odd:
		return model.CatBigEven
	default:
		return model.CatSmallEven
	}
}

// classifyForm 形态四分类：豹子/对子/顺子/杂六，对1000种号码组合互斥且完备。
// 顺子指排序后三位严格连续（不含 9-0-1 回绕）。
func classifyForm(a, b, c int) (triple, pair, straight, misc bool) {
	if a == b && b == c {
		return true, false, false, false
	}
	if a == b || b == c || a == c {
		return false, true, false, false
	}
	lo, mid, hi := sort3(a, b, c)
	if mid == lo+1 && hi == mid+1 {
		return false, false, true, false
	}
	return false, false, false, true
}

func sort3(a, b, c int) (lo, mid, hi int) {
	lo, mid, hi = a, b, c
	if lo > mid {
		lo, mid = mid, lo
	}
	if mid > hi {
		mid, hi = hi, mid
	}
	if lo > mid {
		lo, mid = mid, lo
	}
	return
}

// Categories 返回该期命中的分类集合 H（互斥组各取一 + 条件标志 + 和值桶）。
// 遗漏引擎与日统计引擎共用此口径。
func Categories(d *model.Draw) []string {
	cats := make([]string, 0, 10)

	if d.IsBig {
		cats = append(cats, model.CatBig)
	} else {
		cats = append(cats, model.CatSmall)
	}
	if d.IsOdd {
		cats = append(cats, model.CatOdd)
	} else {
		cats = append(cats, model.CatEven)
	}
	if d.IsExtremeBig {
		cats = append(cats, model.CatExtremeBig)
	}
	if d.IsExtremeSmall {
		cats = append(cats, model.CatExtremeSmall)
	}
	cats = append(cats, d.Combination)

	switch {
	case d.IsTriple:
		cats = append(cats, model.CatTriple)
	case d.IsPair:
		cats = append(cats, model.CatPair)
	case d.IsStraight:
		cats = append(cats, model.CatStraight)
	default:
		cats = append(cats, model.CatMisc)
	}

	switch {
	case d.IsSmallEdge:
		cats = append(cats, model.CatSmallEdge)
	case d.IsMiddle:
		cats = append(cats, model.CatMiddle)
	default:
		cats = append(cats, model.CatBigEdge)
	}
	if d.IsEdge {
		cats = append(cats, model.CatEdge)
	}

	switch {
	case d.IsDragon:
		cats = append(cats, model.CatDragon)
	case d.IsTiger:
		cats = append(cats, model.CatTiger)
	default:
		cats = append(cats, model.CatTie)
	}

	cats = append(cats, model.SumCategory(d.Sum))
	return cats
}
