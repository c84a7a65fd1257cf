package enrich

import (
	"fmt"
	"testing"

	"DrawSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkDraw(a, b, c int) *model.Draw {
	return &model.Draw{
		OpenNums: fmt.Sprintf("%d+%d+%d", a, b, c),
		Sum:      a + b + c,
	}
}

func TestEnrichScenarioBigEven(t *testing.T) {
	// "3+5+8" 和值16：大/双/大双/中数/虎/杂六
	d := mkDraw(3, 5, 8)
	Enrich(d)

	assert.True(t, d.IsBig)
	assert.False(t, d.IsSmall)
	assert.True(t, d.IsEven)
	assert.False(t, d.IsOdd)
	assert.Equal(t, model.CatBigEven, d.Combination)
	assert.False(t, d.IsTriple)
	assert.False(t, d.IsPair)
	assert.False(t, d.IsStraight)
	assert.True(t, d.IsMisc)
	assert.True(t, d.IsMiddle)
	assert.False(t, d.IsSmallEdge)
	assert.False(t, d.IsBigEdge)
	assert.False(t, d.IsEdge)
	assert.False(t, d.IsDragon)
	assert.True(t, d.IsTiger)
	assert.False(t, d.IsTie)
	assert.False(t, d.IsExtremeBig)
	assert.False(t, d.IsExtremeSmall)
}

// 互斥与覆盖：每个互斥组恰好命中一个，对全部1000种组合成立
func TestEnrichMutualExclusion(t *testing.T) {
	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				d := mkDraw(a, b, c)
				Enrich(d)

				assert.NotEqual(t, d.IsBig, d.IsSmall, "big/small %s", d.OpenNums)
				assert.NotEqual(t, d.IsOdd, d.IsEven, "odd/even %s", d.OpenNums)

				forms := 0
				for _, f := range []bool{d.IsTriple, d.IsPair, d.IsStraight, d.IsMisc} {
					if f {
						forms++
					}
				}
				assert.Equal(t, 1, forms, "形态四分类应互斥 %s", d.OpenNums)

				zones := 0
				for _, z := range []bool{d.IsSmallEdge, d.IsMiddle, d.IsBigEdge} {
					if z {
						zones++
					}
				}
				assert.Equal(t, 1, zones, "区段三分类应互斥 %s", d.OpenNums)

				dt := 0
				for _, z := range []bool{d.IsDragon, d.IsTiger, d.IsTie} {
					if z {
						dt++
					}
				}
				assert.Equal(t, 1, dt, "龙虎和应互斥 %s", d.OpenNums)

				assert.Equal(t, d.IsSmallEdge || d.IsBigEdge, d.IsEdge)
			}
		}
	}
}

// 形态四分类的组合计数：豹子10、对子270、顺子48、杂六672
func TestFormClassCounts(t *testing.T) {
	var triples, pairs, straights, miscs int
	for a := 0; a <= 9; a++ {
		for b := 0; b <= 9; b++ {
			for c := 0; c <= 9; c++ {
				tr, pa, st, mi := classifyForm(a, b, c)
				switch {
				case tr:
					triples++
				case pa:
					pairs++
				case st:
					straights++
				case mi:
					miscs++
				}
			}
		}
	}
	assert.Equal(t, 10, triples)
	assert.Equal(t, 270, pairs)
	assert.Equal(t, 48, straights)
	assert.Equal(t, 672, miscs)
}

func TestEnrichExtremes(t *testing.T) {
	d := mkDraw(0, 0, 0)
	Enrich(d)
	assert.True(t, d.IsExtremeSmall)
	assert.False(t, d.IsExtremeBig)
	assert.True(t, d.IsSmallEdge)
	assert.True(t, d.IsEdge)
	assert.True(t, d.IsTriple)
	assert.True(t, d.IsTie)

	d = mkDraw(9, 9, 9)
	Enrich(d)
	assert.True(t, d.IsExtremeBig)
	assert.False(t, d.IsExtremeSmall)
	assert.True(t, d.IsBigEdge)
	assert.True(t, d.IsEdge)
	assert.True(t, d.IsTriple)
}

func TestCategoriesScenario(t *testing.T) {
	d := mkDraw(3, 5, 8)
	Enrich(d)
	cats := Categories(d)

	expected := []string{
		model.CatBig, model.CatEven, model.CatBigEven,
		model.CatMisc, model.CatMiddle, model.CatTiger, "16",
	}
	assert.ElementsMatch(t, expected, cats)
}

func TestCategoriesAreSubsetOfClosedSet(t *testing.T) {
	all := make(map[string]bool)
	for _, c := range model.AllCategories() {
		all[c] = true
	}
	require.Len(t, all, 49)

	for a := 0; a <= 9; a++ {
		for c := 0; c <= 9; c++ {
			d := mkDraw(a, 4, c)
			Enrich(d)
			for _, cat := range Categories(d) {
				assert.True(t, all[cat], "未知分类 %s (%s)", cat, d.OpenNums)
			}
		}
	}
}

func TestStraightNoWrap(t *testing.T) {
	// 8,9,0 不回绕成顺子
	_, _, st, mi := classifyForm(8, 9, 0)
	assert.False(t, st)
	assert.True(t, mi)

	_, _, st, _ = classifyForm(9, 7, 8)
	assert.True(t, st)
}
