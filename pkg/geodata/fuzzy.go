package geodata

import (
	"context"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	// maxFuzzyDistance 限制编辑距离，过大时几乎所有短名称都会命中
	maxFuzzyDistance = 3
	// maxFuzzyInputLen 截断过长输入，编辑距离计算为 O(n*m)
	maxFuzzyInputLen = 256
)

// 文档注释：按编辑距离模糊匹配城市名
// 背景：用于容忍拼写错误（"Los Angelos"）；仍只是对城市列表的内存过滤。
// 约束：maxDist 截断到 [0,3]，0 表示不区分大小写的精确匹配；结果按距离升序，距离相同按名称。
func (c *Client) FuzzySearchCities(ctx context.Context, cc, sc, q string, maxDist int) ([]CityMatch, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []CityMatch{}, nil
	}
	if r := []rune(q); len(r) > maxFuzzyInputLen {
		q = string(r[:maxFuzzyInputLen])
	}
	maxDist = min(max(maxDist, 0), maxFuzzyDistance)
	list, err := c.GetCitiesOfState(ctx, cc, sc)
	if err != nil {
		return nil, err
	}
	lq := strings.ToLower(q)
	out := []CityMatch{}
	for _, ci := range list {
		d := 0
		if maxDist == 0 {
			if !strings.EqualFold(ci.Name, q) {
				continue
			}
		} else {
			d = levenshtein.ComputeDistance(lq, strings.ToLower(ci.Name))
			if d > maxDist {
				continue
			}
		}
		out = append(out, CityMatch{City: ci, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].City.Name < out[j].City.Name
	})
	return out, nil
}
