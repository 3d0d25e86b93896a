package geodata

import (
	"context"
	"strings"

	"geodata/internal/docpath"
)

// 文档注释：某州省的全部城市
// 约束：未知国家/州省或缺少 cities 文档时返回空切片；
// 每条记录的 CountryCode/StateCode 改写为请求所用的规范代码。
func (c *Client) GetCitiesOfState(ctx context.Context, cc, sc string) ([]City, error) {
	cseg, sseg, ok, err := c.stateSegments(ctx, cc, sc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []City{}, nil
	}
	list, _, err := load[[]City](ctx, c, docpath.Children(cseg, sseg))
	if err != nil {
		return nil, err
	}
	ccode, scode := docpath.CodeOf(cseg), docpath.CodeOf(sseg)
	out := make([]City, len(list))
	for i, ci := range list {
		ci.CountryCode, ci.StateCode = ccode, scode
		out[i] = ci
	}
	return out, nil
}

// GetCity：按数值 id 查找；不存在返回 (nil, nil)
func (c *Client) GetCity(ctx context.Context, cc, sc string, id int) (*City, error) {
	list, err := c.GetCitiesOfState(ctx, cc, sc)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			ci := list[i]
			return &ci, nil
		}
	}
	return nil, nil
}

// CityExists：按名称精确匹配（不区分大小写）
func (c *Client) CityExists(ctx context.Context, cc, sc, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	list, err := c.GetCitiesOfState(ctx, cc, sc)
	if err != nil {
		return false, err
	}
	for _, ci := range list {
		if strings.EqualFold(ci.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) SearchCities(ctx context.Context, cc, sc, q string) ([]City, error) {
	q = normalizeQuery(q)
	if q == "" {
		return []City{}, nil
	}
	list, err := c.GetCitiesOfState(ctx, cc, sc)
	if err != nil {
		return nil, err
	}
	out := []City{}
	for _, ci := range list {
		if contains(ci.Name, q) {
			out = append(out, ci)
		}
	}
	return out, nil
}
