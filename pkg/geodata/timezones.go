package geodata

import (
	"context"
	"strings"

	"geodata/internal/docpath"
)

// GetTimezones：时区数据集根列表
func (c *Client) GetTimezones(ctx context.Context) ([]Timezone, error) {
	list, _, err := load[[]Timezone](ctx, c, docpath.Timezones())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Timezone{}
	}
	return list, nil
}

// GetTimezone：按 IANA 名称查找（不区分大小写），未知返回 (nil, nil)
func (c *Client) GetTimezone(ctx context.Context, zone string) (*Timezone, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		return nil, nil
	}
	list, err := c.GetTimezones(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].ZoneName, zone) {
			tz := list[i]
			return &tz, nil
		}
	}
	return nil, nil
}

// 文档注释：某国家的时区
// 背景：优先使用国家 meta 文档中的时区列表；meta 未列出时按 countryCode 过滤时区数据集。
// 约束：未知国家返回空切片。
func (c *Client) GetTimezonesOfCountry(ctx context.Context, cc string) ([]Timezone, error) {
	co, err := c.GetCountry(ctx, cc)
	if err != nil {
		return nil, err
	}
	if co == nil {
		return []Timezone{}, nil
	}
	if len(co.Timezones) > 0 {
		return co.Timezones, nil
	}
	all, err := c.GetTimezones(ctx)
	if err != nil {
		return nil, err
	}
	out := []Timezone{}
	for _, tz := range all {
		if strings.EqualFold(tz.CountryCode, co.ISO2) {
			out = append(out, tz)
		}
	}
	return out, nil
}
