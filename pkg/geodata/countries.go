package geodata

import (
	"context"
	"strings"

	"geodata/internal/docpath"
)

// GetCountries：根列表；文档缺失时返回空切片
func (c *Client) GetCountries(ctx context.Context) ([]Country, error) {
	list, _, err := load[[]Country](ctx, c, docpath.Countries())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Country{}
	}
	return list, nil
}

// 文档注释：按 ISO2 获取完整国家记录
// 背景：meta 文档含时区与译名；国家在根列表中存在但 meta 缺失时退回列表中的扁平记录。
// 约束：未知代码返回 (nil, nil)；ISO2 统一为段名中的规范代码。
func (c *Client) GetCountry(ctx context.Context, cc string) (*Country, error) {
	seg, ok, err := c.countrySegment(ctx, cc)
	if err != nil || !ok {
		return nil, err
	}
	code := docpath.CodeOf(seg)
	co, found, err := load[Country](ctx, c, docpath.Meta(seg))
	if err != nil {
		return nil, err
	}
	if !found {
		list, err := c.GetCountries(ctx)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if strings.EqualFold(list[i].ISO2, code) {
				co = list[i]
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}
	co.ISO2 = code
	for i := range co.Timezones {
		if co.Timezones[i].CountryCode == "" {
			co.Timezones[i].CountryCode = code
		}
	}
	return &co, nil
}

func (c *Client) CountryExists(ctx context.Context, cc string) (bool, error) {
	_, ok, err := c.findCountry(ctx, cc)
	return ok, err
}

// GetCountryName：未知代码返回空串
func (c *Client) GetCountryName(ctx context.Context, cc string) (string, error) {
	co, _, err := c.findCountry(ctx, cc)
	if err != nil {
		return "", err
	}
	return co.Name, nil
}

func (c *Client) findCountry(ctx context.Context, cc string) (Country, bool, error) {
	cc = strings.TrimSpace(cc)
	if cc == "" {
		return Country{}, false, nil
	}
	list, err := c.GetCountries(ctx)
	if err != nil {
		return Country{}, false, err
	}
	for _, co := range list {
		if strings.EqualFold(co.ISO2, cc) {
			return co, true, nil
		}
	}
	return Country{}, false, nil
}

// SearchCountries：名称、本地名或 ISO2/ISO3 包含 q（不区分大小写）；空白查询返回空切片
func (c *Client) SearchCountries(ctx context.Context, q string) ([]Country, error) {
	q = normalizeQuery(q)
	if q == "" {
		return []Country{}, nil
	}
	list, err := c.GetCountries(ctx)
	if err != nil {
		return nil, err
	}
	out := []Country{}
	for _, co := range list {
		if contains(co.Name, q) || contains(co.Native, q) || strings.EqualFold(co.ISO2, q) || strings.EqualFold(co.ISO3, q) {
			out = append(out, co)
		}
	}
	return out, nil
}

// GetCountryByPhoneCode：忽略前导 + 与空白，可能多国共用同一区号
func (c *Client) GetCountryByPhoneCode(ctx context.Context, phone string) ([]Country, error) {
	want := normalizePhone(phone)
	if want == "" {
		return []Country{}, nil
	}
	list, err := c.GetCountries(ctx)
	if err != nil {
		return nil, err
	}
	out := []Country{}
	for _, co := range list {
		if phoneMatches(co.PhoneCode, want) {
			out = append(out, co)
		}
	}
	return out, nil
}

func (c *Client) GetCountriesByRegion(ctx context.Context, region string) ([]Country, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return []Country{}, nil
	}
	list, err := c.GetCountries(ctx)
	if err != nil {
		return nil, err
	}
	out := []Country{}
	for _, co := range list {
		if strings.EqualFold(co.Region, region) || strings.EqualFold(co.Subregion, region) {
			out = append(out, co)
		}
	}
	return out, nil
}

func normalizeQuery(q string) string { return strings.ToLower(strings.TrimSpace(q)) }

func contains(s, lowerQ string) bool { return strings.Contains(strings.ToLower(s), lowerQ) }

// phoneMatches：部分国家列出多个区号，以逗号、斜杠或 "and" 分隔
func phoneMatches(codes, want string) bool {
	for _, p := range strings.FieldsFunc(codes, func(r rune) bool { return r == ',' || r == '/' }) {
		for _, part := range strings.Split(p, " and ") {
			if normalizePhone(part) == want {
				return true
			}
		}
	}
	return false
}

func normalizePhone(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "+")
	return strings.ReplaceAll(strings.ReplaceAll(p, "-", ""), " ", "")
}
