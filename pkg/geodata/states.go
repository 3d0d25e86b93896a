package geodata

import (
	"context"
	"strings"

	"geodata/internal/docpath"
)

// GetStatesOfCountry：未知国家或无 states 文档时返回空切片；CountryCode 统一为规范代码
func (c *Client) GetStatesOfCountry(ctx context.Context, cc string) ([]State, error) {
	seg, ok, err := c.countrySegment(ctx, cc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []State{}, nil
	}
	list, _, err := load[[]State](ctx, c, docpath.Children(seg))
	if err != nil {
		return nil, err
	}
	code := docpath.CodeOf(seg)
	out := make([]State, len(list))
	for i, st := range list {
		st.CountryCode = code
		out[i] = st
	}
	return out, nil
}

// GetState：未知国家或州省返回 (nil, nil)
func (c *Client) GetState(ctx context.Context, cc, sc string) (*State, error) {
	sc = strings.TrimSpace(sc)
	if sc == "" {
		return nil, nil
	}
	list, err := c.GetStatesOfCountry(ctx, cc)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if strings.EqualFold(list[i].ISO2, sc) {
			st := list[i]
			return &st, nil
		}
	}
	return nil, nil
}

func (c *Client) StateExists(ctx context.Context, cc, sc string) (bool, error) {
	st, err := c.GetState(ctx, cc, sc)
	return st != nil, err
}

func (c *Client) GetStateName(ctx context.Context, cc, sc string) (string, error) {
	st, err := c.GetState(ctx, cc, sc)
	if err != nil || st == nil {
		return "", err
	}
	return st.Name, nil
}

// SearchStates：名称或代码包含 q；空白查询返回空切片
func (c *Client) SearchStates(ctx context.Context, cc, q string) ([]State, error) {
	q = normalizeQuery(q)
	if q == "" {
		return []State{}, nil
	}
	list, err := c.GetStatesOfCountry(ctx, cc)
	if err != nil {
		return nil, err
	}
	out := []State{}
	for _, st := range list {
		if contains(st.Name, q) || strings.EqualFold(st.ISO2, q) {
			out = append(out, st)
		}
	}
	return out, nil
}
