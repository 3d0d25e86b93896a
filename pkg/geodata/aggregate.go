package geodata

import (
	"context"

	"golang.org/x/sync/errgroup"

	"geodata/internal/logger"
)

type stateRef struct{ cc, sc string }

// 文档注释：某国家全部城市
// 背景：按州省扇出 GetCitiesOfState，并发数受 MaxConcurrency 限制，避免同时打开大量文件或连接。
// 约束：输出顺序与州省列表顺序一致；任一非 NotFound 错误中止并返回。
func (c *Client) GetCitiesOfCountry(ctx context.Context, cc string) ([]City, error) {
	states, err := c.GetStatesOfCountry(ctx, cc)
	if err != nil {
		return nil, err
	}
	refs := make([]stateRef, len(states))
	for i, st := range states {
		refs[i] = stateRef{cc: st.CountryCode, sc: st.ISO2}
	}
	return c.citiesOf(ctx, refs)
}

// 文档注释：全部城市
// 背景：先按国家扇出获取州省，再把（国家, 州省）对展平后统一扇出，两级共用同一并发上限，
// 不会出现嵌套扇出导致的并发数相乘。
func (c *Client) GetAllCities(ctx context.Context) ([]City, error) {
	countries, err := c.GetCountries(ctx)
	if err != nil {
		return nil, err
	}
	perCountry := make([][]State, len(countries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, co := range countries {
		g.Go(func() error {
			states, err := c.GetStatesOfCountry(gctx, co.ISO2)
			if err != nil {
				return err
			}
			perCountry[i] = states
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var refs []stateRef
	for _, states := range perCountry {
		for _, st := range states {
			refs = append(refs, stateRef{cc: st.CountryCode, sc: st.ISO2})
		}
	}
	logger.L().Debug("all_cities_fanout", "countries", len(countries), "states", len(refs), "limit", c.cfg.MaxConcurrency)
	return c.citiesOf(ctx, refs)
}

func (c *Client) citiesOf(ctx context.Context, refs []stateRef) ([]City, error) {
	parts := make([][]City, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxConcurrency)
	for i, r := range refs {
		g.Go(func() error {
			cities, err := c.GetCitiesOfState(gctx, r.cc, r.sc)
			if err != nil {
				return err
			}
			parts[i] = cities
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]City, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}
