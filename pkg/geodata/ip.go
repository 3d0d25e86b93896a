package geodata

import (
	"context"
	"errors"

	"geodata/internal/geoip"
)

// CountryByIP：GeoIP 国家代码 → GetCountry；库中无记录返回 (nil, nil)
func (c *Client) CountryByIP(ctx context.Context, ip string) (*Country, error) {
	if c.geo == nil {
		return nil, ErrGeoIPUnavailable
	}
	cc, err := c.geo.CountryCode(ip)
	if err != nil {
		if errors.Is(err, geoip.ErrNoRecord) {
			return nil, nil
		}
		return nil, err
	}
	return c.GetCountry(ctx, cc)
}
