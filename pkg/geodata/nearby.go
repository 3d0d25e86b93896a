package geodata

import (
	"context"
	"math"
	"sort"

	"github.com/golang/geo/s2"
)

// earthRadiusKm：IUGG 平均地球半径
const earthRadiusKm = 6371.0088

// 文档注释：某州省内距离给定坐标最近的城市
// 背景：按大圆距离（S2 球面角）排序；只在一个 cities 文档内计算，不引入新的解析逻辑。
// 约束：坐标非有限或超出范围返回 ErrInvalidCoordinate；radiusKm<=0 表示不限距离。
func (c *Client) NearbyCities(ctx context.Context, cc, sc string, lat, lng, radiusKm float64) ([]CityDistance, error) {
	if !validCoordinate(lat, lng) {
		return nil, ErrInvalidCoordinate
	}
	list, err := c.GetCitiesOfState(ctx, cc, sc)
	if err != nil {
		return nil, err
	}
	origin := s2.LatLngFromDegrees(lat, lng)
	out := []CityDistance{}
	for _, ci := range list {
		ll := s2.LatLngFromDegrees(float64(ci.Latitude), float64(ci.Longitude))
		km := float64(origin.Distance(ll)) * earthRadiusKm
		if radiusKm > 0 && km > radiusKm {
			continue
		}
		out = append(out, CityDistance{City: ci, DistanceKm: km})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].City.ID < out[j].City.ID
	})
	return out, nil
}

func validCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
