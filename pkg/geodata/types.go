package geodata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Coordinate：经纬度数值；上游文档中既有数字也有字符串形式，两者都接受
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*c = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*c = Coordinate(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Coordinate(v)
	return nil
}

// Country：根列表只含扁平字段；meta 文档补充 Timezones 与 Translations
type Country struct {
	ID             int               `json:"id"`
	Name           string            `json:"name"`
	ISO2           string            `json:"iso2"`
	ISO3           string            `json:"iso3,omitempty"`
	NumericCode    string            `json:"numeric_code,omitempty"`
	PhoneCode      string            `json:"phonecode,omitempty"`
	Capital        string            `json:"capital,omitempty"`
	Currency       string            `json:"currency,omitempty"`
	CurrencyName   string            `json:"currency_name,omitempty"`
	CurrencySymbol string            `json:"currency_symbol,omitempty"`
	TLD            string            `json:"tld,omitempty"`
	Native         string            `json:"native,omitempty"`
	Region         string            `json:"region,omitempty"`
	Subregion      string            `json:"subregion,omitempty"`
	Nationality    string            `json:"nationality,omitempty"`
	Latitude       Coordinate        `json:"latitude"`
	Longitude      Coordinate        `json:"longitude"`
	Emoji          string            `json:"emoji,omitempty"`
	EmojiU         string            `json:"emojiU,omitempty"`
	Timezones      []Timezone        `json:"timezones,omitempty"`
	Translations   map[string]string `json:"translations,omitempty"`
}

// State：ISO2 为州/省在所属国家内的代码
type State struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	ISO2        string     `json:"iso2"`
	CountryID   int        `json:"country_id,omitempty"`
	CountryCode string     `json:"country_code"`
	Type        string     `json:"type,omitempty"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
}

type City struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	StateID     int        `json:"state_id,omitempty"`
	StateCode   string     `json:"state_code"`
	CountryID   int        `json:"country_id,omitempty"`
	CountryCode string     `json:"country_code"`
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
	WikiDataID  string     `json:"wikiDataId,omitempty"`
}

type Timezone struct {
	ZoneName      string `json:"zoneName"`
	GMTOffset     int    `json:"gmtOffset"`
	GMTOffsetName string `json:"gmtOffsetName"`
	Abbreviation  string `json:"abbreviation"`
	TZName        string `json:"tzName"`
	CountryCode   string `json:"countryCode,omitempty"`
}

// CityDistance：附近城市查询结果
type CityDistance struct {
	City       City    `json:"city"`
	DistanceKm float64 `json:"distance_km"`
}

// CityMatch：模糊查询结果，Distance 为编辑距离
type CityMatch struct {
	City     City `json:"city"`
	Distance int  `json:"distance"`
}
