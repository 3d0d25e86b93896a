// 包 geoip：基于 MaxMind GeoIP2/GeoLite2 数据库的 IP → 国家代码查询
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"

	"geodata/internal/logger"
)

var (
	ErrBadIP    = errors.New("geoip: invalid IP address")
	ErrNoRecord = errors.New("geoip: no country for address")
)

// Reader：持有已打开的 mmdb 读取器，可并发使用
type Reader struct {
	db   *geoip2.Reader
	path string
}

// Open：打开数据库文件（Country 或 City 库均可）
func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open %s: %w", path, err)
	}
	md := db.Metadata()
	logger.L().Info("geoip_open", "path", path, "type", md.DatabaseType, "build_epoch", md.BuildEpoch)
	return &Reader{db: db, path: path}, nil
}

// FromBytes：从内存数据打开，供测试与嵌入场景
func FromBytes(b []byte) (*Reader, error) {
	db, err := geoip2.FromBytes(b)
	if err != nil {
		return nil, fmt.Errorf("geoip: load: %w", err)
	}
	return &Reader{db: db, path: "<memory>"}, nil
}

// CountryCode：返回 ISO 3166-1 alpha-2 国家代码（大写）
// 约束：非法地址返回 ErrBadIP；库中无记录或记录无国家时返回 ErrNoRecord
func (r *Reader) CountryCode(ip string) (string, error) {
	addr := net.ParseIP(strings.TrimSpace(ip))
	if addr == nil {
		return "", ErrBadIP
	}
	rec, err := r.db.Country(addr)
	if err != nil {
		return "", fmt.Errorf("geoip: lookup %s: %w", ip, err)
	}
	code := rec.Country.IsoCode
	if code == "" {
		code = rec.RegisteredCountry.IsoCode
	}
	if code == "" {
		return "", ErrNoRecord
	}
	logger.L().Debug("geoip_hit", "ip", ip, "country", code)
	return strings.ToUpper(code), nil
}

func (r *Reader) Close() error { return r.db.Close() }
