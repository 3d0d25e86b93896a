package geodata

import (
	"errors"

	"geodata/internal/loader"
)

var (
	ErrNotFound = loader.ErrNotFound
	ErrTimeout  = loader.ErrTimeout
	ErrParse    = loader.ErrParse
	// ErrUnavailable：数据源暂时故障（源站 5xx、连接失败、数据库错误），不被缓存，可重试
	ErrUnavailable = loader.ErrUnavailable
	// ErrGeoIPUnavailable：未配置 GeoIP 数据库时 CountryByIP 的返回
	ErrGeoIPUnavailable = errors.New("geodata: geoip database not configured")
	// ErrInvalidCoordinate：经纬度超出范围或非有限数值
	ErrInvalidCoordinate = errors.New("geodata: invalid coordinate")
)

type (
	NotFoundError    = loader.NotFoundError
	TimeoutError     = loader.TimeoutError
	ParseError       = loader.ParseError
	UnavailableError = loader.UnavailableError
)

func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

func IsParse(err error) bool { return errors.Is(err, ErrParse) }

func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

func isNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
