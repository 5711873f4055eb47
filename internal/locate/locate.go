// 包 locate：访客 IP → 所在国家及其视觉中心，用于首屏把地球仪转到玩家所在国家
package locate

import (
	"errors"
	"fmt"
	"net"

	"globe-quiz/internal/countries"
	"globe-quiz/internal/geometry"

	"github.com/oschwald/geoip2-golang"
	"github.com/paulmach/orb"
)

var ErrNoCountry = errors.New("no country for address")

// CountryReader：*geoip2.Reader 满足该接口
type CountryReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
}

// Place：定位结果；Lng/Lat 为最大多边形的质心
type Place struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	Lng  float64 `json:"lng"`
	Lat  float64 `json:"lat"`
}

// Locator：mmdb 国家库 + 当前要素目录
type Locator struct {
	db     CountryReader
	closer func() error
	cat    *countries.Holder
}

// Open：打开 GeoLite2/GeoIP2 Country 或 City 库
func Open(path string, cat *countries.Holder) (*Locator, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &Locator{db: r, closer: r.Close, cat: cat}, nil
}

// New：使用任意 CountryReader（测试替身）
func New(db CountryReader, cat *countries.Holder) *Locator {
	return &Locator{db: db, cat: cat}
}

func (l *Locator) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer()
}

// Locate：IP 不在库中、国家不在目录中（如被排除）均返回 ErrNoCountry
func (l *Locator) Locate(ip net.IP) (Place, error) {
	if ip == nil {
		return Place{}, ErrNoCountry
	}
	rec, err := l.db.Country(ip)
	if err != nil {
		return Place{}, fmt.Errorf("geoip lookup: %w", err)
	}
	code := rec.Country.IsoCode
	f, ok := l.cat.Load().Lookup(code)
	if !ok {
		return Place{}, ErrNoCountry
	}
	lng, lat := geometry.Centroid(mainPart(f.Geometry))
	name := f.NameEN
	if name == "" {
		name = f.Admin
	}
	return Place{Code: f.Code, Name: name, Lng: lng, Lat: lat}, nil
}

// mainPart：多部件国家取面积最大的一块，避免海外领地把中心拉进海里
func mainPart(g orb.Geometry) orb.Geometry {
	mp, ok := g.(orb.MultiPolygon)
	if !ok || len(mp) == 0 {
		return g
	}
	best, bestArea := mp[0], geometry.Area(mp[0])
	for _, p := range mp[1:] {
		if a := geometry.Area(p); a > bestArea {
			best, bestArea = p, a
		}
	}
	return best
}
