// Package kml 把锚点、参考点与幸存者导出为 KML（Google Earth 等可直接打开）。
package kml

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
)

// Namespace 是 KML 2.2 的命名空间。
const Namespace = "http://www.opengis.net/kml/2.2"

type kmlRoot struct {
	XMLName  xml.Name `xml:"kml"`
	Xmlns    string   `xml:"xmlns,attr"`
	Document document `xml:"Document"`
}

type document struct {
	Name        string   `xml:"name"`
	Description string   `xml:"description,omitempty"`
	Styles      []style  `xml:"Style"`
	Folders     []folder `xml:"Folder"`
}

type style struct {
	ID    string    `xml:"id,attr"`
	Icon  iconStyle `xml:"IconStyle"`
	Label *scale    `xml:"LabelStyle,omitempty"`
}

type iconStyle struct {
	Color string  `xml:"color"`
	Scale float64 `xml:"scale"`
}

type scale struct {
	Scale float64 `xml:"scale"`
}

type folder struct {
	Name       string      `xml:"name"`
	Placemarks []placemark `xml:"Placemark"`
}

type placemark struct {
	Name        string `xml:"name"`
	Description string `xml:"description,omitempty"`
	StyleURL    string `xml:"styleUrl"`
	Point       point  `xml:"Point"`
}

type point struct {
	Coordinates string `xml:"coordinates"`
}

const (
	styleAnchor    = "anchor"
	styleReference = "reference"
	styleSurvivor  = "survivor"
	styleTop       = "top"
)

// coord 按 KML 约定输出 lon,lat,alt。
func coord(p geo.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64) + ",0"
}

// Encode 生成 KML。
//
// 规则：
// - 第一个 Folder 是锚点与参考点（按配置顺序）
// - 其后每个钟点一个 Folder，按 groups 顺序；组内按名次
// - rank 1 使用单独的样式
func Encode(a config.Assumptions, survivors []domain.ScoredCandidate, groups []domain.ClockHourGroup) ([]byte, error) {
	doc := document{
		Name:        "Z32 survivors",
		Description: fmt.Sprintf("%d survivors projected from %s", len(survivors), coord(a.Anchor.Point)),
		Styles: []style{
			{ID: styleAnchor, Icon: iconStyle{Color: "ff0000ff", Scale: 1.4}},
			{ID: styleReference, Icon: iconStyle{Color: "ff00ffff", Scale: 1.2}},
			{ID: styleSurvivor, Icon: iconStyle{Color: "ffff7f00", Scale: 0.8}, Label: &scale{Scale: 0.6}},
			{ID: styleTop, Icon: iconStyle{Color: "ff00ff00", Scale: 1.3}},
		},
	}

	refs := folder{Name: "Reference points"}
	refs.Placemarks = append(refs.Placemarks, placemark{
		Name:     "Mt. Diablo (anchor)",
		StyleURL: "#" + styleAnchor,
		Point:    point{Coordinates: coord(a.Anchor.Point)},
	})
	for _, r := range a.ReferencePoints {
		refs.Placemarks = append(refs.Placemarks, placemark{
			Name:     strings.TrimSpace(r.Label),
			StyleURL: "#" + styleReference,
			Point:    point{Coordinates: coord(r.Point)},
		})
	}
	doc.Folders = append(doc.Folders, refs)

	byIndex := make(map[int]domain.ScoredCandidate, len(survivors))
	for _, s := range survivors {
		byIndex[s.Index] = s
	}
	for _, g := range groups {
		f := folder{Name: fmt.Sprintf("%d o'clock (%d)", g.Hour, g.Count)}
		for _, idx := range g.Indexes {
			s, ok := byIndex[idx]
			if !ok {
				return nil, fmt.Errorf("kml: clock group %d references unknown index %d", g.Hour, idx)
			}
			f.Placemarks = append(f.Placemarks, survivorMark(s))
		}
		doc.Folders = append(doc.Folders, f)
	}

	b, err := xml.MarshalIndent(kmlRoot{Xmlns: Namespace, Document: doc}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), b...), nil
}

func survivorMark(s domain.ScoredCandidate) placemark {
	st := styleSurvivor
	if s.Rank == 1 {
		st = styleTop
	}
	return placemark{
		Name: fmt.Sprintf("#%d %s", s.Rank, s.Readable),
		Description: fmt.Sprintf("template %s; %.3f in / %.2f mi at %d o'clock; nearest %s %.2f mi",
			s.Family, s.Vector.DistanceInches, s.Vector.DistanceMiles, s.Vector.ClockHour, s.Nearest.Label, s.Nearest.Miles),
		StyleURL: "#" + st,
		Point:    point{Coordinates: coord(s.Point)},
	}
}
