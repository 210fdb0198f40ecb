package kml

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/John-Robertt/Z32/internal/config"
	"github.com/John-Robertt/Z32/internal/domain"
	"github.com/John-Robertt/Z32/internal/geo"
)

type kmlOut struct {
	Document struct {
		Name   string `xml:"name"`
		Styles []struct {
			ID string `xml:"id,attr"`
		} `xml:"Style"`
		Folders []struct {
			Name       string `xml:"name"`
			Placemarks []struct {
				Name        string `xml:"name"`
				StyleURL    string `xml:"styleUrl"`
				Coordinates string `xml:"Point>coordinates"`
			} `xml:"Placemark"`
		} `xml:"Folder"`
	} `xml:"Document"`
}

func survivor(rank, idx, hour int, text string, p geo.Point) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Rank: rank,
		Projected: domain.Projected{
			Index:    idx,
			Text:     strings.ReplaceAll(text, " ", ""),
			Readable: text,
			Family:   "A",
			Vector:   domain.GeoVector{DistanceInches: 3.375, DistanceMiles: 21.6, ClockHour: hour},
			Point:    p,
		},
		Nearest: domain.SceneDistance{Key: "blue_rock_springs", Label: "Blue Rock Springs", Miles: 1.15},
	}
}

func TestEncode_FoldersAndCoordinates(t *testing.T) {
	a := config.Default()
	list := []domain.ScoredCandidate{
		survivor(1, 597120, 10, "IN THREE AND THREE EIGHTHS RADIANS TEN", geo.Point{Lat: 38.109952, Lon: -122.185349}),
		survivor(2, 42, 8, "ON TWO RADIANS EIGHT", geo.Point{Lat: 38.0, Lon: -122.0}),
		survivor(3, 43, 10, "AT ONE RADIAN TEN", geo.Point{Lat: 37.9, Lon: -122.3}),
	}
	groups := []domain.ClockHourGroup{
		{Hour: 8, Count: 1, Indexes: []int{42}},
		{Hour: 10, Count: 2, Indexes: []int{597120, 43}},
	}

	b, err := Encode(a, list, groups)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.HasPrefix(string(b), xml.Header) {
		t.Fatalf("缺少 XML 头")
	}
	if !strings.Contains(string(b), `xmlns="`+Namespace+`"`) {
		t.Fatalf("缺少命名空间: %s", b)
	}

	var out kmlOut
	if err := xml.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out.Document.Styles) != 4 {
		t.Fatalf("styles=%d", len(out.Document.Styles))
	}
	if len(out.Document.Folders) != 3 {
		t.Fatalf("folders=%d", len(out.Document.Folders))
	}
	refs := out.Document.Folders[0]
	if len(refs.Placemarks) != 1+len(a.ReferencePoints) {
		t.Fatalf("reference placemarks=%d", len(refs.Placemarks))
	}
	if refs.Placemarks[0].Coordinates != "-121.914382,37.881628,0" {
		t.Fatalf("anchor coordinates=%q", refs.Placemarks[0].Coordinates)
	}
	if refs.Placemarks[1].Name != "Lake Herman Road (12/20/1968)" {
		t.Fatalf("first reference=%q", refs.Placemarks[1].Name)
	}

	eight := out.Document.Folders[1]
	if eight.Name != "8 o'clock (1)" || len(eight.Placemarks) != 1 {
		t.Fatalf("8 点 folder=%+v", eight)
	}
	ten := out.Document.Folders[2]
	if len(ten.Placemarks) != 2 {
		t.Fatalf("10 点 placemarks=%d", len(ten.Placemarks))
	}
	top := ten.Placemarks[0]
	if top.Name != "#1 IN THREE AND THREE EIGHTHS RADIANS TEN" || top.StyleURL != "#top" {
		t.Fatalf("rank 1 placemark=%+v", top)
	}
	if top.Coordinates != "-122.185349,38.109952,0" {
		t.Fatalf("rank 1 coordinates=%q", top.Coordinates)
	}
	if ten.Placemarks[1].StyleURL != "#survivor" {
		t.Fatalf("rank 3 style=%q", ten.Placemarks[1].StyleURL)
	}
}

func TestEncode_Deterministic(t *testing.T) {
	a := config.Default()
	list := []domain.ScoredCandidate{survivor(1, 1, 3, "ON ONE RADIAN THREE", geo.Point{Lat: 38, Lon: -122})}
	groups := []domain.ClockHourGroup{{Hour: 3, Count: 1, Indexes: []int{1}}}
	b1, err := Encode(a, list, groups)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b2, _ := Encode(a, list, groups)
	if string(b1) != string(b2) {
		t.Fatalf("两次输出不一致")
	}
}

func TestEncode_UnknownIndex(t *testing.T) {
	groups := []domain.ClockHourGroup{{Hour: 3, Count: 1, Indexes: []int{99}}}
	if _, err := Encode(config.Default(), nil, groups); err == nil {
		t.Fatalf("期望错误")
	}
}
