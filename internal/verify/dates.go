package verify

import (
	"math"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// daysPerMonth 是平均月长（365.25/12）。
	daysPerMonth = 30.4375
	timerMonths  = 3.375
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// offsetDays 返回 b-a 的天数，向下取整（-1.7 天记为 -2）。
func offsetDays(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

func dateAlignments() DateAlignments {
	lhrAttack := day(1968, time.December, 20)
	solstice := day(1968, time.December, 21)
	brsAttack := day(1969, time.July, 4)
	aphelion := day(1969, time.July, 4)
	lbAttack := day(1969, time.September, 27)
	equinox := day(1969, time.September, 23)

	mailed := day(1970, time.June, 26)
	projected := mailed.Add(time.Duration(timerMonths * daysPerMonth * float64(24*time.Hour)))
	postmark := day(1970, time.October, 5)
	received := day(1970, time.October, 7)

	return DateAlignments{
		Description: "Astronomical date alignments for Vallejo-area attacks",
		LakeHermanRoad: DateAlignment{
			AttackDate:        lhrAttack.Format(dateLayout),
			AstronomicalEvent: "Winter Solstice",
			EventDate:         solstice.Format(dateLayout),
			EventTimeUTC:      "19:00:18",
			Source:            "worldspaceflight.com (Meeus algorithm)",
			OffsetDays:        offsetDays(solstice, lhrAttack),
			Note:              "Attack evening of Dec 20 PST; solstice midday Dec 21 PST",
		},
		BlueRockSprings: DateAlignment{
			AttackDate:        brsAttack.Format(dateLayout),
			AstronomicalEvent: "Earth Aphelion",
			EventDate:         "~" + aphelion.Format(dateLayout),
			Source:            "astropixels.com (Meeus/JPL), annual range Jul 3-5",
			OffsetDays:        offsetDays(aphelion, brsAttack),
		},
		LakeBerryessa: DateAlignment{
			AttackDate:        lbAttack.Format(dateLayout),
			AstronomicalEvent: "Autumnal Equinox",
			EventDate:         equinox.Format(dateLayout),
			EventTimeUTC:      "05:06:47",
			Source:            "worldspaceflight.com (Meeus algorithm)",
			OffsetDays:        offsetDays(equinox, lbAttack),
			Note:              "Weaker alignment (4 days offset)",
		},
		Timer: TemporalTimer{
			Mailed:             mailed.Format(dateLayout),
			ValueMonths:        timerMonths,
			ProjectedDate:      projected.Format(dateLayout),
			Postmark:           postmark.Format(dateLayout),
			Received:           received.Format(dateLayout),
			SourcePostmark:     "crimelibrary.org",
			SourceReceived:     "Wikipedia (Zodiac Killer article)",
			OffsetFromPostmark: offsetDays(projected, postmark),
			OffsetFromReceived: offsetDays(projected, received),
		},
	}
}
