package xlsx

import (
	"math"
	"time"
)

const (
	secondsInADay = 86400
	// days between the 1900 and 1904 epochs
	epoch1904Offset = 1462
	// serial day of the fictitious 1900-02-29
	leapBugDay = 60
)

var (
	excel1900Epoc = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	excel1904Epoc = time.Date(1904, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// DateParts is a serial date split into calendar and clock fields.
// Fraction is the sub-second remainder left after rounding to whole
// seconds, in [-0.5, 0.5).
type DateParts struct {
	Year     int
	Month    int
	Day      int
	Hour     int
	Minute   int
	Second   int
	Fraction float64
	Weekday  int
	Days     int
}

// NewDateParts decomposes a serial day number. Day 0 is rendered as
// January 0 1900 and day 60 as February 29 1900, the way spreadsheet
// applications do.
func NewDateParts(serial float64, date1904 bool) DateParts {
	date := int(math.Floor(serial))
	exact := secondsInADay * (serial - float64(date))
	clock := int(math.Round(exact))
	frac := exact - float64(clock)
	if clock >= secondsInADay {
		clock -= secondsInADay
		date++
	}
	p := DateParts{Days: date, Fraction: frac}

	if date1904 {
		date += epoch1904Offset
	}

	switch {
	case date == leapBugDay:
		p.Year, p.Month, p.Day, p.Weekday = 1900, 2, 29, 3
	case date == 0:
		p.Year, p.Month, p.Day, p.Weekday = 1900, 1, 0, 6
	default:
		if date > leapBugDay {
			date--
		}
		t := time.Date(1900, time.January, date, 0, 0, 0, 0, time.UTC)
		p.Year, p.Month, p.Day = t.Year(), int(t.Month()), t.Day()
		p.Weekday = int(t.Weekday())
		if date < leapBugDay {
			// the phantom leap day shifts every earlier weekday
			p.Weekday = (p.Weekday + 6) % 7
		}
	}

	p.Second = clock % 60
	clock /= 60
	p.Minute = clock % 60
	p.Hour = clock / 60
	return p
}

// TimeFromSerial converts a serial date into a time.Time in UTC.
func TimeFromSerial(serial float64, date1904 bool) time.Time {
	wholeDaysPart := int(math.Floor(serial))
	durationPart := time.Duration(math.Round(secondsInADay*(serial-float64(wholeDaysPart)))) * time.Second
	if date1904 {
		return excel1904Epoc.AddDate(0, 0, wholeDaysPart).Add(durationPart)
	}
	if wholeDaysPart < leapBugDay+1 {
		wholeDaysPart++
	}
	return excel1900Epoc.AddDate(0, 0, wholeDaysPart).Add(durationPart)
}
