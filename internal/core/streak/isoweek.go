package streak

import "fmt"

// Week identifies an ISO-8601 week. Year is the ISO year, which differs
// from the calendar year for some days around January 1st.
type Week struct {
	Year   int `json:"year"`
	Number int `json:"week"`
}

// WeekOf returns the ISO week containing d. Week 1 is the week with the
// year's first Thursday, so the ISO year of d is the year of its Thursday.
func WeekOf(d Date) Week {
	thursday := d.AddDays(4 - d.isoWeekday())
	return Week{
		Year:   thursday.Year,
		Number: (thursday.YearDay()-1)/7 + 1,
	}
}

// LastWeekOf returns 53 when December 31st of year falls in ISO week 53,
// and 52 otherwise.
func LastWeekOf(year int) int {
	if WeekOf(Date{Year: year, Month: 12, Day: 31}).Number == 53 {
		return 53
	}
	return 52
}

func (w Week) Prev() Week {
	if w.Number <= 1 {
		return Week{Year: w.Year - 1, Number: LastWeekOf(w.Year - 1)}
	}
	return Week{Year: w.Year, Number: w.Number - 1}
}

func (w Week) Next() Week {
	if w.Number >= LastWeekOf(w.Year) {
		return Week{Year: w.Year + 1, Number: 1}
	}
	return Week{Year: w.Year, Number: w.Number + 1}
}

// Monday returns the first day of the week.
func (w Week) Monday() Date {
	jan4 := Date{Year: w.Year, Month: 1, Day: 4}
	firstMonday := jan4.AddDays(1 - jan4.isoWeekday())
	return firstMonday.AddDays(7 * (w.Number - 1))
}

func (w Week) Compare(o Week) int {
	if w.Year != o.Year {
		return cmpInt(w.Year, o.Year)
	}
	return cmpInt(w.Number, o.Number)
}

func (w Week) Before(o Week) bool { return w.Compare(o) < 0 }

func (w Week) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Number)
}
