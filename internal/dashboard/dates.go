package dashboard

import "time"

// DateLayout renders duty dates as dd-MM-yyyy.
const DateLayout = "02-01-2006"

// DutyDates returns the date of the current duty (the first Wednesday
// strictly after now) and the following one a week later.
func DutyDates(now time.Time) (current, next time.Time) {
	days := (int(time.Wednesday) - int(now.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	y, m, d := now.Date()
	current = time.Date(y, m, d+days, 0, 0, 0, 0, now.Location())
	return current, current.AddDate(0, 0, 7)
}

// FormatDate formats t with DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
