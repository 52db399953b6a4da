// utils/dates.go
package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateKeyLayout   = "2006-01-02"
	clockTimeLayout = "15:04:05"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// DateKey returns the calendar day of t in loc, as stored in date columns.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// CombineDateTime rebuilds the instant of a civil date ("2006-01-02") and
// time of day ("15:04" or "15:04:05") written in loc.
func CombineDateTime(fecha, hora string, loc *time.Location) (time.Time, error) {
	fecha = strings.TrimSpace(fecha)
	hora = strings.TrimSpace(hora)
	if fecha == "" || hora == "" {
		return time.Time{}, fmt.Errorf("missing date or time (fecha=%q, hora=%q)", fecha, hora)
	}
	if len(hora) == 5 {
		hora += ":00"
	}
	t, err := time.ParseInLocation(DateKeyLayout+" "+clockTimeLayout, fecha+" "+hora, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid event date/time %q %q: %w", fecha, hora, err)
	}
	return t, nil
}

// HumanizeDate renders t in loc the way es-CO long dates read, e.g.
// "16 de octubre de 2026, 9:30 a. m.".
func HumanizeDate(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	hour := t.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "a. m."
	if t.Hour() >= 12 {
		meridiem = "p. m."
	}
	return fmt.Sprintf("%d de %s de %d, %d:%02d %s",
		t.Day(), spanishMonths[t.Month()-1], t.Year(), hour, t.Minute(), meridiem)
}
