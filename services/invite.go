package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-ical"

	"autoactas-backend/models"
)

const (
	inviteFilename    = "evento.ics"
	inviteContentType = "text/calendar; charset=utf-8"
	inviteDuration    = time.Hour
)

// BuildInvite renders a single-event iCalendar for an evento starting at
// startsAt.
func BuildInvite(evento models.Evento, procesoNumero string, startsAt, stamp time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//AutoActas//Recordatorios//ES")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, evento.ID.String())
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, startsAt.UTC())
	event.Props.SetDateTime(ical.PropDateTimeEnd, startsAt.Add(inviteDuration).UTC())
	event.Props.SetText(ical.PropSummary, evento.Titulo)
	event.Props.SetText(ical.PropDescription, "Proceso "+procesoNumero)
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode invite for evento %s: %w", evento.ID, err)
	}
	return buf.Bytes(), nil
}
