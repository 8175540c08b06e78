package ical

import (
	ics "github.com/arran4/golang-ical"

	"whistleinn/internal/app/dto"
)

// Build renders the export entries as an iCalendar document. Entries are
// all-day blocks with DTEND exclusive, matching the half-open stay ranges.
func Build(export dto.CalendarExport) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Whistle Inn//Booking Calendar//EN")
	cal.SetCalscale("GREGORIAN")

	for _, entry := range export.Entries {
		ev := cal.AddEvent(entry.UID)
		ev.SetSummary(entry.Summary)
		ev.SetStatus(ics.ObjectStatusConfirmed)
		ev.SetAllDayStartAt(entry.StartDate)
		ev.SetAllDayEndAt(entry.EndDate)
		ev.SetDtStampTime(entry.CreatedAt)
		ev.SetCreatedTime(entry.CreatedAt)
	}
	return cal.Serialize()
}
