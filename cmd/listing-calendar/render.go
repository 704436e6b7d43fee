package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/username/listing-calendar/internal/calendar"
)

const cellWidth = 12

var statusMarks = map[calendar.Status]string{
	calendar.StatusPast:        " ",
	calendar.StatusBlocked:     "x",
	calendar.StatusFullyBooked: "#",
	calendar.StatusAvailable:   "+",
	calendar.StatusClosed:      "-",
}

// renderMonth prints a Sunday-first grid of the shown month with price and capacity per day
func renderMonth(out io.Writer, vm *calendar.ViewModel) {
	window := vm.Window()
	days := vm.Days()
	month := vm.Month()

	title := window.String()
	if month != nil && month.Listing != nil {
		title = fmt.Sprintf("%s · %s", month.Listing.Name, title)
	}
	fmt.Fprintf(out, "📅 %s\n", title)
	fmt.Fprintln(out, strings.Repeat("═", 7*cellWidth))

	for _, name := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		fmt.Fprintf(out, "%-*s", cellWidth, name)
	}
	fmt.Fprintln(out)

	blanks := window.LeadingBlanks()
	for week := 0; week*7 < blanks+len(days); week++ {
		var dayLine, priceLine, capacityLine strings.Builder
		for col := 0; col < 7; col++ {
			i := week*7 + col - blanks
			if i < 0 || i >= len(days) {
				blank := strings.Repeat(" ", cellWidth)
				dayLine.WriteString(blank)
				priceLine.WriteString(blank)
				capacityLine.WriteString(blank)
				continue
			}

			state := days[i]
			label := fmt.Sprintf("%s%2d", statusMarks[state.Status], state.Date.Day())
			if state.IsToday {
				label += "*"
			}
			dayLine.WriteString(pad(label))
			priceLine.WriteString(pad(state.PriceLabel))
			capacityLine.WriteString(pad(state.CapacityLabel))
		}
		fmt.Fprintln(out, strings.TrimRight(dayLine.String(), " "))
		fmt.Fprintln(out, strings.TrimRight(priceLine.String(), " "))
		if strings.TrimSpace(capacityLine.String()) != "" {
			fmt.Fprintln(out, strings.TrimRight(capacityLine.String(), " "))
		}
	}

	fmt.Fprintln(out, strings.Repeat("─", 7*cellWidth))
	fmt.Fprintln(out, "Legend: + available, # fully booked, x blocked, - closed, * today")

	counts := calendar.Summarize(days)
	fmt.Fprintf(out, "Available: %d  Booked: %d  Blocked: %d  Closed: %d\n",
		counts[calendar.StatusAvailable],
		counts[calendar.StatusFullyBooked],
		counts[calendar.StatusBlocked],
		counts[calendar.StatusClosed])

	if month != nil && month.Stats.AvgPrice > 0 {
		fmt.Fprintf(out, "Average price: %s\n",
			calendar.FormatPrice(vm.CurrencySymbol(), calendar.Price(month.Stats.AvgPrice)))
	}
	if month != nil && month.Stats.AvgOccupancy > 0 {
		fmt.Fprintf(out, "Average occupancy: %.1f%%\n", month.Stats.AvgOccupancy)
	}
}

// renderRecords lists the fetched records in date order
func renderRecords(out io.Writer, month *calendar.Month) {
	records := month.Records()
	if len(records) == 0 {
		fmt.Fprintln(out, "\nNo day records")
		return
	}

	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tAVAILABLE\tBLOCKED\tBOOKED\tPRICE\tMIN STAY\tROOMS/SPOTS\tRATE")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.Date,
			optBool(rec.IsAvailable),
			optBool(rec.IsBlocked),
			optBool(rec.IsFullyBooked),
			optPrice(rec.Price),
			optInt(rec.MinimumStay),
			capacity(rec),
			rec.RateType)
	}
	_ = tw.Flush()
}

func pad(s string) string {
	if n := len([]rune(s)); n < cellWidth {
		return s + strings.Repeat(" ", cellWidth-n)
	}
	return s
}

func optBool(b *bool) string {
	if b == nil {
		return "-"
	}
	if *b {
		return "yes"
	}
	return "no"
}

func optInt(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

func optPrice(p *calendar.Price) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", p.Float64())
}

func capacity(rec calendar.DayRecord) string {
	switch {
	case rec.RoomsAvailable != nil && rec.TotalRooms != nil:
		return fmt.Sprintf("%d/%d", *rec.RoomsAvailable, *rec.TotalRooms)
	case rec.RoomsAvailable != nil:
		return optInt(rec.RoomsAvailable)
	case rec.SpotsAvailable != nil && rec.MaxParticipants != nil:
		return fmt.Sprintf("%d/%d", *rec.SpotsAvailable, *rec.MaxParticipants)
	default:
		return optInt(rec.SpotsAvailable)
	}
}
