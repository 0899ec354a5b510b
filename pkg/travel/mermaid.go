package travel

import (
	"fmt"
	"strings"
)

// Mermaid renders the plan as a top-down Mermaid flowchart:
// home, flight, arrival cab, hotel, then each activity in order, then sleep.
func Mermaid(plan *TripPlan) string {
	if plan == nil {
		return "graph TD\n    Start((Home)) --> Sleep((Sleep))"
	}
	cab := fmt.Sprintf("{{Cab: %s %s}}", label(plan.ArrivalCab.Provider), plan.ArrivalCab.PickupTime.Format("15:04"))
	flight := fmt.Sprintf("Flight[Flight: %s %s]", label(plan.Flight.Airline), label(plan.Flight.FlightNumber))
	cabArr := "CabArr" + cab
	hotel := fmt.Sprintf("Hotel>Hotel: %s]", label(plan.Hotel.Name))

	lines := []string{
		"graph TD",
		"    Start((Home)) -->|Pick up| Cab1" + cab,
		"    Start((Home)) -->|Fly| " + flight,
		fmt.Sprintf("    %s -->|Arrive %s| %s", flight, plan.Flight.ArrivalTime.Format("15:04"), cabArr),
		fmt.Sprintf("    %s -->|To Hotel| %s", cabArr, hotel),
	}

	last := "Hotel"
	for _, day := range plan.DailySchedule {
		for i, act := range day.Activities {
			id := fmt.Sprintf("Day%dAct%d", day.DayNumber, i)
			lines = append(lines, fmt.Sprintf("    %s -->|Next| %s(%s: %s)", last, id, label(act.Time), label(act.Description)))
			last = id
		}
	}
	lines = append(lines, fmt.Sprintf("    %s --> Sleep((Sleep))", last))
	return strings.Join(lines, "\n")
}

var labelReplacer = strings.NewReplacer(
	"(", " ", ")", " ",
	"[", " ", "]", " ",
	"{", " ", "}", " ",
	"|", "/", "\"", "'",
	"\n", " ",
)

// label strips characters that open or close Mermaid node shapes.
func label(s string) string {
	return strings.Join(strings.Fields(labelReplacer.Replace(s)), " ")
}
