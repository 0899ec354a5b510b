package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/adityaadep2008/TrioAgent/pkg/basket"
	"github.com/adityaadep2008/TrioAgent/pkg/workflow"
)

var (
	commit bool

	preference string

	medicines string
	role      string

	eventDate     string
	eventTime     string
	eventLocation string
	guests        string

	tripFrom      string
	tripTo        string
	tripDate      string
	tripInterests string
	tripDays      int
)

var shopCmd = &cobra.Command{
	Use:   "shop <product>",
	Short: "Find the cheapest listing for a product",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMission(cmd, workflow.Mission{
			Persona: workflow.PersonaShopper,
			Action:  action(commit, "buy"),
			Product: strings.Join(args, " "),
		})
	},
}

var rideCmd = &cobra.Command{
	Use:   "ride <pickup> <drop>",
	Short: "Compare ride fares between two places",
	Example: `  trio ride "Koramangala" "MG Road" --preference cab --book`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMission(cmd, workflow.Mission{
			Persona:    workflow.PersonaRider,
			Action:     action(commit, "book"),
			Pickup:     args[0],
			Drop:       args[1],
			Preference: preference,
		})
	},
}

var foodCmd = &cobra.Command{
	Use:   "food <dish>",
	Short: "Compare a dish across delivery apps",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMission(cmd, workflow.Mission{
			Persona:  workflow.PersonaFoodie,
			Action:   action(commit, "order"),
			FoodItem: strings.Join(args, " "),
		})
	},
}

var pharmacyCmd = &cobra.Command{
	Use:     "pharmacy",
	Short:   "Price a medicine basket at every pharmacy",
	Example: `  trio pharmacy --items "Dolo 650:2,Cetirizine"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := basket.ParseItems(medicines)
		if err != nil {
			return err
		}
		return runMission(cmd, workflow.Mission{
			Persona:  workflow.PersonaPatient,
			Medicine: items,
			Role:     role,
		})
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <name>",
	Short: "Invite guests over WhatsApp, ask each for a food preference and order the cheapest match",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMission(cmd, workflow.Mission{
			Persona:       workflow.PersonaCoordinator,
			EventName:     strings.Join(args, " "),
			EventDate:     eventDate,
			EventTime:     eventTime,
			EventLocation: eventLocation,
			GuestList:     splitList(guests),
		})
	},
}

var tripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Plan a trip: flight, hotel, airport cab and itinerary",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMission(cmd, workflow.Mission{
			Persona:       workflow.PersonaTraveller,
			Source:        tripFrom,
			Destination:   tripTo,
			Date:          tripDate,
			UserInterests: tripInterests,
			Days:          tripDays,
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{shopCmd, foodCmd} {
		c.Flags().BoolVar(&commit, "order", false, "Order from the cheapest provider")
	}
	rideCmd.Flags().BoolVar(&commit, "book", false, "Book the cheapest ride")
	rideCmd.Flags().StringVar(&preference, "preference", "", "Ride type, e.g. cab, auto, bike")

	pharmacyCmd.Flags().StringVar(&medicines, "items", "", `Medicines as "Name:Qty,..."; quantity defaults to 1`)
	pharmacyCmd.Flags().StringVar(&role, "role", basket.RolePatient, "patient or pharmacist")
	_ = pharmacyCmd.MarkFlagRequired("items")

	eventCmd.Flags().StringVar(&guests, "guests", "", "Comma separated WhatsApp contact names")
	eventCmd.Flags().StringVar(&eventDate, "date", "", "Event date")
	eventCmd.Flags().StringVar(&eventTime, "time", "", "Event time")
	eventCmd.Flags().StringVar(&eventLocation, "location", "", "Event location")
	_ = eventCmd.MarkFlagRequired("guests")

	tripCmd.Flags().StringVar(&tripFrom, "from", "", "Departure city")
	tripCmd.Flags().StringVar(&tripTo, "to", "", "Destination city")
	tripCmd.Flags().StringVar(&tripDate, "date", "", "Travel date (YYYY-MM-DD)")
	tripCmd.Flags().StringVar(&tripInterests, "interests", "", "What to see and do")
	tripCmd.Flags().IntVar(&tripDays, "days", 0, "Itinerary length; 0 uses the configured default")

	rootCmd.AddCommand(shopCmd, rideCmd, foodCmd, pharmacyCmd, eventCmd, tripCmd)
}

func action(commit bool, verb string) string {
	if commit {
		return verb
	}
	return "compare"
}
