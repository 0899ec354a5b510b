package compare

import (
	"embed"
	"fmt"
	"strings"

	"github.com/adityaadep2008/TrioAgent/pkg/prompt"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Domain names a family of competing providers.
type Domain string

const (
	DomainFood     Domain = "food"
	DomainShopping Domain = "shopping"
	DomainRide     Domain = "ride"
	DomainPharmacy Domain = "pharmacy"
)

// Params is the data every instruction template receives.
type Params struct {
	Provider     string
	Query        string
	ItemType     string
	Title        string
	Pickup       string
	Drop         string
	Preference   string
	RideKeywords string
	Role         string
}

// Profile describes how one domain is searched and committed.
type Profile struct {
	Domain Domain
	// Providers is the default query order.
	Providers []string
	// Precedence breaks exact price ties; earlier wins.
	Precedence []string
	ItemType   string
	Search     *prompt.Template
	// Order is nil for domains without a commit flow.
	Order *prompt.Template
}

var catalog = map[Domain]*Profile{
	DomainFood: {
		Domain:     DomainFood,
		Providers:  []string{"Zomato", "Swiggy"},
		Precedence: []string{"Swiggy", "Zomato"},
		ItemType:   "food items",
		Search:     mustTemplate("commerce_search.tmpl"),
		Order:      mustTemplate("commerce_order.tmpl"),
	},
	DomainShopping: {
		Domain:     DomainShopping,
		Providers:  []string{"Amazon", "Flipkart"},
		Precedence: []string{"Amazon", "Flipkart"},
		ItemType:   "products",
		Search:     mustTemplate("commerce_search.tmpl"),
		Order:      mustTemplate("commerce_order.tmpl"),
	},
	DomainRide: {
		Domain:     DomainRide,
		Providers:  []string{"Uber", "Ola"},
		Precedence: []string{"Uber", "Ola"},
		Search:     mustTemplate("ride_search.tmpl"),
		Order:      mustTemplate("ride_book.tmpl"),
	},
	DomainPharmacy: {
		Domain:     DomainPharmacy,
		Providers:  []string{"PharmEasy", "Apollo 24|7", "Tata 1mg"},
		Precedence: []string{"PharmEasy", "Apollo 24|7", "Tata 1mg"},
		Search:     mustTemplate("pharmacy_search.tmpl"),
	},
}

func mustTemplate(name string) *prompt.Template {
	return prompt.Must(prompt.FromFS(templateFS, "templates/"+name, nil))
}

// Lookup returns the catalog entry for a domain.
func Lookup(d Domain) (*Profile, error) {
	profile, ok := catalog[Domain(strings.ToLower(strings.TrimSpace(string(d))))]
	if !ok {
		return nil, fmt.Errorf("compare: unknown domain %q", d)
	}
	return profile, nil
}

// Domains lists the supported domains.
func Domains() []Domain {
	return []Domain{DomainFood, DomainShopping, DomainRide, DomainPharmacy}
}

// RideKeywords returns the ride classes the agent should look for on a
// provider for the given preference (cab, auto, sedan).
func RideKeywords(provider, preference string) string {
	uber := strings.EqualFold(provider, "Uber")
	switch strings.ToLower(strings.TrimSpace(preference)) {
	case "auto":
		if uber {
			return "Uber Auto"
		}
		return "Ola Auto"
	case "sedan":
		if uber {
			return "Uber Premier"
		}
		return "Ola Prime Sedan"
	default:
		if uber {
			return "Uber Go, Uber Moto"
		}
		return "Ola Mini, Ola Bike"
	}
}

// FilterProviders keeps the entries of all that contain any allow-list entry
// (case-insensitive). If nothing matches, all is returned unchanged.
func FilterProviders(all, allow []string) []string {
	if len(allow) == 0 {
		return all
	}
	var out []string
	seen := make(map[string]struct{}, len(all))
	for _, requested := range allow {
		requested = strings.ToLower(strings.TrimSpace(requested))
		if requested == "" {
			continue
		}
		for _, p := range all {
			if _, dup := seen[p]; dup {
				continue
			}
			if strings.Contains(strings.ToLower(p), requested) {
				out = append(out, p)
				seen[p] = struct{}{}
				break
			}
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}
