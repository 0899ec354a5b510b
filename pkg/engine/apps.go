package engine

import (
	"sort"
	"strings"
	"sync"
)

var defaultApps = map[string]string{
	"Uber":        "com.ubercab",
	"Ola":         "com.olacabs.customer",
	"MakeMyTrip":  "com.makemytrip",
	"Booking.com": "com.booking",
	"Amazon":      "com.amazon.mShop.android.shopping",
	"Flipkart":    "com.flipkart.android",
	"Zomato":      "com.application.zomato",
	"Swiggy":      "in.swiggy.android",
	"WhatsApp":    "com.whatsapp",
	"PharmEasy":   "com.pharmeasy.app",
	"Apollo 24|7": "com.apollo.patientapp",
	"Tata 1mg":    "com.aranoah.healthkart.plus",
}

// AppRegistry maps display names to Android package identifiers.
type AppRegistry struct {
	mu   sync.RWMutex
	apps map[string]string
}

// NewAppRegistry returns a registry seeded with the built-in apps plus extra.
func NewAppRegistry(extra map[string]string) *AppRegistry {
	r := &AppRegistry{apps: make(map[string]string, len(defaultApps)+len(extra))}
	for k, v := range defaultApps {
		r.apps[k] = v
	}
	for k, v := range extra {
		r.Register(k, v)
	}
	return r
}

// Register adds or replaces a mapping.
func (r *AppRegistry) Register(name, pkg string) {
	name, pkg = strings.TrimSpace(name), strings.TrimSpace(pkg)
	if name == "" || pkg == "" {
		return
	}
	r.mu.Lock()
	r.apps[name] = pkg
	r.mu.Unlock()
}

// Resolve returns the package id for name. Unknown identifiers are assumed
// to already be package ids and are returned unchanged.
func (r *AppRegistry) Resolve(name string) string {
	if r == nil {
		return name
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pkg, ok := r.apps[name]; ok {
		return pkg
	}
	for k, pkg := range r.apps {
		if strings.EqualFold(k, name) {
			return pkg
		}
	}
	return name
}

// Names lists the registered display names in sorted order.
func (r *AppRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.apps))
	for k := range r.apps {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
