// Package classify labels the GPS trips of a day as personal or work
// travel using configured home-address and address-frequency heuristics.
package classify

import (
	"go.uber.org/zap"

	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
	"github.com/Haokaiiii/WFX-Timesheet/internal/normalize"
)

// homeTokenMinLen is the minimum length a configured home-address token
// must have before a substring hit counts as home recognition.
const homeTokenMinLen = 3

// Classifier assigns trip classifications for one run. The per-(staff,
// address) home-recognition results are cached for the run's lifetime
// and never invalidated; start a new Classifier for fresh data.
type Classifier struct {
	log   *zap.Logger
	cache map[string]bool // staffID + "|" + address -> configured-home hit
}

// New creates a run-scoped classifier.
func New(log *zap.Logger) *Classifier {
	return &Classifier{
		log:   log,
		cache: make(map[string]bool),
	}
}

// ClassifyDay labels each trip of one day in order and returns the set
// of distinct work-trip destination addresses (the day's job sites).
// Trips that already carry a classification keep it; the tag is set
// exactly once.
func (c *Classifier) ClassifyDay(profile *model.StaffProfile, trips []*model.Trip) []string {
	if len(trips) == 0 {
		return nil
	}

	mostFrequent := mostFrequentAddress(trips)

	var jobSites []string
	seen := make(map[string]bool)

	for i, trip := range trips {
		if trip.Class == "" {
			trip.Class = c.classifyTrip(profile, trip, mostFrequent, i == 0, i == len(trips)-1)
		}
		if trip.Class == model.ClassWork && trip.Destination != "" && !seen[trip.Destination] {
			seen[trip.Destination] = true
			jobSites = append(jobSites, trip.Destination)
		}
	}

	c.log.Debug("classified day",
		zap.String("staff", profile.ID),
		zap.String("date", trips[0].Date),
		zap.Int("trips", len(trips)),
		zap.Int("job_sites", len(jobSites)))

	return jobSites
}

// classifyTrip applies the classification rules in order: home-bound
// first trip, home-bound last trip, any other home-touching trip, work.
func (c *Classifier) classifyTrip(profile *model.StaffProfile, trip *model.Trip, mostFrequent string, first, last bool) model.TripClass {
	originHome := c.isHome(profile, trip.Origin, mostFrequent)
	destHome := c.isHome(profile, trip.Destination, mostFrequent)

	switch {
	case originHome && first:
		return model.ClassPersonalMorning
	case destHome && last:
		return model.ClassPersonalEvening
	case originHome || destHome:
		return model.ClassPersonalMixed
	default:
		return model.ClassWork
	}
}

// isHome reports whether an address is recognized as the worker's home:
// either a token of the configured home address appears in it, or it is
// the most frequent address of the day. Only the configured-address part
// is cached; frequency depends on the day being classified.
func (c *Classifier) isHome(profile *model.StaffProfile, address, mostFrequent string) bool {
	if address == "" {
		return false
	}

	key := profile.ID + "|" + address
	configuredHit, ok := c.cache[key]
	if !ok {
		configuredHit = normalize.ContainsToken(profile.HomeAddress, address, homeTokenMinLen)
		c.cache[key] = configuredHit
	}

	return configuredHit || (mostFrequent != "" && address == mostFrequent)
}

// mostFrequentAddress returns the address with the highest combined
// origin+destination count across the day's trips. Ties resolve to the
// first address reaching the winning count.
func mostFrequentAddress(trips []*model.Trip) string {
	counts := make(map[string]int)
	var order []string

	bump := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := counts[addr]; !ok {
			order = append(order, addr)
		}
		counts[addr]++
	}

	for _, trip := range trips {
		bump(trip.Origin)
		bump(trip.Destination)
	}

	best := ""
	bestCount := 0
	for _, addr := range order {
		if counts[addr] > bestCount {
			best = addr
			bestCount = counts[addr]
		}
	}

	// A single occurrence is no evidence of home.
	if bestCount < 2 {
		return ""
	}
	return best
}
