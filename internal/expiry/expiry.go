// Package expiry classifies renewal dates and aggregates them across the
// document: next expiry per service and the system-wide alert list.
package expiry

import (
	"math"
	"time"

	"github.com/creasion/crm/internal/model"
)

// Status buckets a renewal date relative to now.
type Status string

const (
	Active   Status = "ACTIVE"
	Expiring Status = "EXPIRING"
	Expired  Status = "EXPIRED"
)

// ExpiringWindowDays is the inclusive upper bound of the EXPIRING bucket.
const ExpiringWindowDays = 30

const dateLayout = "2006-01-02"

// DaysRemainingAt returns ceil(expiry - now) in days. An empty or
// unparseable date yields 0.
func DaysRemainingAt(date string, now time.Time) int {
	if date == "" {
		return 0
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return 0
	}
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// DaysRemaining is DaysRemainingAt against the current time.
func DaysRemaining(date string) int { return DaysRemainingAt(date, time.Now()) }

// ClassifyAt buckets a date string. An empty date means "no expiry
// constraint" and classifies as Active; so does an unparseable one.
func ClassifyAt(date string, now time.Time) Status {
	if date == "" {
		return Active
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return Active
	}
	switch d := DaysRemainingAt(date, now); {
	case d < 0:
		return Expired
	case d <= ExpiringWindowDays:
		return Expiring
	default:
		return Active
	}
}

// Classify is ClassifyAt against the current time.
func Classify(date string) Status { return ClassifyAt(date, time.Now()) }

// NextExpiry returns the earliest renewal date among the service's
// meaningful legs and its add-ons. ok is false when no leg carries a
// date: the service has no next expiry, which is not the same as Active.
func NextExpiry(s model.Service) (date string, ok bool) {
	var candidates []string
	if s.Type.HasDomain() && s.DomainExpiry != "" {
		candidates = append(candidates, s.DomainExpiry)
	}
	if s.Type.HasHosting() && s.HostingExpiry != "" {
		candidates = append(candidates, s.HostingExpiry)
	}
	for _, as := range s.AdditionalServices {
		if as.Expiry != "" {
			candidates = append(candidates, as.Expiry)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	earliest := candidates[0]
	for _, c := range candidates[1:] {
		if dateBefore(c, earliest) {
			earliest = c
		}
	}
	return earliest, true
}

// dateBefore compares two date strings as date values. An unparseable
// date never wins over a parseable one.
func dateBefore(a, b string) bool {
	ta, errA := time.Parse(dateLayout, a)
	tb, errB := time.Parse(dateLayout, b)
	if errA != nil {
		return false
	}
	if errB != nil {
		return true
	}
	return ta.Before(tb)
}

// Alert is one entry of the system-wide expiry alert list.
type Alert struct {
	Label    string
	Expiry   string
	ClientID string
	Days     int
	Status   Status
}

// AlertsAt scans every service leg, every add-on and every hosting plan
// and appends an alert for each item whose own classification is not
// Active. A single service can contribute several entries; the list is
// flat and not deduplicated.
func AlertsAt(d *model.AppData, now time.Time) []Alert {
	var alerts []Alert
	add := func(label, date, clientID string) {
		st := ClassifyAt(date, now)
		if st == Active {
			return
		}
		alerts = append(alerts, Alert{
			Label:    label,
			Expiry:   date,
			ClientID: clientID,
			Days:     DaysRemainingAt(date, now),
			Status:   st,
		})
	}
	for _, s := range d.Services {
		if s.Type.HasDomain() {
			add(s.DomainName, s.DomainExpiry, s.ClientID)
		}
		// A synced "both" service mirrors the domain expiry on the hosting
		// side; alerting it separately would double-report the same date.
		if s.Type == model.TypeHosting || (s.Type == model.TypeBoth && !s.IsSynced) {
			label := s.HostingProvider
			if label == "" {
				label = s.HostingPlan
			}
			add(label, s.HostingExpiry, s.ClientID)
		}
		for _, as := range s.AdditionalServices {
			if as.Expiry != "" {
				add(as.Name, as.Expiry, s.ClientID)
			}
		}
	}
	for _, p := range d.HostingPlans {
		add(p.Name, p.Expiry, "")
	}
	return alerts
}

// Alerts is AlertsAt against the current time.
func Alerts(d *model.AppData) []Alert { return AlertsAt(d, time.Now()) }
