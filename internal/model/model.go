// Package model defines the CRM domain entities and the AppData aggregate
// that is persisted as one JSON document per user.
package model

import "time"

// ServiceType selects which field groups of a Service are meaningful.
type ServiceType string

const (
	TypeDomain  ServiceType = "domain"
	TypeHosting ServiceType = "hosting"
	TypeBoth    ServiceType = "both"
	TypeCustom  ServiceType = "custom"
)

// HasDomain reports whether the domain field group participates in
// expiry and financial aggregation.
func (t ServiceType) HasDomain() bool { return t == TypeDomain || t == TypeBoth }

// HasHosting reports whether the hosting field group participates in
// expiry and financial aggregation.
func (t ServiceType) HasHosting() bool { return t == TypeHosting || t == TypeBoth }

// Currency is a supported denomination for cost/charge legs.
type Currency string

const (
	NPR Currency = "NPR"
	INR Currency = "INR"
	USD Currency = "USD"
)

// Client is a customer record. Clients are created implicitly the first
// time a service names them and are never deleted automatically.
type Client struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"createdAt"` // RFC3339
}

// AdditionalService is a line-item add-on (SSL, mailbox, ...) owned by
// exactly one Service. Each leg is independently currency-denominated.
type AdditionalService struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Cost           float64  `json:"cost"`
	CostCurrency   Currency `json:"costCurrency"`
	Charge         float64  `json:"charge"`
	ChargeCurrency Currency `json:"chargeCurrency"`
	Expiry         string   `json:"expiry,omitempty"` // YYYY-MM-DD, optional
}

// Service is a billable domain and/or hosting provision for a client.
// ClientID is a reference, not ownership. Field groups outside the type
// tag may be populated but are ignored for aggregation.
type Service struct {
	ID       string      `json:"id"`
	ClientID string      `json:"clientId"`
	Type     ServiceType `json:"type"`

	DomainName           string   `json:"domainName,omitempty"`
	Registrar            string   `json:"registrar,omitempty"`
	DomainCost           float64  `json:"domainCost,omitempty"`
	DomainCostCurrency   Currency `json:"domainCostCurrency,omitempty"`
	DomainCharge         float64  `json:"domainCharge,omitempty"`
	DomainChargeCurrency Currency `json:"domainChargeCurrency,omitempty"`
	DomainExpiry         string   `json:"domainExpiry,omitempty"`

	HostingProvider       string   `json:"hostingProvider,omitempty"`
	HostingPlan           string   `json:"hostingPlan,omitempty"`
	HostingCost           float64  `json:"hostingCost,omitempty"`
	HostingCostCurrency   Currency `json:"hostingCostCurrency,omitempty"`
	HostingCharge         float64  `json:"hostingCharge,omitempty"`
	HostingChargeCurrency Currency `json:"hostingChargeCurrency,omitempty"`
	HostingExpiry         string   `json:"hostingExpiry,omitempty"`
	HostingServerIP       string   `json:"hostingServerIp,omitempty"`
	HostingCpURL          string   `json:"hostingCpUrl,omitempty"`

	AdditionalServices []AdditionalService `json:"additionalServices,omitempty"`

	// IsSynced means the hosting provider/expiry mirror the domain's
	// registrar/expiry; the derived values are written at save time.
	IsSynced  bool   `json:"isSynced"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"createdAt"`
}

// HostedSite is one domain served by a shared hosting plan.
type HostedSite struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// HostingPlan is the alternate aggregate for one hosting plan shared by
// multiple hosted sites. It coexists with Service; the two collections
// are not reconciled.
type HostingPlan struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Provider       string       `json:"provider"`
	Expiry         string       `json:"expiry,omitempty"`
	Cost           float64      `json:"cost"`
	CostCurrency   Currency     `json:"costCurrency"`
	Charge         float64      `json:"charge"`
	ChargeCurrency Currency     `json:"chargeCurrency"`
	Sites          []HostedSite `json:"sites,omitempty"`
	Notes          string       `json:"notes"`
	CreatedAt      string       `json:"createdAt"`
}

// Credential is a stored login for a service's control panel or similar.
// The secret is obfuscated, not encrypted.
type Credential struct {
	ID                 string `json:"id"`
	ServiceID          string `json:"serviceId"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	Username           string `json:"username"`
	PasswordObfuscated string `json:"passwordEncrypted"`
	Notes              string `json:"notes"`
}

// Settings carries document-level metadata. The password hashes are part
// of the document shape but unused by the main flows.
type Settings struct {
	MasterPasswordHash string `json:"masterPasswordHash"`
	AppPasswordHash    string `json:"appPasswordHash"`
	LastBackup         string `json:"lastBackup"`
}

// AppData is the root aggregate: the whole CRM state of one user, stored
// and replaced wholesale on every mutation.
type AppData struct {
	Clients      []Client      `json:"clients"`
	Services     []Service     `json:"services"`
	HostingPlans []HostingPlan `json:"hostingPlans,omitempty"`
	Credentials  []Credential  `json:"credentials"`
	Settings     Settings      `json:"settings"`
}

// Default returns a fresh document with empty collections.
func Default(now time.Time) *AppData {
	return &AppData{
		Clients:     []Client{},
		Services:    []Service{},
		Credentials: []Credential{},
		Settings:    Settings{LastBackup: now.UTC().Format(time.RFC3339)},
	}
}

// Clone returns a deep copy of the document, so callers can build the
// next state without aliasing the current one.
func (d *AppData) Clone() *AppData {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Clients = append([]Client(nil), d.Clients...)
	cp.Services = make([]Service, len(d.Services))
	for i, s := range d.Services {
		s.AdditionalServices = append([]AdditionalService(nil), s.AdditionalServices...)
		cp.Services[i] = s
	}
	cp.HostingPlans = make([]HostingPlan, len(d.HostingPlans))
	for i, p := range d.HostingPlans {
		p.Sites = append([]HostedSite(nil), p.Sites...)
		cp.HostingPlans[i] = p
	}
	if d.HostingPlans == nil {
		cp.HostingPlans = nil
	}
	cp.Credentials = append([]Credential(nil), d.Credentials...)
	return &cp
}
