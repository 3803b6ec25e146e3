// Package inventory implements the create/update/delete operations on
// the CRM document: services, hosting plans, credentials, and the
// implicit client bookkeeping they entail.
package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/creasion/crm/internal/crypto"
	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

// ServiceInput is everything a save-service operation takes. The client
// is referenced by name; an unseen name creates the client record.
type ServiceInput struct {
	ID          string // empty means create
	ClientName  string
	ClientEmail string
	ClientPhone string

	Type model.ServiceType

	DomainName           string
	Registrar            string
	DomainCost           float64
	DomainCostCurrency   model.Currency
	DomainCharge         float64
	DomainChargeCurrency model.Currency
	DomainExpiry         string

	HostingProvider       string
	HostingPlan           string
	HostingCost           float64
	HostingCostCurrency   model.Currency
	HostingCharge         float64
	HostingChargeCurrency model.Currency
	HostingExpiry         string
	HostingServerIP       string
	HostingCpURL          string

	IsSynced           bool
	AdditionalServices []model.AdditionalService
	Notes              string
}

// ApplyService upserts a service into the document and returns its id.
// The client is looked up by case-folded name and created on first
// mention; on edit the service keeps its creation timestamp. When the
// service is typed "both" and synced, the hosting provider and expiry
// are derived from the domain side at save time.
func ApplyService(d *model.AppData, in ServiceInput, now time.Time) (string, error) {
	name := strings.TrimSpace(in.ClientName)
	if name == "" {
		return "", errors.New("client name required")
	}
	if in.Type == "" {
		return "", errors.New("service type required")
	}

	client := ensureClient(d, name, in.ClientEmail, in.ClientPhone, now)

	svc := model.Service{
		ID:       in.ID,
		ClientID: client.ID,
		Type:     in.Type,

		DomainName:           in.DomainName,
		Registrar:            in.Registrar,
		DomainCost:           in.DomainCost,
		DomainCostCurrency:   in.DomainCostCurrency,
		DomainCharge:         in.DomainCharge,
		DomainChargeCurrency: in.DomainChargeCurrency,
		DomainExpiry:         in.DomainExpiry,

		HostingProvider:       in.HostingProvider,
		HostingPlan:           in.HostingPlan,
		HostingCost:           in.HostingCost,
		HostingCostCurrency:   in.HostingCostCurrency,
		HostingCharge:         in.HostingCharge,
		HostingChargeCurrency: in.HostingChargeCurrency,
		HostingExpiry:         in.HostingExpiry,
		HostingServerIP:       in.HostingServerIP,
		HostingCpURL:          in.HostingCpURL,

		IsSynced: in.IsSynced,
		Notes:    in.Notes,
	}

	if svc.Type == model.TypeBoth && svc.IsSynced {
		svc.HostingProvider = svc.Registrar
		svc.HostingExpiry = svc.DomainExpiry
	}

	svc.AdditionalServices = make([]model.AdditionalService, len(in.AdditionalServices))
	for i, a := range in.AdditionalServices {
		if a.ID == "" {
			a.ID = newID()
		}
		svc.AdditionalServices[i] = a
	}

	if svc.ID == "" {
		svc.ID = newID()
		svc.CreatedAt = now.UTC().Format(time.RFC3339)
		d.Services = append(d.Services, svc)
		return svc.ID, nil
	}

	for i := range d.Services {
		if d.Services[i].ID == svc.ID {
			svc.CreatedAt = d.Services[i].CreatedAt
			d.Services[i] = svc
			return svc.ID, nil
		}
	}
	return "", errs.ErrNotFound
}

// RemoveService deletes a service and the add-ons it owns. The client
// record stays even when this was its last service.
func RemoveService(d *model.AppData, id string) error {
	for i := range d.Services {
		if d.Services[i].ID == id {
			d.Services = append(d.Services[:i], d.Services[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// PlanInput is everything a save-hosting-plan operation takes.
type PlanInput struct {
	ID             string
	Name           string
	Provider       string
	Expiry         string
	Cost           float64
	CostCurrency   model.Currency
	Charge         float64
	ChargeCurrency model.Currency
	SiteURLs       []string
	Notes          string
}

// ApplyHostingPlan upserts a hosting plan, assigning ids to its sites.
func ApplyHostingPlan(d *model.AppData, in PlanInput, now time.Time) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", errors.New("plan name required")
	}

	plan := model.HostingPlan{
		ID:             in.ID,
		Name:           in.Name,
		Provider:       in.Provider,
		Expiry:         in.Expiry,
		Cost:           in.Cost,
		CostCurrency:   in.CostCurrency,
		Charge:         in.Charge,
		ChargeCurrency: in.ChargeCurrency,
		Notes:          in.Notes,
	}
	for _, u := range in.SiteURLs {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		plan.Sites = append(plan.Sites, model.HostedSite{ID: newID(), URL: u})
	}

	if plan.ID == "" {
		plan.ID = newID()
		plan.CreatedAt = now.UTC().Format(time.RFC3339)
		d.HostingPlans = append(d.HostingPlans, plan)
		return plan.ID, nil
	}

	for i := range d.HostingPlans {
		if d.HostingPlans[i].ID == plan.ID {
			plan.CreatedAt = d.HostingPlans[i].CreatedAt
			d.HostingPlans[i] = plan
			return plan.ID, nil
		}
	}
	return "", errs.ErrNotFound
}

// RemoveHostingPlan deletes a hosting plan and its site list.
func RemoveHostingPlan(d *model.AppData, id string) error {
	for i := range d.HostingPlans {
		if d.HostingPlans[i].ID == id {
			d.HostingPlans = append(d.HostingPlans[:i], d.HostingPlans[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// CredentialInput is everything a save-credential operation takes.
// Password is the plaintext; it is obfuscated before it enters the
// document.
type CredentialInput struct {
	ID        string
	ServiceID string
	Title     string
	URL       string
	Username  string
	Password  string
	Notes     string
}

// ApplyCredential upserts a stored login.
func ApplyCredential(d *model.AppData, in CredentialInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", errors.New("credential title required")
	}

	cred := model.Credential{
		ID:                 in.ID,
		ServiceID:          in.ServiceID,
		Title:              in.Title,
		URL:                in.URL,
		Username:           in.Username,
		PasswordObfuscated: pkgcrypto.Obfuscate(in.Password),
		Notes:              in.Notes,
	}

	if cred.ID == "" {
		cred.ID = newID()
		d.Credentials = append(d.Credentials, cred)
		return cred.ID, nil
	}

	for i := range d.Credentials {
		if d.Credentials[i].ID == cred.ID {
			d.Credentials[i] = cred
			return cred.ID, nil
		}
	}
	return "", errs.ErrNotFound
}

// RemoveCredential deletes a stored login.
func RemoveCredential(d *model.AppData, id string) error {
	for i := range d.Credentials {
		if d.Credentials[i].ID == id {
			d.Credentials = append(d.Credentials[:i], d.Credentials[i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

// Search returns the services whose domain name, hosting plan or
// client name contains the query, case-insensitively. An empty query
// returns everything.
func Search(d *model.AppData, query string) []model.Service {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]model.Service(nil), d.Services...)
	}

	clientNames := make(map[string]string, len(d.Clients))
	for _, c := range d.Clients {
		clientNames[c.ID] = strings.ToLower(c.Name)
	}

	var out []model.Service
	for _, s := range d.Services {
		switch {
		case strings.Contains(strings.ToLower(s.DomainName), q),
			strings.Contains(strings.ToLower(s.HostingPlan), q),
			strings.Contains(clientNames[s.ClientID], q):
			out = append(out, s)
		}
	}
	return out
}

// ensureClient is the lookup-or-insert step of a service save: clients
// are keyed by case-folded name and created on first mention.
func ensureClient(d *model.AppData, name, email, phone string, now time.Time) *model.Client {
	for i := range d.Clients {
		if strings.EqualFold(d.Clients[i].Name, name) {
			return &d.Clients[i]
		}
	}
	d.Clients = append(d.Clients, model.Client{
		ID:        newID(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Notes:     "Auto-created",
		CreatedAt: now.UTC().Format(time.RFC3339),
	})
	return &d.Clients[len(d.Clients)-1]
}

func newID() string { return uuid.Must(uuid.NewV4()).String() }
