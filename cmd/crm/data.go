package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/creasion/crm/internal/backup"
	"github.com/creasion/crm/internal/currency"
	"github.com/creasion/crm/internal/expiry"
	"github.com/creasion/crm/internal/inventory"
	"github.com/creasion/crm/internal/model"
)

func cmdList(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	q := fs.String("q", "", "filter by domain, plan or client name")
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	m, _, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}
	defer mir.Close()

	services := m.Find(*q)
	if *asJSON {
		printJSON(services)
		return
	}

	data := m.Data()
	names := make(map[string]string, len(data.Clients))
	for _, c := range data.Clients {
		names[c.ID] = c.Name
	}

	for _, s := range services {
		label := s.DomainName
		if label == "" {
			label = s.HostingPlan
		}
		if label == "" {
			label = "(unnamed)"
		}
		line := fmt.Sprintf("%-36s  %-10s  %-20s", s.ID, s.Type, label)
		if next, ok := expiry.NextExpiry(s); ok {
			line += fmt.Sprintf("  next expiry %s (%s)", next, expiry.Classify(next))
		}
		if s.Type.HasDomain() && s.DomainCharge > 0 {
			line += "  " + currency.Format(s.DomainCharge, s.DomainChargeCurrency)
		}
		fmt.Printf("%s  client=%s\n", line, names[s.ClientID])
	}
	if len(services) == 0 {
		fmt.Println("no services")
	}
}

func cmdAlerts(ctx context.Context, a *app) {
	m, _, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}
	defer mir.Close()

	alerts := m.Alerts()
	if len(alerts) == 0 {
		fmt.Println("nothing expiring")
		return
	}
	for _, al := range alerts {
		fmt.Printf("%-8s  %-30s  %s (%d days)\n", al.Status, al.Label, al.Expiry, al.Days)
	}
}

func cmdSaveService(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("save-service", flag.ExitOnError)
	var in inventory.ServiceInput
	var typ, addons string

	fs.StringVar(&in.ID, "id", "", "service id (empty = create)")
	fs.StringVar(&in.ClientName, "client", "", "client name (created on first mention)")
	fs.StringVar(&in.ClientEmail, "client-email", "", "client email (for auto-created client)")
	fs.StringVar(&in.ClientPhone, "client-phone", "", "client phone (for auto-created client)")
	fs.StringVar(&typ, "type", "", "domain|hosting|both|custom")

	fs.StringVar(&in.DomainName, "domain", "", "domain name")
	fs.StringVar(&in.Registrar, "registrar", "", "registrar")
	fs.Float64Var(&in.DomainCost, "domain-cost", 0, "domain cost")
	fs.Float64Var(&in.DomainCharge, "domain-charge", 0, "domain charge")
	domCur := fs.String("domain-currency", "", "currency for domain cost/charge (NPR|INR|USD)")
	fs.StringVar(&in.DomainExpiry, "domain-expiry", "", "domain expiry (YYYY-MM-DD)")

	fs.StringVar(&in.HostingProvider, "provider", "", "hosting provider")
	fs.StringVar(&in.HostingPlan, "plan", "", "hosting plan name")
	fs.Float64Var(&in.HostingCost, "hosting-cost", 0, "hosting cost")
	fs.Float64Var(&in.HostingCharge, "hosting-charge", 0, "hosting charge")
	hostCur := fs.String("hosting-currency", "", "currency for hosting cost/charge")
	fs.StringVar(&in.HostingExpiry, "hosting-expiry", "", "hosting expiry (YYYY-MM-DD)")
	fs.StringVar(&in.HostingServerIP, "server-ip", "", "server IP")
	fs.StringVar(&in.HostingCpURL, "cp-url", "", "control panel URL")

	fs.BoolVar(&in.IsSynced, "synced", false, "hosting mirrors domain registrar/expiry")
	fs.StringVar(&addons, "addons", "", `add-ons as JSON, e.g. [{"name":"SSL","cost":10,"costCurrency":"USD","expiry":"2026-01-01"}]`)
	fs.StringVar(&in.Notes, "notes", "", "notes")
	_ = fs.Parse(args)

	in.Type = model.ServiceType(typ)
	in.DomainCostCurrency = model.Currency(*domCur)
	in.DomainChargeCurrency = model.Currency(*domCur)
	in.HostingCostCurrency = model.Currency(*hostCur)
	in.HostingChargeCurrency = model.Currency(*hostCur)

	if addons != "" {
		if err := json.Unmarshal([]byte(addons), &in.AdditionalServices); err != nil {
			fail(fmt.Errorf("bad -addons: %w", err))
		}
	}

	m, c, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}

	id, err := m.SaveService(ctx, in)
	if err != nil {
		mir.Close()
		fail(err)
	}
	finish(c, mir)
	fmt.Println(id)
}

func cmdSavePlan(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("save-plan", flag.ExitOnError)
	var in inventory.PlanInput
	var sites, cur string

	fs.StringVar(&in.ID, "id", "", "plan id (empty = create)")
	fs.StringVar(&in.Name, "name", "", "plan name")
	fs.StringVar(&in.Provider, "provider", "", "provider")
	fs.StringVar(&in.Expiry, "expiry", "", "expiry (YYYY-MM-DD)")
	fs.Float64Var(&in.Cost, "cost", 0, "cost")
	fs.Float64Var(&in.Charge, "charge", 0, "charge")
	fs.StringVar(&cur, "currency", "", "currency for cost/charge")
	fs.StringVar(&sites, "sites", "", "comma-separated hosted site URLs")
	fs.StringVar(&in.Notes, "notes", "", "notes")
	_ = fs.Parse(args)

	in.CostCurrency = model.Currency(cur)
	in.ChargeCurrency = model.Currency(cur)
	if sites != "" {
		in.SiteURLs = strings.Split(sites, ",")
	}

	m, c, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}

	id, err := m.SaveHostingPlan(ctx, in)
	if err != nil {
		mir.Close()
		fail(err)
	}
	finish(c, mir)
	fmt.Println(id)
}

func cmdSaveCredential(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("save-credential", flag.ExitOnError)
	var in inventory.CredentialInput

	fs.StringVar(&in.ID, "id", "", "credential id (empty = create)")
	fs.StringVar(&in.ServiceID, "service", "", "owning service id")
	fs.StringVar(&in.Title, "title", "", "title")
	fs.StringVar(&in.URL, "url", "", "login URL")
	fs.StringVar(&in.Username, "user", "", "username")
	fs.StringVar(&in.Password, "pass", "", "password (stored obfuscated, not encrypted)")
	fs.StringVar(&in.Notes, "notes", "", "notes")
	_ = fs.Parse(args)

	m, c, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}

	id, err := m.SaveCredential(ctx, in)
	if err != nil {
		mir.Close()
		fail(err)
	}
	finish(c, mir)
	fmt.Println(id)
}

func cmdRemoveByID(ctx context.Context, a *app, args []string, kind string) {
	fs := flag.NewFlagSet("rm-"+kind, flag.ExitOnError)
	id := fs.String("id", "", kind+" id")
	_ = fs.Parse(args)
	if *id == "" {
		fail(errors.New("need -id"))
	}

	m, c, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}

	switch kind {
	case "service":
		err = m.DeleteService(ctx, *id)
	case "plan":
		err = m.DeleteHostingPlan(ctx, *id)
	case "credential":
		err = m.DeleteCredential(ctx, *id)
	}
	if err != nil {
		mir.Close()
		fail(err)
	}
	finish(c, mir)
	fmt.Println("removed")
}

func cmdExport(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("out", "", "output file ('' = stdout)")
	_ = fs.Parse(args)

	m, _, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}
	defer mir.Close()

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		w = f
	}
	if err := backup.Export(m.Data(), w); err != nil {
		fail(err)
	}
	if *out != "" {
		fmt.Println("exported to", *out)
	}
}

func cmdImport(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "backup file to import")
	_ = fs.Parse(args)
	if *file == "" {
		fail(errors.New("need -file"))
	}

	f, err := os.Open(*file)
	if err != nil {
		fail(err)
	}
	imported, err := backup.Import(f)
	f.Close()
	if err != nil {
		fail(err)
	}

	_, c, mir, err := a.openManager(ctx)
	if err != nil {
		fail(err)
	}

	err = c.Mutate(ctx, func(d *model.AppData) error {
		*d = *imported
		return nil
	})
	if err != nil {
		mir.Close()
		fail(err)
	}
	finish(c, mir)
	fmt.Printf("imported %d clients, %d services\n", len(imported.Clients), len(imported.Services))
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
