package backup

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

func sampleDoc() *model.AppData {
	d := model.Default(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	d.Clients = append(d.Clients, model.Client{ID: "c1", Name: "Acme", CreatedAt: "2025-01-01T00:00:00Z"})
	d.Services = append(d.Services, model.Service{
		ID:           "s1",
		ClientID:     "c1",
		Type:         model.TypeBoth,
		DomainName:   "acme.example",
		Registrar:    "Namecheap",
		DomainExpiry: "2025-06-01",
		IsSynced:     true,
		AdditionalServices: []model.AdditionalService{
			{ID: "a1", Name: "SSL", Cost: 10, CostCurrency: model.USD, Charge: 25, ChargeCurrency: model.NPR},
		},
	})
	return d
}

func TestExportImport_RoundTripsDeepEqual(t *testing.T) {
	d := sampleDoc()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, ExportAt(d, &buf, now))

	got, err := Import(&buf)
	require.NoError(t, err)

	want := d.Clone()
	want.Settings.LastBackup = "2025-01-15T12:00:00Z"
	require.Equal(t, want, got)
}

func TestExportAt_StampsCopyNotSource(t *testing.T) {
	d := sampleDoc()
	before := d.Settings.LastBackup

	var buf bytes.Buffer
	require.NoError(t, ExportAt(d, &buf, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	require.Equal(t, before, d.Settings.LastBackup)
	require.Contains(t, buf.String(), "2026-03-01T00:00:00Z")
}

func TestExport_UsesOriginalDocumentKeys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportAt(sampleDoc(), &buf, time.Now()))

	out := buf.String()
	require.Contains(t, out, `"clientId"`)
	require.Contains(t, out, `"domainExpiry"`)
	require.Contains(t, out, `"isSynced"`)
	require.Contains(t, out, `"additionalServices"`)
}

func TestImport_MalformedInput(t *testing.T) {
	_, err := Import(strings.NewReader(`{"clients": [`))
	require.ErrorIs(t, err, errs.ErrMalformedBackup)

	_, err = Import(strings.NewReader(`not json at all`))
	require.ErrorIs(t, err, errs.ErrMalformedBackup)
}
