// Package backup serializes the CRM document to and from JSON files.
package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/creasion/crm/internal/errs"
	"github.com/creasion/crm/internal/model"
)

// ExportAt writes the document as indented JSON, stamping the
// last-backup time on the exported copy. The source document is not
// modified.
func ExportAt(d *model.AppData, w io.Writer, now time.Time) error {
	out := d.Clone()
	out.Settings.LastBackup = now.UTC().Format(time.RFC3339)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Export is ExportAt with the current time.
func Export(d *model.AppData, w io.Writer) error {
	return ExportAt(d, w, time.Now())
}

// Import parses a backup file. Anything that is not valid JSON for the
// document shape fails whole, with no partial result.
func Import(r io.Reader) (*model.AppData, error) {
	var d model.AppData
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrMalformedBackup, err)
	}
	return &d, nil
}
