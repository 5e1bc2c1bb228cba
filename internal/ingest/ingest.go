// Package ingest decodes load exports (CSV spreadsheets or the backend's JSON)
// into model.Load records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"

	"dispatchboard/internal/model"
)

// Report summarizes a decode.
type Report struct {
	Rows    int `json:"rows"`
	Skipped int `json:"skipped"`
}

// headerAliases maps normalized spreadsheet headers onto Load csv tags.
var headerAliases = map[string]string{
	"load_id":       "id",
	"load":          "id",
	"company":       "company_name",
	"pickup_date":   "pu_date",
	"pickup_time":   "pu_time",
	"delivery_date": "do_date",
	"delivery_time": "do_time",
	"pickup":        "pu_location",
	"delivery":      "do_location",
	"start_city":    "start_location_city",
	"start_state":   "start_location_state",
	"rate":          "price",
	"miles":         "trip_miles",
	"loaded_miles":  "trip_miles",
	"deadhead":      "deadhead_miles",
	"dh_miles":      "deadhead_miles",
	"rpm":           "rpm_all",
	"contract":      "contract_type",
	"load_status":   "status",
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader lowercases a column title, joins words with underscores
// and applies known aliases.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(nonWord.ReplaceAllString(strings.ToLower(h), "_"), "_")
	if a, ok := headerAliases[h]; ok {
		return a
	}
	return h
}

// DecodeCSV reads a header row followed by load rows. Unknown columns are
// ignored and blank rows are skipped.
func DecodeCSV(r io.Reader) ([]model.Load, Report, error) {
	var rep Report
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []model.Load{}, rep, nil
	}
	if err != nil {
		return nil, rep, eris.Wrap(err, "ingest: read header")
	}
	for i := range header {
		header[i] = NormalizeHeader(header[i])
	}
	dec, err := csvutil.NewDecoder(cr, header...)
	if err != nil {
		return nil, rep, eris.Wrap(err, "ingest: csv header")
	}

	out := []model.Load{}
	for {
		var l model.Load
		err := dec.Decode(&l)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, rep, eris.Wrapf(err, "ingest: decode row %d", rep.Rows+1)
		}
		rep.Rows++
		if blank(l) {
			rep.Skipped++
			continue
		}
		out = append(out, l)
	}
	return out, rep, nil
}

// DecodeJSON accepts either a bare array of loads or an object with a
// "loads" array.
func DecodeJSON(r io.Reader) ([]model.Load, Report, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Report{}, eris.Wrap(err, "ingest: read json")
	}
	raw = bytes.TrimSpace(raw)
	var loads []model.Load
	if len(raw) > 0 && raw[0] == '{' {
		var env struct {
			Loads []model.Load `json:"loads"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, Report{}, eris.Wrap(err, "ingest: decode json")
		}
		loads = env.Loads
	} else if err := json.Unmarshal(raw, &loads); err != nil {
		return nil, Report{}, eris.Wrap(err, "ingest: decode json")
	}
	rep := Report{Rows: len(loads)}
	out := make([]model.Load, 0, len(loads))
	for _, l := range loads {
		if blank(l) {
			rep.Skipped++
			continue
		}
		out = append(out, l)
	}
	return out, rep, nil
}

// ReadFile decodes a .csv or .json file by extension.
func ReadFile(path string) ([]model.Load, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return DecodeCSV(f)
	case ".json":
		return DecodeJSON(f)
	default:
		return nil, Report{}, eris.Errorf("ingest: unsupported file type %q", filepath.Ext(path))
	}
}

func blank(l model.Load) bool {
	return l.ID == "" && strings.TrimSpace(l.Driver) == "" &&
		strings.TrimSpace(l.PuLocation) == "" && strings.TrimSpace(l.DoLocation) == "" &&
		l.PuDate == "" && l.DoDate == ""
}
