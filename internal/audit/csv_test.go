package audit

import (
	"encoding/csv"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestExportCSVHeader(t *testing.T) {
	out, err := ExportCSV(nil)
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	want := "ID,Timestamp,Action,Severity,User,Machine,Success,Details,Error\n"
	if out != want {
		t.Errorf("empty export = %q, want header only %q", out, want)
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entries := []Entry{
		{
			ID:        "audit-1",
			Timestamp: ts,
			Action:    PolicyCreated,
			Severity:  SeverityHigh,
			Actor:     "admin",
			Machine:   "ws-001",
			Success:   true,
			Details:   map[string]any{"policyName": "baseline, phase 1"},
		},
		{
			ID:           "audit-2",
			Timestamp:    ts.Add(time.Minute),
			Action:       PolicyDeployed,
			Severity:     SeverityCritical,
			Success:      false,
			ErrorMessage: "said \"no\"\nthen hung up",
		},
	}

	out, err := ExportCSV(entries)
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("export is not parseable CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}

	header := records[0]
	if !reflect.DeepEqual(header, csvHeader) {
		t.Errorf("header = %v, want %v", header, csvHeader)
	}

	row := records[1]
	if len(row) != len(csvHeader) {
		t.Fatalf("row has %d fields, want %d", len(row), len(csvHeader))
	}
	if row[0] != "audit-1" || row[2] != string(PolicyCreated) || row[4] != "admin" {
		t.Errorf("row fields wrong: %v", row)
	}
	if row[1] != "2026-03-14T09:26:53Z" {
		t.Errorf("timestamp = %q, want RFC3339", row[1])
	}

	// Details round-trips through the declared JSON-in-text encoding.
	var details map[string]any
	if err := json.Unmarshal([]byte(row[7]), &details); err != nil {
		t.Fatalf("details column is not JSON: %v", err)
	}
	if details["policyName"] != "baseline, phase 1" {
		t.Errorf("details = %v", details)
	}

	// The multi-line quoted error survives parsing.
	if records[2][8] != "said \"no\"\nthen hung up" {
		t.Errorf("error field = %q", records[2][8])
	}
}

func TestTrailExportCSVOrder(t *testing.T) {
	trail := NewTrail(Options{})
	trail.Log(ScanInitiated, nil, true, "")
	trail.Log(ScanCompleted, nil, true, "")

	out, err := trail.ExportCSV()
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if records[1][2] != string(ScanInitiated) || records[2][2] != string(ScanCompleted) {
		t.Error("rows are not in insertion order")
	}
}
