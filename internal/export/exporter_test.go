package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/shopspring/decimal"
)

func testSavedReports() []models.SavedReport {
	return []models.SavedReport{
		{
			ID:          "saved-1",
			Name:        "Unfilled this week",
			Description: "Vacancies with commas, quotes \"and\" special chars",
			Report:      "Vacancies",
			QueryText:   "QUERY FROM Vacancy WHERE IsFilled = FALSE SELECT Date, LocationName",
			Tags:        []string{"daily", "subs"},
			CreatedAt:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			UpdatedAt:   time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
			LastUsed:    time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC),
			UsageCount:  5,
		},
		{
			ID:         "saved-2",
			Name:       "Hours by school",
			Report:     "Absences",
			QueryText:  "QUERY FROM Absence SELECT LocationName, Hours SUBTOTAL BY LocationId",
			Tags:       []string{"monthly"},
			CreatedAt:  time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC),
			UpdatedAt:  time.Date(2024, 1, 2, 13, 0, 0, 0, time.UTC),
			UsageCount: 2,
		},
	}
}

func TestSavedReportsToCSV(t *testing.T) {
	tmpDir := t.TempDir()
	csvPath := filepath.Join(tmpDir, "saved.csv")

	if err := SavedReportsToCSV(testSavedReports(), csvPath); err != nil {
		t.Fatalf("SavedReportsToCSV failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) != 3 { // header + 2 rows
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expectedHeader := []string{"Name", "Description", "Report", "Query", "Tags", "Created", "Updated", "Last Used", "Usage Count"}
	if !slicesEqual(records[0], expectedHeader) {
		t.Errorf("Header mismatch.\nExpected: %v\nGot: %v", expectedHeader, records[0])
	}

	row1 := records[1]
	if row1[1] != "Vacancies with commas, quotes \"and\" special chars" {
		t.Errorf("Description not preserved, got '%s'", row1[1])
	}
	if row1[4] != "daily, subs" {
		t.Errorf("Expected tags 'daily, subs', got '%s'", row1[4])
	}
	if row1[8] != "5" {
		t.Errorf("Expected usage count '5', got '%s'", row1[8])
	}

	if records[2][7] != "" {
		t.Errorf("Expected empty last used for unused report, got '%s'", records[2][7])
	}
}

func TestSavedReportsToJSON(t *testing.T) {
	tmpDir := t.TempDir()
	jsonPath := filepath.Join(tmpDir, "saved.json")

	if err := SavedReportsToJSON(testSavedReports()[:1], jsonPath); err != nil {
		t.Fatalf("SavedReportsToJSON failed: %v", err)
	}

	info, err := os.Stat(jsonPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected file permissions 0644, got %o", info.Mode().Perm())
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}

	var parsed []models.SavedReport
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Name != "Unfilled this week" {
		t.Fatalf("Unexpected round trip result: %+v", parsed)
	}

	if !strings.Contains(string(data), "\n  ") {
		t.Error("JSON should be pretty-printed")
	}
}

func TestExportEmptySavedReports(t *testing.T) {
	tmpDir := t.TempDir()

	csvPath := filepath.Join(tmpDir, "empty.csv")
	if err := SavedReportsToCSV([]models.SavedReport{}, csvPath); err != nil {
		t.Fatalf("SavedReportsToCSV with empty list failed: %v", err)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("Failed to open CSV: %v", err)
	}
	defer func() { _ = file.Close() }()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read CSV: %v", err)
	}
	if len(records) != 1 { // Only header
		t.Errorf("Expected 1 record (header), got %d", len(records))
	}

	jsonPath := filepath.Join(tmpDir, "empty.json")
	if err := SavedReportsToJSON([]models.SavedReport{}, jsonPath); err != nil {
		t.Fatalf("SavedReportsToJSON with empty list failed: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected empty JSON array, got %s", data)
	}
}

func TestReportToCSV(t *testing.T) {
	data := &models.ReportData{
		RawData: [][]any{
			{time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), int64(17), "Lincoln", decimal.RequireFromString("7.50"), true},
			{time.Date(2025, 1, 7, 8, 30, 0, 0, time.UTC), int64(18), "Adams, East", json.Number("4"), nil},
		},
		DataColumnIndexMap: map[int]models.DataExpression{
			0: {DisplayName: "Date"},
			1: {DisplayName: "Id", Hidden: true},
			2: {DisplayName: "School"},
			3: {DisplayName: "Hours"},
			4: {DisplayName: "Needs Sub"},
		},
	}

	b, err := ReportToCSV(data)
	if err != nil {
		t.Fatalf("ReportToCSV failed: %v", err)
	}

	want := "Date,School,Hours,Needs Sub\n" +
		"2025-01-06,Lincoln,7.5,Yes\n" +
		"2025-01-07 08:30:00,\"Adams, East\",4,\n"
	if string(b) != want {
		t.Errorf("CSV mismatch.\nExpected:\n%s\nGot:\n%s", want, b)
	}
}

func TestWriteReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := WriteReport(dir, "../../absences.csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("WriteReport failed: %v", err)
	}
	if path != filepath.Join(dir, "absences.csv") {
		t.Errorf("Expected file inside export dir, got %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("Unexpected export content %q", data)
	}

	if _, err := WriteReport(dir, "  ", nil); err == nil {
		t.Error("Expected an error for an empty file name")
	}
}

func TestFilename(t *testing.T) {
	got := Filename("Absences / by school!", time.Date(2025, 1, 15, 9, 5, 0, 0, time.UTC))
	if got != "Absences__by_school_20250115_090500.csv" {
		t.Errorf("Unexpected file name %s", got)
	}
	if got := Filename("", time.Date(2025, 1, 15, 9, 5, 0, 0, time.UTC)); !strings.HasPrefix(got, "report_") {
		t.Errorf("Expected fallback name, got %s", got)
	}
}

func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
