package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"github.com/rebeliceyang/lazyreport/internal/report"
	"github.com/shopspring/decimal"
)

const timestampLayout = "2006-01-02 15:04:05"

// WriteReport stores exported report bytes as dir/filename and returns the path.
// The filename is reduced to its base name so it cannot escape dir.
func WriteReport(dir, filename string, data []byte) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", errors.Errorf("invalid export file name %q", filename)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "create export directory")
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(err, "write export file")
	}
	return path, nil
}

// Filename builds the default export file name for a report
func Filename(reportName string, now time.Time) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, reportName)
	if base == "" {
		base = "report"
	}
	return fmt.Sprintf("%s_%s.csv", base, now.Format("20060102_150405"))
}

// ReportToCSV renders the visible columns of a result set as CSV with a
// header of display names
func ReportToCSV(data *models.ReportData) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	visible := report.VisibleColumns(data.DataColumnIndexMap)

	header := make([]string, len(visible))
	for i, idx := range visible {
		header[i] = data.DataColumnIndexMap[idx].DisplayName
	}
	if err := writer.Write(header); err != nil {
		return nil, errors.Wrap(err, "write CSV header")
	}

	record := make([]string, len(visible))
	for _, row := range data.RawData {
		for i, idx := range visible {
			record[i] = ""
			if idx < len(row) {
				record[i] = FormatCell(row[idx])
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, errors.Wrap(err, "write CSV row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, errors.Wrap(err, "flush CSV")
	}
	return buf.Bytes(), nil
}

// FormatCell renders one cell as text
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(timestampLayout)
	case decimal.Decimal:
		return t.String()
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case []byte:
		return string(t)
	default:
		if report.IsNumeric(v) {
			return report.FormatNumber(v)
		}
		return fmt.Sprintf("%v", v)
	}
}

// SavedReportsToCSV exports saved reports to a CSV file
func SavedReportsToCSV(saved []models.SavedReport, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create CSV file")
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	header := []string{"Name", "Description", "Report", "Query", "Tags", "Created", "Updated", "Last Used", "Usage Count"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "write CSV header")
	}

	for _, s := range saved {
		lastUsed := ""
		if !s.LastUsed.IsZero() {
			lastUsed = s.LastUsed.Format(timestampLayout)
		}

		row := []string{
			s.Name,
			s.Description,
			s.Report,
			s.QueryText,
			strings.Join(s.Tags, ", "),
			s.CreatedAt.Format(timestampLayout),
			s.UpdatedAt.Format(timestampLayout),
			lastUsed,
			fmt.Sprintf("%d", s.UsageCount),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "write CSV row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "flush CSV")
}

// SavedReportsToJSON exports saved reports to a JSON file
func SavedReportsToJSON(saved []models.SavedReport, path string) error {
	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal saved reports")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "write JSON file")
	}

	return nil
}
