// Package favorites keeps saved reports in a YAML file
package favorites

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rebeliceyang/lazyreport/internal/export"
	"github.com/rebeliceyang/lazyreport/internal/models"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for an unknown saved report id
var ErrNotFound = errors.New("saved report not found")

// Manager manages saved reports
type Manager struct {
	path  string
	saved []models.SavedReport
	now   func() time.Time
}

// NewManager creates a manager backed by saved_reports.yaml in configDir
func NewManager(configDir string) (*Manager, error) {
	m := &Manager{
		path:  filepath.Join(configDir, "saved_reports.yaml"),
		saved: []models.SavedReport{},
		now:   time.Now,
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := m.Load(); err != nil {
			return nil, errors.Wrap(err, "load saved reports")
		}
	}

	return m, nil
}

// Load loads saved reports from the YAML file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return errors.Wrap(err, "read saved reports file")
	}

	var saved []models.SavedReport
	if err := yaml.Unmarshal(data, &saved); err != nil {
		return errors.Wrap(err, "parse saved reports")
	}
	if saved == nil {
		saved = []models.SavedReport{}
	}
	m.saved = saved
	return nil
}

// Save writes saved reports to the YAML file
func (m *Manager) Save() error {
	data, err := yaml.Marshal(m.saved)
	if err != nil {
		return errors.Wrap(err, "marshal saved reports")
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return errors.Wrap(err, "write saved reports file")
	}

	return nil
}

// Add saves a new report query. Names are unique ignoring case.
func (m *Manager) Add(name, description, reportName, queryText string, q models.SavedQuery, tags []string) (*models.SavedReport, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("saved report name cannot be empty")
	}
	if len(q.Columns) == 0 {
		return nil, errors.New("saved report selects no columns")
	}
	if err := m.checkName("", name); err != nil {
		return nil, err
	}

	now := m.now()
	saved := models.SavedReport{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Report:      reportName,
		QueryText:   queryText,
		Query:       q,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.saved = append(m.saved, saved)
	if err := m.Save(); err != nil {
		return nil, errors.Wrap(err, "save report")
	}

	return &saved, nil
}

// Update renames or re-describes a saved report and replaces its query
func (m *Manager) Update(id, name, description, queryText string, q models.SavedQuery, tags []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("saved report name cannot be empty")
	}
	if err := m.checkName(id, name); err != nil {
		return err
	}

	i := m.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %q", id)
	}

	m.saved[i].Name = name
	m.saved[i].Description = strings.TrimSpace(description)
	m.saved[i].QueryText = queryText
	m.saved[i].Query = q
	m.saved[i].Tags = tags
	m.saved[i].UpdatedAt = m.now()

	return errors.Wrap(m.Save(), "save report")
}

// Delete removes a saved report
func (m *Manager) Delete(id string) error {
	i := m.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %q", id)
	}
	m.saved = append(m.saved[:i], m.saved[i+1:]...)
	return errors.Wrap(m.Save(), "save reports after deletion")
}

// Get returns a saved report by id
func (m *Manager) Get(id string) (*models.SavedReport, error) {
	i := m.index(id)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	saved := m.saved[i]
	return &saved, nil
}

// List returns saved reports, optionally only those of one report
func (m *Manager) List(reportName string) []models.SavedReport {
	out := make([]models.SavedReport, 0, len(m.saved))
	for _, s := range m.saved {
		if reportName == "" || s.Report == reportName {
			out = append(out, s)
		}
	}
	return out
}

// Search matches saved reports by name, description or tag
func (m *Manager) Search(text string) []models.SavedReport {
	if text == "" {
		return m.List("")
	}

	text = strings.ToLower(text)
	var results []models.SavedReport
	for _, s := range m.saved {
		if strings.Contains(strings.ToLower(s.Name), text) ||
			strings.Contains(strings.ToLower(s.Description), text) {
			results = append(results, s)
			continue
		}
		for _, tag := range s.Tags {
			if strings.Contains(strings.ToLower(tag), text) {
				results = append(results, s)
				break
			}
		}
	}
	return results
}

// MarkUsed records that a saved report was opened
func (m *Manager) MarkUsed(id string) error {
	i := m.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "id %q", id)
	}
	m.saved[i].UsageCount++
	m.saved[i].LastUsed = m.now()
	return errors.Wrap(m.Save(), "save usage statistics")
}

// MostUsed returns saved reports by descending use
func (m *Manager) MostUsed(limit int) []models.SavedReport {
	sorted := m.List("")
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// ExportToCSV exports all saved reports, by default next to the YAML file
func (m *Manager) ExportToCSV(customPath ...string) (string, error) {
	if len(m.saved) == 0 {
		return "", errors.New("no saved reports to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "saved_reports.csv")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.SavedReportsToCSV(m.saved, path); err != nil {
		return "", errors.Wrap(err, "export saved reports to CSV")
	}
	return path, nil
}

// ExportToJSON exports all saved reports, by default next to the YAML file
func (m *Manager) ExportToJSON(customPath ...string) (string, error) {
	if len(m.saved) == 0 {
		return "", errors.New("no saved reports to export")
	}

	path := filepath.Join(filepath.Dir(m.path), "saved_reports.json")
	if len(customPath) > 0 && customPath[0] != "" {
		path = customPath[0]
	}

	if err := export.SavedReportsToJSON(m.saved, path); err != nil {
		return "", errors.Wrap(err, "export saved reports to JSON")
	}
	return path, nil
}

func (m *Manager) checkName(id, name string) error {
	for _, s := range m.saved {
		if s.ID != id && strings.EqualFold(s.Name, name) {
			return errors.Errorf("a saved report named '%s' already exists (names are case-insensitive)", name)
		}
	}
	return nil
}

func (m *Manager) index(id string) int {
	for i, s := range m.saved {
		if s.ID == id {
			return i
		}
	}
	return -1
}
