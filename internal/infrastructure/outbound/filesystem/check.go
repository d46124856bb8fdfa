package filesystem

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExpectedFile describes one file the data directory should hold.
type ExpectedFile struct {
	Label    string
	Name     string
	Required bool
}

// FileStatus is the check result for one expected file.
type FileStatus struct {
	Label    string `json:"label"`
	Path     string `json:"path"`
	Required bool   `json:"required"`
	Exists   bool   `json:"exists"`
	Rows     int    `json:"rows,omitempty"`
	Error    string `json:"error,omitempty"`
}

// OK reports whether the file is usable, or absent but optional.
func (s FileStatus) OK() bool {
	if !s.Exists {
		return !s.Required
	}
	return s.Error == ""
}

// CheckReport summarizes a data directory.
type CheckReport struct {
	DataDir   string       `json:"data_dir"`
	DirExists bool         `json:"dir_exists"`
	Files     []FileStatus `json:"files"`
}

// OK reports whether every required file is present and readable.
func (r CheckReport) OK() bool {
	if !r.DirExists {
		return false
	}
	for _, f := range r.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// CheckDataDir verifies that each expected file exists and parses. CSV files
// report their data row count.
func CheckDataDir(dataDir string, files []ExpectedFile) CheckReport {
	report := CheckReport{DataDir: dataDir}
	if info, err := os.Stat(dataDir); err == nil && info.IsDir() {
		report.DirExists = true
	}

	for _, ef := range files {
		st := FileStatus{Label: ef.Label, Path: filepath.Join(dataDir, ef.Name), Required: ef.Required}
		data, err := os.ReadFile(st.Path)
		if err != nil {
			if !os.IsNotExist(err) {
				st.Exists = true
				st.Error = err.Error()
			}
			report.Files = append(report.Files, st)
			continue
		}
		st.Exists = true

		switch strings.ToLower(filepath.Ext(ef.Name)) {
		case ".csv":
			r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
			r.FieldsPerRecord = -1
			rows, err := r.ReadAll()
			if err != nil {
				st.Error = err.Error()
			} else if len(rows) > 0 {
				st.Rows = len(rows) - 1
			}
		case ".yaml", ".yml":
			var doc yaml.Node
			if err := yaml.Unmarshal(data, &doc); err != nil {
				st.Error = err.Error()
			}
		}
		report.Files = append(report.Files, st)
	}
	return report
}
