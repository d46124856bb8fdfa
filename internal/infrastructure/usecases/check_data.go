package usecases

import (
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/filesystem"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

// DataFiles names the files of a data directory.
type DataFiles struct {
	Records    string
	Commands   string
	Log        string
	Rules      string
	Operations string
}

// CheckDataUseCase reports the state of the data directory.
type CheckDataUseCase struct {
	dataDir string
	files   []filesystem.ExpectedFile
	logger  ports.Logger
}

// NewCheckDataUseCase creates a new use case for dataDir. Files with an
// empty name are not checked.
func NewCheckDataUseCase(dataDir string, files DataFiles, logger ports.Logger) *CheckDataUseCase {
	candidates := []filesystem.ExpectedFile{
		{Label: "Refcode/FRU map", Name: files.Records, Required: true},
		{Label: "SE command library", Name: files.Commands},
		{Label: "Test log", Name: files.Log},
		{Label: "Advisory rules", Name: files.Rules},
		{Label: "Operations catalog", Name: files.Operations},
	}
	expected := make([]filesystem.ExpectedFile, 0, len(candidates))
	for _, f := range candidates {
		if f.Name != "" {
			expected = append(expected, f)
		}
	}
	return &CheckDataUseCase{dataDir: dataDir, files: expected, logger: logger}
}

// Execute inspects every expected file.
func (uc *CheckDataUseCase) Execute() filesystem.CheckReport {
	report := filesystem.CheckDataDir(uc.dataDir, uc.files)
	for _, f := range report.Files {
		if !f.OK() {
			uc.logger.Warn("data file check failed", "file", f.Path, "exists", f.Exists, "error", f.Error)
		}
	}
	return report
}
