package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/starford/edupath/internal/apperr"
	"github.com/starford/edupath/internal/models"
	"github.com/starford/edupath/internal/storage"
)

// FieldCourseType names the degree field a split file is named after,
// e.g. "bachelor-social-work-courses".
const FieldCourseType = "courseType"

// SplitReport lists the files a split produced, by path under the data
// directory. Failed holds the index of each degree that could not be written.
type SplitReport struct {
	Written []string `json:"written"`
	Skipped []string `json:"skipped"`
	Failed  []int    `json:"failed"`
}

// SplitDegrees reads the degree array at input and writes each degree to
// its own <courseType>.json next to it, with dashes in the course type
// turned into underscores. Each file holds a one-element array so it can be
// fed back to the importer. Existing files are left untouched. A degree
// without a usable course type is logged and counted as failed.
func SplitDegrees(files storage.Provider, input string, logger *slog.Logger) (SplitReport, error) {
	var report SplitReport

	raw, err := files.Read(input)
	if err != nil {
		return report, apperr.E(apperr.KindMalformedSource, "split degrees", "", err)
	}
	var degrees []models.Document
	if err := json.Unmarshal(raw, &degrees); err != nil {
		return report, apperr.E(apperr.KindMalformedSource, "split degrees", "", fmt.Errorf("%s: %w", input, err))
	}

	dir := ""
	if i := strings.LastIndexAny(input, `/\`); i >= 0 {
		dir = input[:i+1]
	}

	for i, degree := range degrees {
		name, err := splitFileName(degree)
		if err != nil {
			logger.Error("degree not split",
				slog.Int("index", i),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, i)
			continue
		}
		path := dir + name

		if _, err := files.Read(path); err == nil {
			logger.Info("split file exists, skipping", slog.String("path", path))
			report.Skipped = append(report.Skipped, path)
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("split file unreadable",
				slog.String("path", path),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, i)
			continue
		}

		body, err := json.MarshalIndent([]models.Document{degree}, "", "    ")
		if err == nil {
			err = files.Write(path, body)
		}
		if err != nil {
			logger.Error("split file not written",
				slog.String("path", path),
				slog.String("error", err.Error()))
			report.Failed = append(report.Failed, i)
			continue
		}
		logger.Info("split file written", slog.String("path", path))
		report.Written = append(report.Written, path)
	}
	return report, nil
}

func splitFileName(degree models.Document) (string, error) {
	if degree == nil {
		return "", errors.New("degree is not an object")
	}
	ct, _ := degree[FieldCourseType].(string)
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return "", fmt.Errorf("missing %s", FieldCourseType)
	}
	if strings.ContainsAny(ct, `/\`) || strings.Contains(ct, "..") {
		return "", fmt.Errorf("%s %q is not a file name", FieldCourseType, ct)
	}
	return strings.ReplaceAll(ct, "-", "_") + ".json", nil
}
