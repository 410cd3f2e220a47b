package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	pkgconfig "github.com/starford/edupath/pkg/config"
)

// Manifest lists the sources imported by one run, in order. Relative paths
// are resolved against the working directory.
type Manifest []Source

// Validate validates every entry.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return errors.New("manifest has no entries")
	}
	for i := range m {
		if err := m[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// LoadManifest reads a YAML or JSON manifest.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	if err := pkgconfig.Load(path, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// RunManifest imports each entry in order. Entries whose file is missing
// are skipped with a warning; other failures are collected and the
// remaining entries still run.
func (im *Importer) RunManifest(ctx context.Context, m Manifest) ([]Report, error) {
	reports := make([]Report, 0, len(m))
	var errs []error
	for _, src := range m {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		if _, err := os.Stat(src.Path); errors.Is(err, os.ErrNotExist) {
			im.logger.Warn("source file not found, skipping",
				slog.String("collection", src.Collection),
				slog.String("path", src.Path))
			continue
		}
		report, err := im.Run(ctx, src)
		reports = append(reports, report)
		if err != nil {
			if ctx.Err() != nil {
				return reports, err
			}
			errs = append(errs, fmt.Errorf("%s: %w", src.Collection, err))
		}
	}
	return reports, errors.Join(errs...)
}
