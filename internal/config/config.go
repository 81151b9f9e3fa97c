// Package config loads the process-template definition from YAML and seeds
// it into the database. The file declares the stage set, their dependency
// edges, and the shared holiday list.
package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
	"github.com/anirudhsen/stagetrack/internal/repository"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// TemplateFile is the YAML schema for a process-template definition.
type TemplateFile struct {
	// Version tags the template set; bump it when the stage list changes.
	Version int         `yaml:"version"`
	Stages  []StageSpec `yaml:"stages"`

	// Holidays are calendar dates in YYYY-MM-DD form, shared by all
	// projects during plan generation.
	Holidays []string `yaml:"holidays"`
}

// StageSpec is one stage declaration.
type StageSpec struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Sequence int    `yaml:"sequence"`
	Optional bool   `yaml:"optional"`
	PNC      bool   `yaml:"pnc"`

	// DependsOn lists predecessor stage codes that must complete before
	// this stage may start or complete.
	DependsOn []string `yaml:"depends_on"`
}

// Load reads and validates a template file.
func Load(path string) (*TemplateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template file: %w", err)
	}
	var f TemplateFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing template file: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks structural consistency: unique codes, known dependency
// targets, at most one PNC-designated stage, parseable holidays.
func (f *TemplateFile) Validate() error {
	if len(f.Stages) == 0 {
		return fmt.Errorf("template file declares no stages")
	}
	if f.Version <= 0 {
		return fmt.Errorf("template version must be positive")
	}

	codes := make(map[string]bool, len(f.Stages))
	pncCount := 0
	for _, s := range f.Stages {
		if s.Code == "" {
			return fmt.Errorf("stage with empty code")
		}
		if codes[s.Code] {
			return fmt.Errorf("duplicate stage code %s", s.Code)
		}
		codes[s.Code] = true
		if s.PNC {
			pncCount++
		}
	}
	if pncCount > 1 {
		return fmt.Errorf("at most one stage may be flagged pnc")
	}

	for _, s := range f.Stages {
		for _, dep := range s.DependsOn {
			if !codes[dep] {
				return fmt.Errorf("stage %s depends on unknown stage %s", s.Code, dep)
			}
			if dep == s.Code {
				return fmt.Errorf("stage %s depends on itself", s.Code)
			}
		}
	}

	for _, h := range f.Holidays {
		if _, err := time.Parse(dateLayout, h); err != nil {
			return fmt.Errorf("invalid holiday date %q: %w", h, err)
		}
	}
	return nil
}

// ToDomain converts the file into domain template rows and dependency
// edges.
func (f *TemplateFile) ToDomain() ([]domain.StageTemplate, []domain.DependencyEdge) {
	var templates []domain.StageTemplate
	var edges []domain.DependencyEdge
	for _, s := range f.Stages {
		templates = append(templates, domain.StageTemplate{
			Code:     s.Code,
			Name:     s.Name,
			Sequence: s.Sequence,
			Optional: s.Optional,
			IsPNC:    s.PNC,
			Version:  f.Version,
		})
		for _, dep := range s.DependsOn {
			edges = append(edges, domain.DependencyEdge{
				FromCode:      s.Code,
				DependsOnCode: dep,
				Version:       f.Version,
			})
		}
	}
	return templates, edges
}

// HolidayDates parses the holiday strings. Validate must have passed.
func (f *TemplateFile) HolidayDates() []time.Time {
	var days []time.Time
	for _, h := range f.Holidays {
		d, err := time.Parse(dateLayout, h)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	return days
}

// Seed replaces the stored template set and holiday list with the file's
// contents in one transaction.
func Seed(ctx context.Context, uow db.UnitOfWork, f *TemplateFile) error {
	return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		templates, edges := f.ToDomain()
		if err := repository.NewSQLiteTemplateRepo(tx).ReplaceAll(ctx, templates, edges); err != nil {
			return fmt.Errorf("replacing template set: %w", err)
		}
		if err := repository.NewSQLiteScheduleRepo(tx).ReplaceHolidays(ctx, f.HolidayDates()); err != nil {
			return fmt.Errorf("replacing holidays: %w", err)
		}
		return nil
	})
}
