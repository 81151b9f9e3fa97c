package repository

import (
	"context"
	"fmt"

	"github.com/anirudhsen/stagetrack/internal/db"
	"github.com/anirudhsen/stagetrack/internal/domain"
)

// SQLiteTemplateRepo implements TemplateRepo using a SQLite database.
type SQLiteTemplateRepo struct {
	db db.DBTX
}

// NewSQLiteTemplateRepo creates a new SQLiteTemplateRepo.
func NewSQLiteTemplateRepo(db db.DBTX) *SQLiteTemplateRepo {
	return &SQLiteTemplateRepo{db: db}
}

func (r *SQLiteTemplateRepo) ListTemplates(ctx context.Context) ([]domain.StageTemplate, error) {
	query := `SELECT code, name, sequence, optional, is_pnc, version
		FROM stage_templates ORDER BY sequence`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing stage templates: %w", err)
	}
	defer rows.Close()

	var templates []domain.StageTemplate
	for rows.Next() {
		var t domain.StageTemplate
		var optionalInt, pncInt int
		if err := rows.Scan(&t.Code, &t.Name, &t.Sequence, &optionalInt, &pncInt, &t.Version); err != nil {
			return nil, fmt.Errorf("scanning stage template: %w", err)
		}
		t.Optional = intToBool(optionalInt)
		t.IsPNC = intToBool(pncInt)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stage templates: %w", err)
	}
	return templates, nil
}

func (r *SQLiteTemplateRepo) ListEdges(ctx context.Context) ([]domain.DependencyEdge, error) {
	query := `SELECT from_code, depends_on_code, version FROM stage_dependencies`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing dependency edges: %w", err)
	}
	defer rows.Close()

	var edges []domain.DependencyEdge
	for rows.Next() {
		var e domain.DependencyEdge
		if err := rows.Scan(&e.FromCode, &e.DependsOnCode, &e.Version); err != nil {
			return nil, fmt.Errorf("scanning dependency edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dependency edges: %w", err)
	}
	return edges, nil
}

// ReplaceAll swaps the full template set. Intended for config seeding; run
// inside a transaction.
func (r *SQLiteTemplateRepo) ReplaceAll(ctx context.Context, templates []domain.StageTemplate, edges []domain.DependencyEdge) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stage_dependencies`); err != nil {
		return fmt.Errorf("clearing dependency edges: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stage_templates`); err != nil {
		return fmt.Errorf("clearing stage templates: %w", err)
	}

	for _, t := range templates {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO stage_templates (code, name, sequence, optional, is_pnc, version) VALUES (?, ?, ?, ?, ?, ?)`,
			t.Code, t.Name, t.Sequence, boolToInt(t.Optional), boolToInt(t.IsPNC), t.Version,
		)
		if err != nil {
			return fmt.Errorf("inserting stage template %s: %w", t.Code, err)
		}
	}
	for _, e := range edges {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO stage_dependencies (from_code, depends_on_code, version) VALUES (?, ?, ?)`,
			e.FromCode, e.DependsOnCode, e.Version,
		)
		if err != nil {
			return fmt.Errorf("inserting dependency edge %s -> %s: %w", e.FromCode, e.DependsOnCode, err)
		}
	}
	return nil
}
