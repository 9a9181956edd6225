package lead

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type leadModel struct {
	bun.BaseModel `bun:"table:leads,alias:l"`

	Seq      int64    `bun:"seq,pk,autoincrement"`
	ID       int      `bun:"id,notnull"`
	Name     string   `bun:"name,notnull"`
	Contact  string   `bun:"contact,notnull"`
	Industry string   `bun:"industry,notnull"`
	Status   string   `bun:"status,notnull"`
	Notes    []string `bun:"notes,array"`
}

func toModel(l Lead) leadModel {
	l = normalize(l)
	return leadModel{
		ID:       l.ID,
		Name:     l.Name,
		Contact:  l.Contact,
		Industry: l.Industry,
		Status:   string(l.Status),
		Notes:    l.Notes,
	}
}

func (m leadModel) lead() Lead {
	return normalize(Lead{
		ID:       m.ID,
		Name:     m.Name,
		Contact:  m.Contact,
		Industry: m.Industry,
		Status:   Status(m.Status),
		Notes:    append([]string(nil), m.Notes...),
	})
}

// PostgresStore keeps leads in Postgres through bun. Updates lock the target
// row with SELECT ... FOR UPDATE.
type PostgresStore struct {
	db *bun.DB
}

var _ Store = (*PostgresStore)(nil)

func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*leadModel)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create leads table: %w", err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*leadModel)(nil)).
		Index("idx_leads_id").
		Column("id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create leads index: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*leadModel)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Insert(ctx context.Context, leads ...Lead) error {
	if len(leads) == 0 {
		return nil
	}
	models := make([]leadModel, 0, len(leads))
	for _, l := range leads {
		models = append(models, toModel(l))
	}
	if _, err := s.db.NewInsert().Model(&models).Exec(ctx); err != nil {
		return fmt.Errorf("insert leads: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int) (Lead, error) {
	var m leadModel
	err := s.db.NewSelect().
		Model(&m).
		Where("id = ?", id).
		OrderExpr("seq ASC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Lead{}, &NotFoundError{ID: id}
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead %d: %w", id, err)
	}
	return m.lead(), nil
}

func (s *PostgresStore) Search(ctx context.Context, match Matcher) ([]Lead, error) {
	var models []leadModel
	if err := s.db.NewSelect().Model(&models).OrderExpr("seq ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("scan leads: %w", err)
	}
	out := make([]Lead, 0, len(models))
	for _, m := range models {
		l := m.lead()
		if match == nil || match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int, mutate func(*Lead) error) (Lead, error) {
	var updated Lead
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var m leadModel
		err := tx.NewSelect().
			Model(&m).
			Where("id = ?", id).
			OrderExpr("seq ASC").
			Limit(1).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return &NotFoundError{ID: id}
		}
		if err != nil {
			return fmt.Errorf("lock lead %d: %w", id, err)
		}

		current := m.lead()
		if mutate != nil {
			if err := mutate(&current); err != nil {
				return err
			}
		}
		current = normalize(current)

		m.Status = string(current.Status)
		m.Notes = current.Notes
		if _, err := tx.NewUpdate().
			Model(&m).
			Column("status", "notes").
			WherePK().
			Exec(ctx); err != nil {
			return fmt.Errorf("update lead %d: %w", id, err)
		}
		updated = m.lead()
		return nil
	})
	if err != nil {
		return Lead{}, err
	}
	return updated, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
