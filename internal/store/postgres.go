package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"

	"github.com/MikeSquared-Agency/Prioritizer/internal/scoring"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// conflict maps unique and foreign key violations to ErrConflict.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23505" || pgErr.Code == "23503") {
		return goerr.Wrap(ErrConflict, pgErr.Message, goerr.V("constraint", pgErr.ConstraintName))
	}
	return err
}

func notFound(err error, what string, id uuid.UUID) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return goerr.Wrap(ErrNotFound, what, goerr.V("id", id))
	}
	return err
}

// --- Use cases ---

const useCaseColumns = `id, label, description, process_id, state, attributes,
	score, sub_scores, rating_error, rated_at,
	created_at, updated_at`

func (s *PostgresStore) CreateUseCase(ctx context.Context, uc *UseCase) error {
	if uc.State == "" {
		uc.State = StateDraft
	}
	attrsJSON, err := json.Marshal(uc.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO use_cases (label, description, process_id, state, attributes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		uc.Label, uc.Description, uc.ProcessID, uc.State, attrsJSON,
	).Scan(&uc.ID, &uc.CreatedAt, &uc.UpdatedAt)
	if err != nil {
		return conflict(err)
	}
	return nil
}

func (s *PostgresStore) GetUseCase(ctx context.Context, id uuid.UUID) (*UseCase, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+useCaseColumns+` FROM use_cases WHERE id = $1`, id)
	uc, err := scanUseCase(row)
	if err != nil {
		return nil, notFound(err, "use case not found", id)
	}
	return uc, nil
}

func (s *PostgresStore) ListUseCases(ctx context.Context, filter UseCaseFilter) ([]*UseCase, error) {
	query := `SELECT ` + useCaseColumns + ` FROM use_cases WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.ProcessID != nil {
		n++
		query += fmt.Sprintf(" AND process_id = $%d", n)
		args = append(args, *filter.ProcessID)
	}
	if filter.State != nil {
		n++
		query += fmt.Sprintf(" AND state = $%d", n)
		args = append(args, string(*filter.State))
	}

	query += " ORDER BY score DESC NULLS LAST, created_at ASC"

	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*UseCase
	for rows.Next() {
		uc, err := scanUseCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, rows.Err()
}

// UpdateUseCase writes the editable fields. Changing attributes or process
// resets the use case to draft until it is rated again.
func (s *PostgresStore) UpdateUseCase(ctx context.Context, uc *UseCase) error {
	attrsJSON, err := json.Marshal(uc.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}
	err = s.pool.QueryRow(ctx, `
		UPDATE use_cases SET
			label = $2, description = $3, process_id = $4, attributes = $5,
			state = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		uc.ID, uc.Label, uc.Description, uc.ProcessID, attrsJSON, StateDraft,
	).Scan(&uc.UpdatedAt)
	if err != nil {
		return notFound(err, "use case not found", uc.ID)
	}
	uc.State = StateDraft
	return nil
}

func (s *PostgresStore) DeleteUseCase(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM use_cases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	return nil
}

func (s *PostgresStore) SaveRating(ctx context.Context, id uuid.UUID, rating scoring.Rating) error {
	subJSON, err := json.Marshal(rating.SubScores)
	if err != nil {
		return fmt.Errorf("marshal sub scores: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE use_cases SET
			state = $2, score = $3, sub_scores = $4, rating_error = NULL,
			rated_at = now(), updated_at = now()
		WHERE id = $1`,
		id, StateRated, rating.Score, subJSON,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	return nil
}

func (s *PostgresStore) SaveRatingFailure(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE use_cases SET
			state = $2, score = NULL, sub_scores = NULL, rating_error = $3,
			rated_at = now(), updated_at = now()
		WHERE id = $1`,
		id, StateFailed, reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "use case not found", goerr.V("id", id))
	}
	return nil
}

func scanUseCase(row pgx.Row) (*UseCase, error) {
	uc := &UseCase{}
	var attrsJSON, subJSON []byte
	var ratingError sql.NullString
	if err := row.Scan(
		&uc.ID, &uc.Label, &uc.Description, &uc.ProcessID, &uc.State, &attrsJSON,
		&uc.Score, &subJSON, &ratingError, &uc.RatedAt,
		&uc.CreatedAt, &uc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if ratingError.Valid {
		uc.RatingError = ratingError.String
	}
	if attrsJSON != nil {
		if err := json.Unmarshal(attrsJSON, &uc.Attributes); err != nil {
			return nil, fmt.Errorf("decode attributes of %s: %w", uc.ID, err)
		}
	}
	if subJSON != nil {
		if err := json.Unmarshal(subJSON, &uc.SubScores); err != nil {
			return nil, fmt.Errorf("decode sub scores of %s: %w", uc.ID, err)
		}
	}
	return uc, nil
}

// --- Processes ---

func (s *PostgresStore) CreateProcess(ctx context.Context, p *Process) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO processes (label) VALUES ($1)
		RETURNING id, created_at, updated_at`, p.Label,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return conflict(err)
	}
	for label, w := range p.ValueWeights {
		if _, err := tx.Exec(ctx, `
			INSERT INTO process_weights (process_id, item_label, weight) VALUES ($1, $2, $3)`,
			p.ID, label, w,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) GetProcess(ctx context.Context, id uuid.UUID) (*Process, error) {
	p := &Process{ValueWeights: map[string]float64{}}
	err := s.pool.QueryRow(ctx, `
		SELECT id, label, created_at, updated_at FROM processes WHERE id = $1`, id,
	).Scan(&p.ID, &p.Label, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "process not found", id)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT item_label, weight FROM process_weights WHERE process_id = $1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		var w float64
		if err := rows.Scan(&label, &w); err != nil {
			return nil, err
		}
		p.ValueWeights[label] = w
	}
	return p, rows.Err()
}

func (s *PostgresStore) ListProcesses(ctx context.Context) ([]*Process, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, label, created_at, updated_at FROM processes ORDER BY label ASC`)
	if err != nil {
		return nil, err
	}
	var procs []*Process
	byID := make(map[uuid.UUID]*Process)
	for rows.Next() {
		p := &Process{ValueWeights: map[string]float64{}}
		if err := rows.Scan(&p.ID, &p.Label, &p.CreatedAt, &p.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		procs = append(procs, p)
		byID[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	wrows, err := s.pool.Query(ctx, `SELECT process_id, item_label, weight FROM process_weights`)
	if err != nil {
		return nil, err
	}
	defer wrows.Close()
	for wrows.Next() {
		var id uuid.UUID
		var label string
		var w float64
		if err := wrows.Scan(&id, &label, &w); err != nil {
			return nil, err
		}
		if p, ok := byID[id]; ok {
			p.ValueWeights[label] = w
		}
	}
	return procs, wrows.Err()
}

func (s *PostgresStore) DeleteProcess(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM processes WHERE id = $1`, id)
	if err != nil {
		return conflict(err)
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	return nil
}

// SetProcessWeights upserts value weights in one transaction.
func (s *PostgresStore) SetProcessWeights(ctx context.Context, id uuid.UUID, weights map[string]float64) error {
	if err := validateWeights(weights); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `UPDATE processes SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "process not found", goerr.V("id", id))
	}
	for label, weight := range weights {
		if _, err := tx.Exec(ctx, `
			INSERT INTO process_weights (process_id, item_label, weight) VALUES ($1, $2, $3)
			ON CONFLICT (process_id, item_label) DO UPDATE SET weight = EXCLUDED.weight`,
			id, label, weight,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// --- Judgments ---

func (s *PostgresStore) ReplaceJudgments(ctx context.Context, judgments []*Judgment) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM judgments`); err != nil {
		return err
	}
	for i, j := range judgments {
		if err := tx.QueryRow(ctx, `
			INSERT INTO judgments (position, layer, category1, category2, importance)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			i, string(j.Layer), j.Category1, j.Category2, j.Importance,
		).Scan(&j.ID, &j.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListJudgments(ctx context.Context) ([]*Judgment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, layer, category1, category2, importance, created_at
		FROM judgments ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Judgment
	for rows.Next() {
		j := &Judgment{}
		var layer string
		if err := rows.Scan(&j.ID, &layer, &j.Category1, &j.Category2, &j.Importance, &j.CreatedAt); err != nil {
			return nil, err
		}
		j.Layer = scoring.Layer(layer)
		out = append(out, j)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
