package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/ballot/internal/core/domain"
	"github.com/vncsmyrnk/ballot/internal/core/ports"
)

type candidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) ports.CandidateRepository {
	return &candidateRepository{
		db: db,
	}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *domain.Candidate) error {
	query := `
		INSERT INTO candidates (id, name, party, age, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, candidate.ID, candidate.Name, candidate.Party, nullAge(candidate.Age), candidate.CreatedAt)
	if err != nil {
		return domain.NewStoreError("insert candidate", err)
	}
	return nil
}

func (r *candidateRepository) Update(ctx context.Context, id uuid.UUID, patch domain.CandidatePatch) (*domain.Candidate, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	candidate, err := r.scanCandidate(tx.QueryRowContext(ctx, `
		SELECT id, name, party, age, vote_count, created_at
		FROM candidates
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		return nil, err
	}

	patch.Apply(candidate)

	_, err = tx.ExecContext(ctx, `
		UPDATE candidates SET name = $2, party = $3, age = $4 WHERE id = $1
	`, candidate.ID, candidate.Name, candidate.Party, nullAge(candidate.Age))
	if err != nil {
		return nil, domain.NewStoreError("update candidate", err)
	}

	votes, err := fetchVotes(ctx, tx, candidate.ID)
	if err != nil {
		return nil, err
	}
	candidate.Votes = votes

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStoreError("commit transaction", err)
	}
	return candidate, nil
}

func (r *candidateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return domain.NewStoreError("delete candidate", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.NewStoreError("delete candidate", err)
	}
	if n == 0 {
		return domain.ErrCandidateNotFound
	}
	return nil
}

func (r *candidateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	candidate, err := r.scanCandidate(tx.QueryRowContext(ctx, `
		SELECT id, name, party, age, vote_count, created_at
		FROM candidates
		WHERE id = $1
	`, id))
	if err != nil {
		return nil, err
	}

	votes, err := fetchVotes(ctx, tx, candidate.ID)
	if err != nil {
		return nil, err
	}
	candidate.Votes = votes

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStoreError("commit transaction", err)
	}
	return candidate, nil
}

func (r *candidateRepository) GetAll(ctx context.Context) ([]*domain.Candidate, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, domain.NewStoreError("begin transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, party, age, vote_count, created_at
		FROM candidates
		ORDER BY seq
	`)
	if err != nil {
		return nil, domain.NewStoreError("get all candidates", err)
	}

	var candidates []*domain.Candidate
	for rows.Next() {
		candidate, err := r.scanCandidate(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, domain.NewStoreError("iterate candidates", err)
	}
	rows.Close()

	for _, c := range candidates {
		votes, err := fetchVotes(ctx, tx, c.ID)
		if err != nil {
			return nil, err
		}
		c.Votes = votes
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.NewStoreError("commit transaction", err)
	}
	return candidates, nil
}

func (r *candidateRepository) ListTallies(ctx context.Context) ([]domain.Tally, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, party, vote_count FROM candidates ORDER BY seq`)
	if err != nil {
		return nil, domain.NewStoreError("list tallies", err)
	}
	defer rows.Close()

	var tallies []domain.Tally
	for rows.Next() {
		var t domain.Tally
		if err := rows.Scan(&t.CandidateID, &t.Party, &t.Count); err != nil {
			return nil, domain.NewStoreError("scan tally", err)
		}
		tallies = append(tallies, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError("iterate tallies", err)
	}
	return tallies, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *candidateRepository) scanCandidate(row rowScanner) (*domain.Candidate, error) {
	var (
		c   domain.Candidate
		age sql.NullInt32
	)
	err := row.Scan(&c.ID, &c.Name, &c.Party, &age, &c.VoteCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, domain.NewStoreError("scan candidate", err)
	}
	if age.Valid {
		v := int(age.Int32)
		c.Age = &v
	}
	return &c, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func fetchVotes(ctx context.Context, q queryer, candidateID uuid.UUID) ([]domain.VoteRecord, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT user_id, voted_at
		FROM candidate_votes
		WHERE candidate_id = $1
		ORDER BY id
	`, candidateID)
	if err != nil {
		return nil, domain.NewStoreError("get vote records", err)
	}
	defer rows.Close()

	votes := []domain.VoteRecord{}
	for rows.Next() {
		var v domain.VoteRecord
		if err := rows.Scan(&v.VoterID, &v.VotedAt); err != nil {
			return nil, domain.NewStoreError("scan vote record", err)
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.NewStoreError(fmt.Sprintf("iterate vote records of %s", candidateID), err)
	}
	return votes, nil
}

// nullAge expects an age already checked by domain.ValidateAge.
func nullAge(age *int) sql.NullInt32 {
	if age == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*age), Valid: true}
}
