package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sortlab/sortlab-api/internal/domain"
	"github.com/sortlab/sortlab-api/internal/platform/logger"
	"github.com/sortlab/sortlab-api/internal/store"
)

// PostgresStudyStore implements the store.StudyStore interface using a
// PostgreSQL database as the storage backend. Card decks and predefined
// category lists are stored as JSONB documents; they are read and written
// whole, never queried into.
type PostgresStudyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudyStore creates a new PostgreSQL implementation of the
// StudyStore interface. If log is nil, the default logger is used.
func NewPostgresStudyStore(db store.DBTX, log *slog.Logger) *PostgresStudyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &PostgresStudyStore{
		db:     db,
		logger: log.With(slog.String("component", "study_store")),
	}
}

var _ store.StudyStore = (*PostgresStudyStore)(nil)

// Create implements store.StudyStore.Create.
// Returns store.ErrInvalidEntity if the owner does not exist.
func (s *PostgresStudyStore) Create(ctx context.Context, study *domain.Study) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := study.Validate(); err != nil {
		log.Warn("study validation failed during create",
			slog.String("error", err.Error()),
			slog.String("study_id", study.ID.String()))
		return err
	}

	cards, err := json.Marshal(study.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal study cards: %w", err)
	}
	categories, err := json.Marshal(study.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal study categories: %w", err)
	}

	query := `
		INSERT INTO studies (id, owner_id, title, description, cards, categories, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		study.ID, study.OwnerID, study.Title, study.Description,
		cards, categories, study.Status, study.CreatedAt, study.UpdatedAt)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during study creation",
				slog.String("study_id", study.ID.String()),
				slog.String("owner_id", study.OwnerID.String()))
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, study.OwnerID)
		}
		log.Error("failed to create study",
			slog.String("error", err.Error()),
			slog.String("study_id", study.ID.String()))
		return MapError(err)
	}

	log.Info("study created successfully",
		slog.String("study_id", study.ID.String()),
		slog.String("owner_id", study.OwnerID.String()))
	return nil
}

// GetByID implements store.StudyStore.GetByID.
// Returns store.ErrStudyNotFound if the study does not exist.
func (s *PostgresStudyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Study, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, title, description, cards, categories, status, created_at, updated_at
		FROM studies
		WHERE id = $1
	`

	study, err := scanStudy(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("study not found", slog.String("study_id", id.String()))
			return nil, store.ErrStudyNotFound
		}
		log.Error("failed to get study by ID",
			slog.String("error", err.Error()),
			slog.String("study_id", id.String()))
		return nil, MapError(err)
	}

	return study, nil
}

// FindByOwner implements store.StudyStore.FindByOwner.
func (s *PostgresStudyStore) FindByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
	limit, offset int,
) ([]*domain.Study, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, owner_id, title, description, cards, categories, status, created_at, updated_at
		FROM studies
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		log.Error("failed to query studies by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	studies := []*domain.Study{}
	for rows.Next() {
		study, err := scanStudy(rows)
		if err != nil {
			log.Error("failed to scan study row",
				slog.String("error", err.Error()))
			return nil, err
		}
		studies = append(studies, study)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning study rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	return studies, nil
}

// Update implements store.StudyStore.Update.
// Returns store.ErrStudyNotFound if the study does not exist.
func (s *PostgresStudyStore) Update(ctx context.Context, study *domain.Study) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := study.Validate(); err != nil {
		log.Warn("study validation failed during update",
			slog.String("error", err.Error()),
			slog.String("study_id", study.ID.String()))
		return err
	}

	cards, err := json.Marshal(study.Cards)
	if err != nil {
		return fmt.Errorf("failed to marshal study cards: %w", err)
	}
	categories, err := json.Marshal(study.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal study categories: %w", err)
	}

	study.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE studies
		SET title = $1, description = $2, cards = $3, categories = $4, status = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		study.Title, study.Description, cards, categories, study.Status, study.UpdatedAt, study.ID)
	if err != nil {
		log.Error("failed to update study",
			slog.String("error", err.Error()),
			slog.String("study_id", study.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrStudyNotFound)
}

// UpdateStatus implements store.StudyStore.UpdateStatus.
// Returns store.ErrStudyNotFound if the study does not exist.
func (s *PostgresStudyStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.StudyStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	switch status {
	case domain.StudyStatusDraft, domain.StudyStatusActive, domain.StudyStatusClosed:
	default:
		return domain.ErrInvalidStudyState
	}

	query := `
		UPDATE studies
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update study status",
			slog.String("error", err.Error()),
			slog.String("study_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStudyNotFound); err != nil {
		return err
	}

	log.Info("study status updated successfully",
		slog.String("study_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Delete implements store.StudyStore.Delete. Results and insights go with the
// study via ON DELETE CASCADE.
func (s *PostgresStudyStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM studies WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete study",
			slog.String("error", err.Error()),
			slog.String("study_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStudyNotFound); err != nil {
		return err
	}

	log.Info("study deleted successfully",
		slog.String("study_id", id.String()))
	return nil
}

// WithTx implements store.StudyStore.WithTx.
func (s *PostgresStudyStore) WithTx(tx *sql.Tx) store.StudyStore {
	return &PostgresStudyStore{db: tx, logger: s.logger}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudy(row rowScanner) (*domain.Study, error) {
	var study domain.Study
	var status string
	var cards, categories []byte

	err := row.Scan(
		&study.ID, &study.OwnerID, &study.Title, &study.Description,
		&cards, &categories, &status, &study.CreatedAt, &study.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(cards, &study.Cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal study cards: %w", err)
	}
	if err := json.Unmarshal(categories, &study.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal study categories: %w", err)
	}
	study.Status = domain.StudyStatus(status)

	return &study, nil
}

func closeRows(rows *sql.Rows, log *slog.Logger) {
	if err := rows.Close(); err != nil {
		log.Error("failed to close rows", slog.String("error", err.Error()))
	}
}
