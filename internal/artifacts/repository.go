package artifacts

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/parlorgames/byline/internal/state"
	"github.com/parlorgames/byline/pkg/formatting"
	"github.com/parlorgames/byline/pkg/pagination"
	"github.com/parlorgames/byline/pkg/query"
	"github.com/parlorgames/byline/pkg/repository"
	"github.com/parlorgames/byline/pkg/storage"
)

type repo struct {
	db         *sql.DB
	storage    storage.System
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an artifact repository implementing the System interface.
// Both db and store are required: artifact rows live in postgres, their
// content in blob storage.
func New(
	db *sql.DB,
	store storage.System,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		storage:    store,
		logger:     logger.With("system", "artifacts"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Artifact], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereSearch(page.Search, "StorageKey")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count artifacts: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanArtifact)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	q, args := query.NewBuilder(projection).BuildSingle("ID", id)

	a, err := repository.QueryOne(ctx, r.db, q, args, scanArtifact)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &a, nil
}

func (r *repo) ForSession(ctx context.Context, sessionID uuid.UUID) ([]Artifact, error) {
	q, args := query.
		NewBuilder(projection, query.SortField{Field: "Kind"}).
		WhereEquals("SessionID", sessionID).
		Build()

	items, err := repository.QueryMany(ctx, r.db, q, args, scanArtifact)
	if err != nil {
		return nil, fmt.Errorf("query session artifacts: %w", err)
	}
	return items, nil
}

func (r *repo) Download(ctx context.Context, id uuid.UUID) (*Artifact, *storage.DownloadResult, error) {
	a, err := r.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	result, err := r.storage.Download(ctx, a.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("download artifact %s: %w", id, err)
	}

	return a, result, nil
}

// Record stores both artifacts for a completed render: the content document
// as JSON and the rendered article as HTML. Blob keys are deterministic per
// session, so re-rendering after a rollback overwrites in place; the rows
// upsert to match.
func (r *repo) Record(ctx context.Context, sessionID uuid.UUID, doc state.ContentDocument, rendered string) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode content document: %w", err)
	}

	entries := []struct {
		kind        Kind
		key         string
		contentType string
		data        []byte
	}{
		{KindContent, contentKey(sessionID), "application/json", raw},
		{KindArticle, articleKey(sessionID), "text/html; charset=utf-8", []byte(rendered)},
	}

	for _, e := range entries {
		if err := r.storage.Upload(ctx, e.key, bytes.NewReader(e.data), e.contentType); err != nil {
			return fmt.Errorf("upload %s artifact: %w", e.kind, err)
		}
	}

	q := `
		INSERT INTO artifacts(id, session_id, kind, storage_key, content_type, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, kind) DO UPDATE SET
			storage_key = EXCLUDED.storage_key,
			content_type = EXCLUDED.content_type,
			size_bytes = EXCLUDED.size_bytes,
			created_at = NOW()`

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		for _, e := range entries {
			if err := repository.ExecExpectOne(
				ctx, tx, q,
				uuid.New(), sessionID, string(e.kind), e.key, e.contentType, int64(len(e.data)),
			); err != nil {
				return struct{}{}, fmt.Errorf("record %s artifact: %w", e.kind, err)
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("artifacts recorded",
		"session_id", sessionID,
		"article_size", formatting.FormatBytes(int64(len(rendered)), 1),
		"content_size", formatting.FormatBytes(int64(len(raw)), 1),
	)
	return nil
}
