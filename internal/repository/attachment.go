package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/newsboard/newsboard/internal/model"
)

var (
	ErrAttachmentNotFound = errors.New("attachment not found")
)

const attachmentColumns = `id, news_id, file_path, file_type, original_name`

type AttachmentRepository interface {
	CreateBatch(ctx context.Context, attachments []*model.Attachment) error
	ByID(ctx context.Context, id int64) (*model.Attachment, error)
	ByNewsID(ctx context.Context, newsID int64) ([]*model.Attachment, error)
	ByIDsForNews(ctx context.Context, newsID int64, ids []int64) ([]*model.Attachment, error)
	All(ctx context.Context) ([]*model.Attachment, error)
	UpdateOriginalName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
	DeleteByNewsID(ctx context.Context, newsID int64) error
	WithTx(tx *sqlx.Tx) AttachmentRepository
}

type attachmentRepository struct {
	db sqlx.ExtContext
}

func NewAttachmentRepository(db sqlx.ExtContext) AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) WithTx(tx *sqlx.Tx) AttachmentRepository {
	return &attachmentRepository{db: tx}
}

// CreateBatch inserts all rows with one multi-row statement. IDs are not populated.
func (r *attachmentRepository) CreateBatch(ctx context.Context, attachments []*model.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(attachments))
	args := make([]any, 0, len(attachments)*4)
	for _, a := range attachments {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, a.NewsID, a.FilePath, string(a.FileType), a.OriginalName)
	}

	query := `INSERT INTO attachments (news_id, file_path, file_type, original_name) VALUES ` + strings.Join(placeholders, ", ")
	_, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

func (r *attachmentRepository) ByID(ctx context.Context, id int64) (*model.Attachment, error) {
	attachment := &model.Attachment{}
	query := r.db.Rebind(`SELECT ` + attachmentColumns + ` FROM attachments WHERE id = ?`)

	err := sqlx.GetContext(ctx, r.db, attachment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAttachmentNotFound
	}
	if err != nil {
		return nil, err
	}

	return attachment, nil
}

func (r *attachmentRepository) ByNewsID(ctx context.Context, newsID int64) ([]*model.Attachment, error) {
	var attachments []*model.Attachment
	query := r.db.Rebind(`SELECT ` + attachmentColumns + ` FROM attachments WHERE news_id = ? ORDER BY id`)

	err := sqlx.SelectContext(ctx, r.db, &attachments, query, newsID)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

// ByIDsForNews returns the subset of ids that belong to newsID. Foreign ids are ignored.
func (r *attachmentRepository) ByIDsForNews(ctx context.Context, newsID int64, ids []int64) ([]*model.Attachment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`SELECT `+attachmentColumns+` FROM attachments WHERE news_id = ? AND id IN (?) ORDER BY id`, newsID, ids)
	if err != nil {
		return nil, err
	}

	var attachments []*model.Attachment
	err = sqlx.SelectContext(ctx, r.db, &attachments, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

func (r *attachmentRepository) All(ctx context.Context) ([]*model.Attachment, error) {
	var attachments []*model.Attachment

	err := sqlx.SelectContext(ctx, r.db, &attachments, `SELECT `+attachmentColumns+` FROM attachments ORDER BY id`)
	if err != nil {
		return nil, err
	}

	return attachments, nil
}

func (r *attachmentRepository) UpdateOriginalName(ctx context.Context, id int64, name string) error {
	query := r.db.Rebind(`UPDATE attachments SET original_name = ? WHERE id = ?`)

	_, err := r.db.ExecContext(ctx, query, name, id)
	return err
}

func (r *attachmentRepository) Delete(ctx context.Context, id int64) error {
	query := r.db.Rebind(`DELETE FROM attachments WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrAttachmentNotFound
	}

	return nil
}

func (r *attachmentRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM attachments WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	return err
}

func (r *attachmentRepository) DeleteByNewsID(ctx context.Context, newsID int64) error {
	query := r.db.Rebind(`DELETE FROM attachments WHERE news_id = ?`)

	_, err := r.db.ExecContext(ctx, query, newsID)
	return err
}
