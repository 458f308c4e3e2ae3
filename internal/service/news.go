package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/slug"
	"github.com/newsboard/newsboard/internal/storage"
	"github.com/newsboard/newsboard/internal/upload"
)

// NewsInput carries the validated mutable fields of an article.
type NewsInput struct {
	Title       string
	Category    string
	YoutubeLink string
	StartDate   time.Time
	EndDate     time.Time
}

type NewsService struct {
	db             *sqlx.DB
	newsRepo       repository.NewsRepository
	attachmentRepo repository.AttachmentRepository
	saver          *upload.Saver
	storage        storage.Storage
	categories     []string
	now            func() time.Time
}

type NewsOption func(*NewsService)

func WithNewsClock(now func() time.Time) NewsOption {
	return func(s *NewsService) { s.now = now }
}

func NewNewsService(db *sqlx.DB, newsRepo repository.NewsRepository, attachmentRepo repository.AttachmentRepository, saver *upload.Saver, st storage.Storage, categories []string, opts ...NewsOption) *NewsService {
	s := &NewsService{
		db:             db,
		newsRepo:       newsRepo,
		attachmentRepo: attachmentRepo,
		saver:          saver,
		storage:        st,
		categories:     categories,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now is the service clock.
func (s *NewsService) Now() time.Time {
	return s.now()
}

func (s *NewsService) Categories() []string {
	return s.categories
}

// ResolveCategory returns c when it is a known category and the first one otherwise.
func (s *NewsService) ResolveCategory(c string) string {
	if slices.Contains(s.categories, c) {
		return c
	}
	if len(s.categories) == 0 {
		return c
	}
	return s.categories[0]
}

func (s *NewsService) FileURL(key string) string {
	return s.storage.URL(key)
}

// List returns every article for the admin overview, newest start first.
func (s *NewsService) List(ctx context.Context) ([]*model.News, error) {
	items, err := s.newsRepo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

// ByID returns the article with its attachments.
func (s *NewsService) ByID(ctx context.Context, id int64) (*model.News, error) {
	news, err := s.newsRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	news.Attachments, err = s.attachmentRepo.ByNewsID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get attachments: %w", err)
	}
	return news, nil
}

// Create stores the files, then inserts the article and its attachment rows
// in one transaction. Files are removed again when the transaction fails.
func (s *NewsService) Create(ctx context.Context, in NewsInput, parts []upload.Part) (*model.News, error) {
	stored, err := s.saver.Save(ctx, parts, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to save files: %w", err)
	}

	news := &model.News{
		Title:       in.Title,
		Slug:        slug.Make(in.Title),
		Category:    s.ResolveCategory(in.Category),
		YoutubeLink: in.YoutubeLink,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
	}

	err = repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		err := s.newsRepo.WithTx(tx).Create(ctx, news)
		if err != nil {
			return fmt.Errorf("failed to create news: %w", err)
		}
		return s.attachmentRepo.WithTx(tx).CreateBatch(ctx, attachmentsFor(news.ID, stored))
	})
	if err != nil {
		s.saver.Discard(ctx, stored)
		return nil, err
	}

	slog.Info("news created", "news_id", news.ID, "attachments", len(stored))
	return news, nil
}

// Update overwrites the article, removes the selected attachments that belong
// to it and adds the new files. Removed files are unlinked after commit.
func (s *NewsService) Update(ctx context.Context, id int64, in NewsInput, deleteIDs []int64, parts []upload.Part) (*model.News, error) {
	// fail before touching storage
	_, err := s.newsRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stored, err := s.saver.Save(ctx, parts, in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("failed to save files: %w", err)
	}

	var news *model.News
	var removed []*model.Attachment

	err = repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		newsRepo := s.newsRepo.WithTx(tx)
		attachmentRepo := s.attachmentRepo.WithTx(tx)

		current, err := newsRepo.ByID(ctx, id)
		if err != nil {
			return err
		}

		current.Title = in.Title
		current.Slug = slug.Make(in.Title)
		current.Category = s.ResolveCategory(in.Category)
		current.YoutubeLink = in.YoutubeLink
		current.StartDate = in.StartDate
		current.EndDate = in.EndDate

		err = newsRepo.Update(ctx, current)
		if err != nil {
			return fmt.Errorf("failed to update news: %w", err)
		}

		removed, err = attachmentRepo.ByIDsForNews(ctx, id, deleteIDs)
		if err != nil {
			return fmt.Errorf("failed to get attachments: %w", err)
		}

		err = attachmentRepo.DeleteByIDs(ctx, attachmentIDs(removed))
		if err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}

		err = attachmentRepo.CreateBatch(ctx, attachmentsFor(id, stored))
		if err != nil {
			return fmt.Errorf("failed to create attachments: %w", err)
		}

		news = current
		return nil
	})
	if err != nil {
		s.saver.Discard(ctx, stored)
		return nil, err
	}

	upload.RemoveAll(ctx, s.storage, attachmentKeys(removed))

	slog.Info("news updated", "news_id", id, "added", len(stored), "removed", len(removed))
	return news, nil
}

// Delete removes the article and its attachment rows in one transaction and
// unlinks the files after commit.
func (s *NewsService) Delete(ctx context.Context, id int64) error {
	var attachments []*model.Attachment

	err := repository.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		newsRepo := s.newsRepo.WithTx(tx)
		attachmentRepo := s.attachmentRepo.WithTx(tx)

		_, err := newsRepo.ByID(ctx, id)
		if err != nil {
			return err
		}

		attachments, err = attachmentRepo.ByNewsID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get attachments: %w", err)
		}

		err = attachmentRepo.DeleteByNewsID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete attachments: %w", err)
		}

		return newsRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	upload.RemoveAll(ctx, s.storage, attachmentKeys(attachments))

	slog.Info("news deleted", "news_id", id, "attachments", len(attachments))
	return nil
}

// DeleteAttachment removes one attachment row and then its file.
func (s *NewsService) DeleteAttachment(ctx context.Context, id int64) error {
	attachment, err := s.attachmentRepo.ByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.attachmentRepo.Delete(ctx, id)
	if err != nil {
		return err
	}

	upload.RemoveAll(ctx, s.storage, []string{attachment.FilePath})

	slog.Info("attachment deleted", "attachment_id", id, "news_id", attachment.NewsID)
	return nil
}

// Home returns the active articles of the resolved category.
func (s *NewsService) Home(ctx context.Context, category string) (string, []*model.News, error) {
	category = s.ResolveCategory(category)

	items, err := s.newsRepo.Active(ctx, category, s.now())
	if err != nil {
		return category, nil, fmt.Errorf("failed to list active news: %w", err)
	}
	return category, items, nil
}

// Archive returns articles whose window has closed.
func (s *NewsService) Archive(ctx context.Context) ([]*model.News, error) {
	items, err := s.newsRepo.Archived(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list archived news: %w", err)
	}
	return items, nil
}

// Visible reports whether an anonymous reader may open news. Upcoming
// articles are only visible to administrators.
func (s *NewsService) Visible(news *model.News, admin bool) bool {
	return admin || !news.Upcoming(s.now())
}

// CountView increments the counter when the article is inside its publish
// window and reports whether it did.
func (s *NewsService) CountView(ctx context.Context, news *model.News) (bool, error) {
	if !news.Active(s.now()) {
		return false, nil
	}

	err := s.newsRepo.IncrementViewCount(ctx, news.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count view: %w", err)
	}
	news.ViewCount++
	return true, nil
}

// IsNotFound reports whether err means the article or attachment does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNewsNotFound) || errors.Is(err, repository.ErrAttachmentNotFound)
}

func attachmentsFor(newsID int64, stored []upload.Stored) []*model.Attachment {
	out := make([]*model.Attachment, 0, len(stored))
	for _, f := range stored {
		out = append(out, &model.Attachment{
			NewsID:       newsID,
			FilePath:     f.Key,
			FileType:     f.FileType,
			OriginalName: f.OriginalName,
		})
	}
	return out
}

func attachmentIDs(attachments []*model.Attachment) []int64 {
	ids := make([]int64, 0, len(attachments))
	for _, a := range attachments {
		ids = append(ids, a.ID)
	}
	return ids
}

func attachmentKeys(attachments []*model.Attachment) []string {
	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.FilePath)
	}
	return keys
}
