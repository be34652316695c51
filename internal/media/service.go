package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tidebook/booking-backend/internal/pkg/storage"
)

type Service interface {
	Upload(ctx context.Context, tenantID, userID string, header *multipart.FileHeader) (*Media, error)
	Get(ctx context.Context, tenantID, id string) (*Media, error)
	List(ctx context.Context, tenantID string, page, pageSize int) ([]*Media, int, error)
	Download(ctx context.Context, tenantID, id string) (io.ReadCloser, *Media, error)
	DownloadThumbnail(ctx context.Context, tenantID, id string) (io.ReadCloser, *Media, error)
	Delete(ctx context.Context, tenantID, id string) error
}

type service struct {
	repo    Repository
	storage storage.Storage
	thumbs  *storage.Thumbnailer
}

func NewService(repo Repository, store storage.Storage) Service {
	return &service{
		repo:    repo,
		storage: store,
		thumbs:  storage.NewThumbnailer(400, 400),
	}
}

func (s *service) Upload(ctx context.Context, tenantID, userID string, header *multipart.FileHeader) (*Media, error) {
	if header.Size == 0 {
		return nil, ErrEmptyUpload
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file failed: %w", err)
	}
	defer src.Close()

	// Buffered so the content can be read twice: once for the original,
	// once for the thumbnail. Uploads are images, so this stays small.
	fileBytes, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read file content failed: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	ext := strings.ToLower(filepath.Ext(header.Filename))

	id := uuid.New().String()
	shard := id[:2]
	storagePath := fmt.Sprintf("%s/%s/%s%s", tenantID, shard, id, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(fileBytes)); err != nil {
		return nil, fmt.Errorf("save media to storage failed: %w", err)
	}

	var thumbnailPath *string
	if strings.HasPrefix(contentType, "image/") {
		thumb, err := s.thumbs.Generate(bytes.NewReader(fileBytes))
		if err != nil {
			// An undecodable image still uploads; it just has no thumbnail.
			log.Printf("generate thumbnail for %s failed: %v", id, err)
		} else {
			tPath := fmt.Sprintf("%s/%s/%s_thumb.jpg", tenantID, shard, id)
			if err := s.storage.Save(ctx, tPath, thumb); err != nil {
				log.Printf("save thumbnail for %s failed: %v", id, err)
			} else {
				thumbnailPath = &tPath
			}
		}
	}

	m := &Media{
		ID:            id,
		TenantID:      tenantID,
		UploadedBy:    userID,
		Filename:      header.Filename,
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(fileBytes)),
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, m); err != nil {
		// Best-effort cleanup of the orphaned blobs.
		_ = s.storage.Delete(ctx, storagePath)
		if thumbnailPath != nil {
			_ = s.storage.Delete(ctx, *thumbnailPath)
		}
		return nil, err
	}
	return m, nil
}

func (s *service) Get(ctx context.Context, tenantID, id string) (*Media, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, page, pageSize int) ([]*Media, int, error) {
	return s.repo.List(ctx, tenantID, page, pageSize)
}

func (s *service) Download(ctx context.Context, tenantID, id string) (io.ReadCloser, *Media, error) {
	m, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.storage.Get(ctx, m.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("get media content failed: %w", err)
	}
	return rc, m, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, tenantID, id string) (io.ReadCloser, *Media, error) {
	m, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if m.ThumbnailPath == nil {
		return nil, nil, ErrNotFound
	}
	rc, err := s.storage.Get(ctx, *m.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("get thumbnail content failed: %w", err)
	}
	return rc, m, nil
}

func (s *service) Delete(ctx context.Context, tenantID, id string) error {
	m, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	// Blob cleanup after the record is gone; a failed blob delete leaves
	// garbage, not a dangling record.
	if err := s.storage.Delete(ctx, m.StoragePath); err != nil {
		log.Printf("delete media blob %s failed: %v", m.StoragePath, err)
	}
	if m.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *m.ThumbnailPath); err != nil {
			log.Printf("delete thumbnail blob %s failed: %v", *m.ThumbnailPath, err)
		}
	}
	return nil
}
