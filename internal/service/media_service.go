package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const MaxMediaSize = 100 << 20

var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {}, "mp4": {}, "mov": {},
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, fileName string, data []byte) (*models.MediaAsset, error)
	Get(ctx context.Context, userID, id int64) (*models.MediaAsset, error)
}

type mediaService struct {
	ma      repository.MediaAssetRepository
	storage ObjectStorage
}

func NewMediaService(ma repository.MediaAssetRepository, storage ObjectStorage) MediaService {
	return &mediaService{ma: ma, storage: storage}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, fileName string, data []byte) (*models.MediaAsset, error) {
	if len(data) == 0 {
		return nil, invalid("file", "file is empty")
	}
	if len(data) > MaxMediaSize {
		return nil, invalid("file", "file is too large")
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, invalid("file", "unsupported file type")
	}
	if _, ok := allowedMediaTypes[kind.Extension]; !ok {
		return nil, invalid("file", fmt.Sprintf("file type %s is not allowed", kind.Extension))
	}

	asset := &models.MediaAsset{
		UserID:    userID,
		FileName:  fileName,
		FileType:  kind.MIME.Value,
		MediaType: models.MediaTypeVideo,
		FileSize:  int64(len(data)),
	}
	if filetype.IsImage(data) {
		asset.MediaType = models.MediaTypeImage
		// webp has no registered decoder; dimensions stay zero.
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			asset.Width = cfg.Width
			asset.Height = cfg.Height
		}
	}

	name, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("%s.%s", name, kind.Extension)

	url, err := s.storage.Put(ctx, key, data, asset.FileType)
	if err != nil {
		return nil, fmt.Errorf("uploading media: %w", err)
	}
	asset.FileURL = url
	if asset.MediaType == models.MediaTypeImage {
		asset.ThumbnailURL = url
	}

	id, err := s.ma.Create(ctx, asset)
	if err != nil {
		return nil, &StoreError{Op: "save media", Err: err}
	}
	asset.ID = id
	return asset, nil
}

func (s *mediaService) Get(ctx context.Context, userID, id int64) (*models.MediaAsset, error) {
	owned, err := s.ma.CheckByUserID(ctx, id, userID)
	if err != nil {
		return nil, &StoreError{Op: "check media", Err: err}
	}
	if !owned {
		return nil, fmt.Errorf("media %d: %w", id, ErrNotFound)
	}
	asset, err := s.ma.GetByID(ctx, id)
	if err != nil {
		return nil, &StoreError{Op: "load media", Err: err}
	}
	if asset == nil {
		return nil, fmt.Errorf("media %d: %w", id, ErrNotFound)
	}
	return asset, nil
}
