package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStorage struct {
	objects map[string][]byte
}

func (s *memoryStorage) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	s.objects[key] = body
	return "https://media.example.com/" + key, nil
}

func TestUploadImageRecordsDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 64, 32))))

	store := memory.NewStore()
	storage := &memoryStorage{objects: map[string][]byte{}}
	svc := NewMediaService(store.MediaAssets(), storage)

	asset, err := svc.Upload(context.Background(), 7, "banner.png", buf.Bytes())
	require.NoError(t, err)
	assert.NotZero(t, asset.ID)
	assert.Equal(t, models.MediaTypeImage, asset.MediaType)
	assert.Equal(t, "image/png", asset.FileType)
	assert.Equal(t, 64, asset.Width)
	assert.Equal(t, 32, asset.Height)
	assert.Contains(t, asset.FileURL, "https://media.example.com/")
	assert.Len(t, storage.objects, 1)

	got, err := svc.Get(context.Background(), 7, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.FileURL, got.FileURL)

	_, err = svc.Get(context.Background(), 8, asset.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadRejectsUnknownType(t *testing.T) {
	store := memory.NewStore()
	svc := NewMediaService(store.MediaAssets(), &memoryStorage{objects: map[string][]byte{}})

	_, err := svc.Upload(context.Background(), 7, "notes.txt", []byte("just some text"))
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
