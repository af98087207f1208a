package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	objects map[string]string
	putErr  error
}

func newMemStore() *memStore { return &memStore{objects: map[string]string{}} }

func (m *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if m.putErr != nil {
		return m.putErr
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = string(raw)
	return nil
}

func (m *memStore) PresignGet(_ context.Context, key, fileName string, expiry time.Duration) (string, error) {
	return "https://files.example/" + key + "?name=" + fileName + "&ttl=" + expiry.String(), nil
}

func (m *memStore) Remove(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func TestDocumentService_UploadAndLink(t *testing.T) {
	e := newEnv(t)
	store := newMemStore()
	docs := NewDocumentService(e.deals, store, zerolog.Nop()).WithClock(e.clock.Now)
	deal := e.createDeal(t, "Project Swift")

	doc, err := docs.Upload(e.ctx, advisor, deal.ID, UploadInput{Name: `C:\fakepath\Teaser.pdf`, Size: 5, Body: strings.NewReader("teaser")})
	require.NoError(t, err)
	assert.Equal(t, "Teaser.pdf", doc.Name)
	assert.Equal(t, "application/octet-stream", doc.ContentType)
	assert.Equal(t, "Ada Advisor", doc.UploadedBy)
	assert.Equal(t, "teaser", store.objects[doc.ObjectKey])

	list, err := docs.List(e.ctx, deal.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	link, err := docs.DownloadURL(e.ctx, deal.ID, doc.ID)
	require.NoError(t, err)
	assert.Contains(t, link.URL, doc.ObjectKey)
	assert.True(t, e.clock.Now().Add(15*time.Minute).Equal(link.ExpiresAt))

	_, err = docs.DownloadURL(e.ctx, deal.ID, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDocumentService_Errors(t *testing.T) {
	e := newEnv(t)
	deal := e.createDeal(t, "Project Kite")

	disabled := NewDocumentService(e.deals, nil, zerolog.Nop())
	_, err := disabled.Upload(e.ctx, advisor, deal.ID, UploadInput{Name: "a.pdf", Size: 1, Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	store := newMemStore()
	docs := NewDocumentService(e.deals, store, zerolog.Nop())
	_, err = docs.Upload(e.ctx, advisor, deal.ID, UploadInput{Name: "", Size: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = docs.Upload(e.ctx, advisor, deal.ID, UploadInput{Name: "big.zip", Size: maxDocumentSize + 1})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = docs.Upload(e.ctx, advisor, uuid.New(), UploadInput{Name: "a.pdf", Size: 1, Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, ErrNotFound)

	store.putErr = errors.New("bucket offline")
	_, err = docs.Upload(e.ctx, advisor, deal.ID, UploadInput{Name: "a.pdf", Size: 1, Body: strings.NewReader("a")})
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}
