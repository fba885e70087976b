package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stockpile/stockpile-go/internal/crypto"
	"github.com/stockpile/stockpile-go/internal/model"
	"github.com/stockpile/stockpile-go/internal/repository"
	"github.com/stockpile/stockpile-go/internal/storage"
)

var (
	pngData  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	jpegData = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")
	textData = []byte("this is definitely not an image")
)

var fastHashParams = crypto.HashParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memUserStore is an in-memory UserStore keyed by email.
type memUserStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int
	failErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]*model.User)}
}

func (s *memUserStore) Create(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	s.nextID++
	user.ID = fmt.Sprintf("user-%d", s.nextID)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	s.users[user.Email] = &stored
	return nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// memProductStore is an in-memory ProductStore. Filters are ignored; the
// repository tests cover them.
type memProductStore struct {
	mu        sync.Mutex
	products  map[string]model.Product
	nextID    int
	createErr error
	updateErr error
	lastQuery model.ProductQuery
}

func newMemProductStore() *memProductStore {
	return &memProductStore{products: make(map[string]model.Product)}
}

func (s *memProductStore) Create(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	p.ID = fmt.Sprintf("product-%03d", s.nextID)
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = *p
	return nil
}

func (s *memProductStore) GetByID(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return &p, nil
}

func (s *memProductStore) Update(_ context.Context, id string, patch model.ProductPatch) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Quantity != nil {
		p.Quantity = *patch.Quantity
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	p.UpdatedAt = time.Now().UTC()
	s.products[id] = p
	return &p, nil
}

func (s *memProductStore) Delete(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	delete(s.products, id)
	return &p, nil
}

func (s *memProductStore) Find(_ context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q

	all := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	start := min(q.Offset(), len(all))
	end := min(start+q.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

// failingDeleteStore wraps an ImageStore whose deletes always fail.
type failingDeleteStore struct {
	storage.ImageStore
}

func (failingDeleteStore) Delete(context.Context, string) error {
	return errors.New("object storage unavailable")
}

func newDiskStore(t *testing.T) (*storage.DiskStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() unexpected error: %v", err)
	}
	return store, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() unexpected error: %v", err)
	}
	return len(entries)
}

func imageExists(t *testing.T, store storage.ImageStore, path string) bool {
	t.Helper()
	rc, err := store.Open(context.Background(), path)
	if errors.Is(err, storage.ErrNotFound) {
		return false
	}
	if err != nil {
		t.Fatalf("Open(%q) unexpected error: %v", path, err)
	}
	rc.Close()
	return true
}
