// Package memory is a process-local implementation of the repository
// interfaces. It is used when no Postgres URI is configured and by tests.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/maheshrc27/postpilot/internal/models"
	"github.com/maheshrc27/postpilot/internal/repository"
)

type Store struct {
	mu       sync.Mutex
	seq      int64
	users    map[int64]*models.User
	apiKeys  map[int64]*models.ApiKey
	brands   map[int64]*models.Brand
	accounts map[int64]*models.SocialAccount
	media    map[int64]*models.MediaAsset
	posts    map[int64]*models.Post
	history  []*models.PostingHistory
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    map[int64]*models.User{},
		apiKeys:  map[int64]*models.ApiKey{},
		brands:   map[int64]*models.Brand{},
		accounts: map[int64]*models.SocialAccount{},
		media:    map[int64]*models.MediaAsset{},
		posts:    map[int64]*models.Post{},
		now:      time.Now,
	}
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) ApiKeys() repository.ApiKeyRepository { return apiKeyRepo{s} }
func (s *Store) Brands() repository.BrandRepository { return brandRepo{s} }
func (s *Store) SocialAccounts() repository.SocialAccountRepository { return accountRepo{s} }
func (s *Store) MediaAssets() repository.MediaAssetRepository { return mediaRepo{s} }
func (s *Store) Posts() repository.PostRepository { return postRepo{s} }
func (s *Store) PostingHistory() repository.PostingHistoryRepository { return historyRepo{s} }

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Platforms = append([]string(nil), p.Platforms...)
	return &c
}

func (s *Store) ownsBrand(userID, brandID int64) bool {
	b, ok := s.brands[brandID]
	return ok && b.UserID == userID
}

type postRepo struct{ s *Store }

func (r postRepo) Create(ctx context.Context, post *models.Post) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	post.ID = r.s.nextID()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.s.posts[post.ID] = clonePost(post)
	return post.ID, nil
}

func (r postRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r postRepo) GetOwned(ctx context.Context, userID, id int64) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || !r.s.ownsBrand(userID, p.BrandID) {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r postRepo) ListByBrand(ctx context.Context, userID, brandID int64, status string) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.ownsBrand(userID, brandID) {
		return nil, nil
	}
	var posts []*models.Post
	for _, p := range r.s.posts {
		if p.BrandID == brandID && (status == "" || p.Status == status) {
			posts = append(posts, clonePost(p))
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts, nil
}

func (r postRepo) ListDue(ctx context.Context, from, to time.Time) ([]*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var posts []*models.Post
	for _, p := range r.s.posts {
		if p.Status != models.PostStatusScheduled || !p.ScheduledFor.Valid {
			continue
		}
		at := p.ScheduledFor.Time
		if at.Before(from) || at.After(to) {
			continue
		}
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].ScheduledFor.Time.Before(posts[j].ScheduledFor.Time)
	})
	return posts, nil
}

func (r postRepo) Update(ctx context.Context, id int64, expectedStatus string, changes *models.PostChanges) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.Status != expectedStatus {
		return nil, repository.ErrNoRowsAffected
	}
	if changes.Status != nil {
		p.Status = *changes.Status
	}
	if changes.FinalCaption != nil {
		p.FinalCaption = *changes.FinalCaption
	}
	if changes.Platforms != nil {
		p.Platforms = append([]string(nil), changes.Platforms...)
	}
	if changes.ScheduledFor != nil {
		p.ScheduledFor = sql.NullTime{Time: *changes.ScheduledFor, Valid: true}
	}
	p.UpdatedAt = r.s.now()
	return clonePost(p), nil
}

func (r postRepo) Transition(ctx context.Context, id int64, change models.StatusChange) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || p.Status != change.From {
		return nil, repository.ErrNoRowsAffected
	}
	if change.ScheduledFor != nil && !sameTime(p.ScheduledFor, *change.ScheduledFor) {
		return nil, repository.ErrNoRowsAffected
	}
	p.Status = change.To
	switch change.To {
	case models.PostStatusPosted:
		if !p.PostedAt.Valid {
			p.PostedAt = sql.NullTime{Time: change.At, Valid: true}
		}
		p.ErrorMessage = sql.NullString{}
	case models.PostStatusFailed:
		p.ErrorMessage = sql.NullString{String: change.ErrorMessage, Valid: true}
	}
	p.UpdatedAt = change.At
	return clonePost(p), nil
}

func sameTime(a, b sql.NullTime) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Time.Equal(b.Time)
}

func (r postRepo) Remove(ctx context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok || !r.s.ownsBrand(userID, p.BrandID) {
		return repository.ErrNoRowsAffected
	}
	delete(r.s.posts, id)
	return nil
}

type accountRepo struct{ s *Store }

func (r accountRepo) Upsert(ctx context.Context, sa *models.SocialAccount) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for _, existing := range r.s.accounts {
		if existing.BrandID == sa.BrandID && existing.Platform == sa.Platform {
			existing.AccountID = sa.AccountID
			existing.AccountUsername = sa.AccountUsername
			existing.PageID = sa.PageID
			existing.AccessToken = sa.AccessToken
			existing.IsActive = true
			existing.UpdatedAt = now
			return existing.ID, nil
		}
	}

	c := *sa
	c.ID = r.s.nextID()
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	r.s.accounts[c.ID] = &c
	return c.ID, nil
}

func (r accountRepo) ListByBrand(ctx context.Context, userID, brandID int64) ([]*models.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if !r.s.ownsBrand(userID, brandID) {
		return nil, nil
	}
	var out []*models.SocialAccount
	for _, sa := range r.s.accounts {
		if sa.BrandID == brandID {
			c := *sa
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func (r accountRepo) ListActiveForBrand(ctx context.Context, brandID int64, platforms []string) ([]*models.SocialAccount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.brands[brandID]; !ok {
		return nil, nil
	}
	wanted := map[string]bool{}
	for _, p := range platforms {
		wanted[p] = true
	}
	var out []*models.SocialAccount
	for _, sa := range r.s.accounts {
		if sa.BrandID == brandID && sa.IsActive && wanted[sa.Platform] {
			c := *sa
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r accountRepo) SetActive(ctx context.Context, userID, id int64, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sa, ok := r.s.accounts[id]
	if !ok || !r.s.ownsBrand(userID, sa.BrandID) {
		return repository.ErrNoRowsAffected
	}
	sa.IsActive = active
	sa.UpdatedAt = r.s.now()
	return nil
}

func (r accountRepo) Remove(ctx context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sa, ok := r.s.accounts[id]
	if !ok || !r.s.ownsBrand(userID, sa.BrandID) {
		return repository.ErrNoRowsAffected
	}
	delete(r.s.accounts, id)
	return nil
}

type brandRepo struct{ s *Store }

func (r brandRepo) Create(ctx context.Context, brand *models.Brand) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *brand
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.brands[c.ID] = &c
	return c.ID, nil
}

func (r brandRepo) GetByID(ctx context.Context, userID, id int64) (*models.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.brands[id]
	if !ok || b.UserID != userID {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (r brandRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.Brand
	for _, b := range r.s.brands {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r brandRepo) Update(ctx context.Context, brand *models.Brand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.brands[brand.ID]
	if !ok || b.UserID != brand.UserID {
		return repository.ErrNoRowsAffected
	}
	b.Name = brand.Name
	b.Description = brand.Description
	b.Voice = brand.Voice
	b.Audience = brand.Audience
	b.Hashtags = brand.Hashtags
	b.UpdatedAt = r.s.now()
	return nil
}

func (r brandRepo) Remove(ctx context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.brands[id]
	if !ok || b.UserID != userID {
		return repository.ErrNoRowsAffected
	}
	delete(r.s.brands, id)
	for pid, p := range r.s.posts {
		if p.BrandID == id {
			delete(r.s.posts, pid)
		}
	}
	for aid, sa := range r.s.accounts {
		if sa.BrandID == id {
			delete(r.s.accounts, aid)
		}
	}
	return nil
}

type mediaRepo struct{ s *Store }

func (r mediaRepo) Create(ctx context.Context, ma *models.MediaAsset) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *ma
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	r.s.media[c.ID] = &c
	return c.ID, nil
}

func (r mediaRepo) GetByID(ctx context.Context, id int64) (*models.MediaAsset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ma, ok := r.s.media[id]
	if !ok {
		return nil, nil
	}
	c := *ma
	return &c, nil
}

func (r mediaRepo) CheckByUserID(ctx context.Context, id, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ma, ok := r.s.media[id]
	return ok && ma.UserID == userID, nil
}

type historyRepo struct{ s *Store }

func (r historyRepo) Create(ctx context.Context, ph *models.PostingHistory) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *ph
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	r.s.history = append(r.s.history, &c)
	return c.ID, nil
}

func (r historyRepo) ListByPostID(ctx context.Context, postID int64) ([]*models.PostingHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.PostingHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if h := r.s.history[i]; h.PostID == postID {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id int64) (*models.User, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, false, nil
	}
	c := *u
	return &c, true, nil
}

func (r userRepo) UpsertByEmail(ctx context.Context, user *models.User) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			u.GoogleID = user.GoogleID
			u.Name = user.Name
			u.ProfilePicture = user.ProfilePicture
			u.UpdatedAt = r.s.now()
			return u.ID, nil
		}
	}
	c := *user
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.users[c.ID] = &c
	return c.ID, nil
}

type apiKeyRepo struct{ s *Store }

func (r apiKeyRepo) GetUserIDByKey(ctx context.Context, apiKey string) (int64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, k := range r.s.apiKeys {
		if k.ApiKey == apiKey {
			return k.UserID, true, nil
		}
	}
	return 0, false, nil
}

func (r apiKeyRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.ApiKey, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*models.ApiKey
	for _, k := range r.s.apiKeys {
		if k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r apiKeyRepo) Create(ctx context.Context, apiKey *models.ApiKey) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *apiKey
	c.ID = r.s.nextID()
	c.CreatedAt = r.s.now()
	r.s.apiKeys[c.ID] = &c
	return c.ID, nil
}

func (r apiKeyRepo) Remove(ctx context.Context, userID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k, ok := r.s.apiKeys[id]
	if !ok || k.UserID != userID {
		return repository.ErrNoRowsAffected
	}
	delete(r.s.apiKeys, id)
	return nil
}
