package repository

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"wanderlust/internal/model"
)

// memoryDB is the process-local backing for the memory driver.
type memoryDB struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	listings map[string]model.Listing
	order    []string
	reviews  map[string]model.Review
	users    map[string]model.User
	images   map[string]memoryImage
}

type memoryImage struct {
	filename string
	data     []byte
}

func NewMemoryStore() *Store {
	db := &memoryDB{
		listings: map[string]model.Listing{},
		reviews:  map[string]model.Review{},
		users:    map[string]model.User{},
		images:   map[string]memoryImage{},
	}
	return &Store{
		Listings: &MemoryListingRepository{db: db},
		Reviews:  &MemoryReviewRepository{db: db},
		Users:    &MemoryUserRepository{db: db},
		Images:   &MemoryImageRepository{db: db},
		Tx:       &MemoryTransactor{db: db},
	}
}

type memTxKey struct{}

type listingUndo struct {
	prev    model.Listing
	existed bool
	pos     int
}

// memoryTx journals the prior state of every listing and review written
// inside one unit of work. Rollback restores only those keys.
type memoryTx struct {
	listings map[string]listingUndo
	reviews  map[string]*model.Review
}

func txFrom(ctx context.Context) *memoryTx {
	tx, _ := ctx.Value(memTxKey{}).(*memoryTx)
	return tx
}

// touchListing expects db.mu to be held.
func (db *memoryDB) touchListing(ctx context.Context, id string) {
	tx := txFrom(ctx)
	if tx == nil {
		return
	}
	if _, seen := tx.listings[id]; seen {
		return
	}
	u := listingUndo{pos: -1}
	if l, ok := db.listings[id]; ok {
		u = listingUndo{prev: l.Clone(), existed: true, pos: slices.Index(db.order, id)}
	}
	tx.listings[id] = u
}

// touchReview expects db.mu to be held.
func (db *memoryDB) touchReview(ctx context.Context, id string) {
	tx := txFrom(ctx)
	if tx == nil {
		return
	}
	if _, seen := tx.reviews[id]; seen {
		return
	}
	if r, ok := db.reviews[id]; ok {
		tx.reviews[id] = &r
		return
	}
	tx.reviews[id] = nil
}

// removeListing expects db.mu to be held.
func (db *memoryDB) removeListing(id string) {
	delete(db.listings, id)
	if i := slices.Index(db.order, id); i >= 0 {
		db.order = slices.Delete(db.order, i, i+1)
	}
}

func (db *memoryDB) rollback(tx *memoryTx) {
	db.mu.Lock()
	defer db.mu.Unlock()

	type restored struct {
		id string
		listingUndo
	}
	var back []restored
	for id, u := range tx.listings {
		db.removeListing(id)
		if u.existed {
			back = append(back, restored{id, u})
		}
	}
	slices.SortFunc(back, func(a, b restored) int { return a.pos - b.pos })
	for _, r := range back {
		db.listings[r.id] = r.prev
		pos := min(max(r.pos, 0), len(db.order))
		db.order = slices.Insert(db.order, pos, r.id)
	}

	for id, prev := range tx.reviews {
		if prev == nil {
			delete(db.reviews, id)
			continue
		}
		db.reviews[id] = *prev
	}
}

// MemoryTransactor serializes units of work and, when fn fails, puts back
// the listings and reviews fn wrote. Writes made outside the unit of work
// are kept.
type MemoryTransactor struct {
	db *memoryDB
}

func (t *MemoryTransactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFrom(ctx) != nil {
		return fn(ctx)
	}
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	tx := &memoryTx{listings: map[string]listingUndo{}, reviews: map[string]*model.Review{}}
	if err := fn(context.WithValue(ctx, memTxKey{}, tx)); err != nil {
		t.db.rollback(tx)
		return err
	}
	return nil
}

type MemoryListingRepository struct {
	db *memoryDB
}

func (r *MemoryListingRepository) FindAll(ctx context.Context) ([]model.Listing, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	list := make([]model.Listing, 0, len(r.db.order))
	for _, id := range r.db.order {
		list = append(list, r.db.listings[id].Clone())
	}
	return list, nil
}

func (r *MemoryListingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	l, ok := r.db.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := l.Clone()
	return &out, nil
}

func (r *MemoryListingRepository) Create(ctx context.Context, l *model.Listing) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.insert(ctx, l)
	return nil
}

func (r *MemoryListingRepository) CreateMany(ctx context.Context, ls []model.Listing) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range ls {
		r.insert(ctx, &ls[i])
	}
	return len(ls), nil
}

// insert expects r.db.mu to be held.
func (r *MemoryListingRepository) insert(ctx context.Context, l *model.Listing) {
	l.ID = uuid.NewString()
	if l.Reviews == nil {
		l.Reviews = []string{}
	}
	r.db.touchListing(ctx, l.ID)
	r.db.listings[l.ID] = l.Clone()
	r.db.order = append(r.db.order, l.ID)
}

func (r *MemoryListingRepository) Update(ctx context.Context, l *model.Listing) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cur, ok := r.db.listings[l.ID]
	if !ok {
		return ErrNotFound
	}
	r.db.touchListing(ctx, l.ID)
	next := l.Clone()
	next.Owner = cur.Owner
	next.Reviews = cur.Reviews
	if next.Price == nil {
		next.Price = cur.Price
	}
	if next.Image == nil {
		next.Image = cur.Image
	}
	r.db.listings[l.ID] = next
	return nil
}

func (r *MemoryListingRepository) Delete(ctx context.Context, id string) (*model.Listing, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.listings[id]
	if !ok {
		return nil, nil
	}
	r.db.touchListing(ctx, id)
	r.db.removeListing(id)
	return &l, nil
}

func (r *MemoryListingRepository) AddReview(ctx context.Context, listingID, reviewID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.listings[listingID]
	if !ok {
		return ErrNotFound
	}
	r.db.touchListing(ctx, listingID)
	l.Reviews = append(append([]string{}, l.Reviews...), reviewID)
	r.db.listings[listingID] = l
	return nil
}

func (r *MemoryListingRepository) RemoveReview(ctx context.Context, listingID, reviewID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.listings[listingID]
	if !ok {
		return ErrNotFound
	}
	r.db.touchListing(ctx, listingID)
	kept := make([]string, 0, len(l.Reviews))
	for _, id := range l.Reviews {
		if id != reviewID {
			kept = append(kept, id)
		}
	}
	l.Reviews = kept
	r.db.listings[listingID] = l
	return nil
}

func (r *MemoryListingRepository) DeleteAll(ctx context.Context) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := int64(len(r.db.listings))
	for _, id := range r.db.order {
		r.db.touchListing(ctx, id)
	}
	r.db.listings = map[string]model.Listing{}
	r.db.order = nil
	return n, nil
}

type MemoryReviewRepository struct {
	db *memoryDB
}

func (r *MemoryReviewRepository) Create(ctx context.Context, review *model.Review) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	r.db.touchReview(ctx, review.ID)
	r.db.reviews[review.ID] = *review
	return nil
}

func (r *MemoryReviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	rev, ok := r.db.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rev, nil
}

func (r *MemoryReviewRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Review, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return orderByIDs(ids, r.db.reviews), nil
}

func (r *MemoryReviewRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.reviews[id]; !ok {
		return ErrNotFound
	}
	r.db.touchReview(ctx, id)
	delete(r.db.reviews, id)
	return nil
}

func (r *MemoryReviewRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := r.db.reviews[id]; ok {
			r.db.touchReview(ctx, id)
			delete(r.db.reviews, id)
			n++
		}
	}
	return n, nil
}

// Count is the number of stored reviews.
func (r *MemoryReviewRepository) Count() int {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return len(r.db.reviews)
}

type MemoryUserRepository struct {
	db *memoryDB
}

// Put registers u, standing in for the identity service.
func (r *MemoryUserRepository) Put(u model.User) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.users[u.ID] = u
}

func (r *MemoryUserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	users := make(map[string]model.User, len(ids))
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok {
			users[id] = u
		}
	}
	return users, nil
}

type MemoryImageRepository struct {
	db *memoryDB
}

func (r *MemoryImageRepository) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	id := uuid.NewString()
	r.db.images[id] = memoryImage{filename: filename, data: buf.Bytes()}
	return id, nil
}

func (r *MemoryImageRepository) Download(ctx context.Context, id string) ([]byte, string, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	img, ok := r.db.images[id]
	if !ok {
		return nil, "", ErrNotFound
	}
	return append([]byte(nil), img.data...), img.filename, nil
}

func (r *MemoryImageRepository) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.images[id]; !ok {
		return ErrNotFound
	}
	delete(r.db.images, id)
	return nil
}
