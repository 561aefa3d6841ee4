package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/homestead/internal/domain"
)

// Bucket names
var (
	bucketListings = []byte("listings")
	bucketByTime   = []byte("listings_by_time")
	bucketUsers    = []byte("users")
	bucketEmails   = []byte("users_by_email")
	bucketSession  = []byte("session")

	allBuckets = [][]byte{bucketListings, bucketByTime, bucketUsers, bucketEmails, bucketSession}
)

const sessionKey = "current"

// Store is the local listing and account database, backed by BoltDB.
// It implements domain.ListingSource and domain.UserRepository.
type Store struct {
	db     *bolt.DB
	logger *slog.Logger

	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte

	// gen counts forgets; a read only caches if none happened since it began
	gen uint64
}

var (
	_ domain.ListingSource  = (*Store)(nil)
	_ domain.UserRepository = (*Store)(nil)
)

// Open opens (creating if needed) the database at path
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("opened store", "path", path)
	return &Store{db: db, logger: logger, cache: make(map[string][]byte)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// === Generic helpers ===

func cacheKey(bucket []byte, key string) string {
	return string(bucket) + ":" + key
}

func (s *Store) get(bucket []byte, key string, dest any) (bool, error) {
	ck := cacheKey(bucket, key)

	s.mu.RLock()
	if data, ok := s.cache[ck]; ok {
		s.mu.RUnlock()
		return true, json.Unmarshal(data, dest)
	}
	gen := s.gen
	s.mu.RUnlock()

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}

	s.remember(ck, data, gen)
	return true, json.Unmarshal(data, dest)
}

// remember caches data read at generation gen. A write that committed in
// the meantime may have made data stale, so it is dropped instead.
func (s *Store) remember(ck string, data []byte, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.cache[ck] = data
}

// forget drops keys from the memory cache after a write
func (s *Store) forget(bucket []byte, keys ...string) {
	s.mu.Lock()
	s.gen++
	for _, key := range keys {
		delete(s.cache, cacheKey(bucket, key))
	}
	s.mu.Unlock()
}

// timeKey orders listings newest first, then by ID ascending
func timeKey(ts time.Time, id string) []byte {
	// Flip the sign bit so int64 order survives as unsigned, then invert
	// for descending order.
	ordered := uint64(ts.UnixNano()) ^ (1 << 63)
	key := make([]byte, 8, 8+len(id))
	binary.BigEndian.PutUint64(key, ^ordered)
	return append(key, id...)
}

// === Listings ===

// QueryListings implements domain.ListingRepository
func (s *Store) QueryListings(ctx context.Context, q domain.ListingQuery, after *domain.Cursor) ([]*domain.Listing, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []*domain.Listing
	err := s.db.View(func(tx *bolt.Tx) error {
		listings := tx.Bucket(bucketListings)
		c := tx.Bucket(bucketByTime).Cursor()

		var k, v []byte
		if after == nil {
			k, v = c.First()
		} else {
			start := timeKey(after.Timestamp, after.ID)
			k, v = c.Seek(start)
			if k != nil && string(k) == string(start) {
				k, v = c.Next()
			}
		}

		for ; k != nil && len(items) < q.PageSize; k, v = c.Next() {
			data := listings.Get(v)
			if data == nil {
				continue
			}
			var l domain.Listing
			if err := json.Unmarshal(data, &l); err != nil {
				return fmt.Errorf("decode listing %s: %w", v, err)
			}
			if q.Filter.Match(&l) {
				items = append(items, &l)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("queried listings", "filter", q.Filter.String(), "count", len(items))
	return items, nil
}

// GetListing returns a listing by ID
func (s *Store) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var l domain.Listing
	ok, err := s.get(bucketListings, id, &l)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &l, nil
}

// CreateListing stores a new listing. Missing ID and timestamp are assigned.
func (s *Store) CreateListing(ctx context.Context, l *domain.Listing) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := l.CheckRequired(); err != nil {
		return nil, err
	}

	created := *l
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Timestamp.IsZero() {
		created.Timestamp = time.Now()
	}
	created.Timestamp = created.Timestamp.UTC()

	data, err := json.Marshal(&created)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		listings := tx.Bucket(bucketListings)
		if listings.Get([]byte(created.ID)) != nil {
			return fmt.Errorf("%w: listing %s already exists", domain.ErrInvalidListing, created.ID)
		}
		if err := listings.Put([]byte(created.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketByTime).Put(timeKey(created.Timestamp, created.ID), []byte(created.ID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("created listing", "id", created.ID, "owner", created.OwnerID)
	return &created, nil
}

// UpdateListing replaces a listing owned by ownerID. Owner and timestamp are
// kept from the stored record.
func (s *Store) UpdateListing(ctx context.Context, ownerID string, l *domain.Listing) (*domain.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated domain.Listing
	err := s.db.Update(func(tx *bolt.Tx) error {
		listings := tx.Bucket(bucketListings)
		existing, err := ownedListing(listings, ownerID, l.ID)
		if err != nil {
			return err
		}

		updated = *l
		updated.OwnerID = existing.OwnerID
		updated.Timestamp = existing.Timestamp
		if err := updated.CheckRequired(); err != nil {
			return err
		}

		data, err := json.Marshal(&updated)
		if err != nil {
			return err
		}
		return listings.Put([]byte(updated.ID), data)
	})
	if err != nil {
		return nil, err
	}

	s.forget(bucketListings, updated.ID)
	s.logger.Info("updated listing", "id", updated.ID)
	return &updated, nil
}

// DeleteListing removes a listing owned by ownerID
func (s *Store) DeleteListing(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		listings := tx.Bucket(bucketListings)
		existing, err := ownedListing(listings, ownerID, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketByTime).Delete(timeKey(existing.Timestamp, id)); err != nil {
			return err
		}
		return listings.Delete([]byte(id))
	})
	if err != nil {
		return err
	}

	s.forget(bucketListings, id)
	s.logger.Info("deleted listing", "id", id)
	return nil
}

func ownedListing(listings *bolt.Bucket, ownerID, id string) (*domain.Listing, error) {
	data := listings.Get([]byte(id))
	if data == nil {
		return nil, domain.ErrListingNotFound
	}
	var existing domain.Listing
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, err
	}
	if existing.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}
	return &existing, nil
}

// === Users ===

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var u domain.User
	ok, err := s.get(bucketUsers, id, &u)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		id = string(tx.Bucket(bucketEmails).Get([]byte(strings.ToLower(email))))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, domain.ErrUserNotFound
	}
	return s.GetUser(ctx, id)
}

// SaveUser inserts or replaces a user, keeping the email index unique
func (s *Store) SaveUser(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	email := strings.ToLower(u.Email)

	err = s.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		emails := tx.Bucket(bucketEmails)

		if owner := emails.Get([]byte(email)); owner != nil && string(owner) != u.ID {
			return domain.ErrUserExists
		}
		if prev := users.Get([]byte(u.ID)); prev != nil {
			var old domain.User
			if err := json.Unmarshal(prev, &old); err == nil && strings.ToLower(old.Email) != email {
				if err := emails.Delete([]byte(strings.ToLower(old.Email))); err != nil {
					return err
				}
			}
		}
		if err := emails.Put([]byte(email), []byte(u.ID)); err != nil {
			return err
		}
		return users.Put([]byte(u.ID), data)
	})
	if err != nil {
		return err
	}

	s.forget(bucketUsers, u.ID)
	return nil
}

// === Session ===

// LoadSession returns the signed-in user ID, or "" when signed out
func (s *Store) LoadSession(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		id = string(tx.Bucket(bucketSession).Get([]byte(sessionKey)))
		return nil
	})
	return id, err
}

// SaveSession records the signed-in user ID; "" signs out
func (s *Store) SaveSession(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSession)
		if userID == "" {
			return b.Delete([]byte(sessionKey))
		}
		return b.Put([]byte(sessionKey), []byte(userID))
	})
}
