package models

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// ErrNotFound is returned when a record does not exist
var ErrNotFound = bolthold.ErrNotFound

// Media operations

// CreateMedia creates a new media record, assigning its id and timestamps
func (db *Database) CreateMedia(media *Media) error {
	if media.OwnerID == "" {
		return fmt.Errorf("media owner id is required")
	}
	if !ValidKind(media.Kind) {
		return fmt.Errorf("invalid media kind %q", media.Kind)
	}
	media.CreatedAt = time.Now()
	media.UpdatedAt = media.CreatedAt
	return db.store.Insert(bolthold.NextSequence(), media)
}

// GetMediaByID retrieves a media record by id
func (db *Database) GetMediaByID(id uint64) (*Media, error) {
	var media Media
	if err := db.store.Get(id, &media); err != nil {
		return nil, err
	}
	return &media, nil
}

// MutateMedia applies fn to the current state of a record and writes it back.
// fn must only touch the fields it owns; everything else is preserved.
func (db *Database) MutateMedia(id uint64, fn func(*Media) error) error {
	media, err := db.GetMediaByID(id)
	if err != nil {
		return err
	}
	owner, kind := media.OwnerID, media.Kind
	if err := fn(media); err != nil {
		return err
	}
	// Owner and kind are immutable after creation
	media.OwnerID = owner
	media.Kind = kind
	media.UpdatedAt = time.Now()
	return db.store.Update(id, media)
}

// DeleteMedia deletes a media record by id
func (db *Database) DeleteMedia(id uint64) error {
	return db.store.Delete(id, &Media{})
}

// MediaQuery describes one filtered, sorted, optionally paginated fetch
type MediaQuery struct {
	OwnerID string
	Kind    KindFilter
	Watched WatchedFilter
	Sort    SortKey

	// After is the last record of the previous page; results start
	// strictly after it in sort order. Nil fetches from the top.
	After *Media

	// Limit caps the result size; 0 means no limit
	Limit int
}

// mediaLess reports whether a precedes b in output order for the given
// sort key: sort value descending, record id ascending as the tie-break.
// The id tie-break is what keeps pagination stable when sort values
// repeat; with equal values, cursor-after pagination is only as reliable
// as this ordering staying identical across pages of the same query.
func mediaLess(sortKey SortKey, a, b *Media) bool {
	switch sortKey {
	case SortByRating:
		ra, rb := RatingValue(a.Rating), RatingValue(b.Rating)
		if ra != rb {
			return ra > rb
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	return a.ID < b.ID
}

// QueryMedia returns the owner's records matching the filters, ordered by
// the sort key descending, starting strictly after the cursor record.
func (db *Database) QueryMedia(q MediaQuery) ([]*Media, error) {
	if q.OwnerID == "" {
		return nil, nil
	}

	query := bolthold.Where("OwnerID").Eq(q.OwnerID)
	if q.Kind != KindAll && q.Kind != "" {
		query = query.And("Kind").Eq(Kind(q.Kind))
	}
	switch q.Watched {
	case WatchedOnly:
		query = query.And("Watched").Eq(true)
	case WatchedNot:
		query = query.And("Watched").Eq(false)
	}

	var medias []*Media
	if err := db.store.Find(&medias, query); err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}

	sort.SliceStable(medias, func(i, j int) bool {
		return mediaLess(q.Sort, medias[i], medias[j])
	})

	if q.After != nil {
		start := len(medias)
		for i, m := range medias {
			if mediaLess(q.Sort, q.After, m) {
				start = i
				break
			}
		}
		medias = medias[start:]
	}

	if q.Limit > 0 && len(medias) > q.Limit {
		medias = medias[:q.Limit]
	}

	return medias, nil
}

// MediaByOwner retrieves all of an owner's records, optionally narrowed
// to one kind, in insertion order. Used by backfill candidate selection.
func (db *Database) MediaByOwner(ownerID string, kind *Kind) ([]*Media, error) {
	if ownerID == "" {
		return nil, nil
	}
	query := bolthold.Where("OwnerID").Eq(ownerID)
	if kind != nil {
		query = query.And("Kind").Eq(*kind)
	}
	var medias []*Media
	if err := db.store.Find(&medias, query); err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	sort.SliceStable(medias, func(i, j int) bool { return medias[i].ID < medias[j].ID })
	return medias, nil
}

// CountMedia returns the number of records owned by ownerID
func (db *Database) CountMedia(ownerID string) (int, error) {
	count, err := db.store.Count(&Media{}, bolthold.Where("OwnerID").Eq(ownerID))
	if err != nil {
		return 0, fmt.Errorf("failed to count media: %w", err)
	}
	return count, nil
}

// Owners returns the distinct owner ids present in the media collection
func (db *Database) Owners() ([]string, error) {
	var medias []*Media
	if err := db.store.Find(&medias, nil); err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	seen := make(map[string]bool)
	var owners []string
	for _, m := range medias {
		if !seen[m.OwnerID] {
			seen[m.OwnerID] = true
			owners = append(owners, m.OwnerID)
		}
	}
	sort.Strings(owners)
	return owners, nil
}

// List operations

// CreateList creates a new custom list, assigning its id and timestamps
func (db *Database) CreateList(list *List) error {
	if list.OwnerID == "" {
		return fmt.Errorf("list owner id is required")
	}
	if list.Name == "" {
		return fmt.Errorf("list name is required")
	}
	list.ID = uuid.NewString()
	list.CreatedAt = time.Now()
	list.UpdatedAt = list.CreatedAt
	return db.store.Insert(list.ID, list)
}

// GetListByID retrieves a list by id
func (db *Database) GetListByID(id string) (*List, error) {
	var list List
	if err := db.store.Get(id, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetListsByOwner retrieves all lists owned by ownerID
func (db *Database) GetListsByOwner(ownerID string) ([]*List, error) {
	var lists []*List
	err := db.store.Find(&lists, bolthold.Where("OwnerID").Eq(ownerID))
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}
	return lists, nil
}

// UpdateList updates a list's mutable fields
func (db *Database) UpdateList(list *List) error {
	list.UpdatedAt = time.Now()
	return db.store.Update(list.ID, list)
}

// DeleteList deletes a list by id
func (db *Database) DeleteList(id string) error {
	return db.store.Delete(id, &List{})
}

// AddListItems adds media ids to a list as a set union, preserving
// insertion order and skipping ids already present
func (db *Database) AddListItems(listID string, mediaIDs ...uint64) (*List, error) {
	list, err := db.GetListByID(listID)
	if err != nil {
		return nil, err
	}
	for _, id := range mediaIDs {
		if !list.Contains(id) {
			list.MemberIDs = append(list.MemberIDs, id)
		}
	}
	if err := db.UpdateList(list); err != nil {
		return nil, err
	}
	return list, nil
}

// RemoveListItem removes a media id from a list as a set difference
func (db *Database) RemoveListItem(listID string, mediaID uint64) (*List, error) {
	list, err := db.GetListByID(listID)
	if err != nil {
		return nil, err
	}
	members := list.MemberIDs[:0]
	for _, id := range list.MemberIDs {
		if id != mediaID {
			members = append(members, id)
		}
	}
	list.MemberIDs = members
	if err := db.UpdateList(list); err != nil {
		return nil, err
	}
	return list, nil
}

// ResolveList returns the list's member records in membership order.
// Ids whose records have been deleted are silently dropped; deleting a
// record never rewrites list membership.
func (db *Database) ResolveList(list *List) ([]*Media, error) {
	medias := make([]*Media, 0, len(list.MemberIDs))
	for _, id := range list.MemberIDs {
		media, err := db.GetMediaByID(id)
		if err == bolthold.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		medias = append(medias, media)
	}
	return medias, nil
}

// Follow operations

// UpsertFollow records that follower follows followee; repeated calls are a no-op
func (db *Database) UpsertFollow(followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return fmt.Errorf("follower and followee ids are required")
	}
	if followerID == followeeID {
		return fmt.Errorf("cannot follow yourself")
	}
	existing, err := db.Followees(followerID)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if f == followeeID {
			return nil
		}
	}
	follow := &Follow{
		ID:         uuid.NewString(),
		FollowerID: followerID,
		FolloweeID: followeeID,
		CreatedAt:  time.Now(),
	}
	return db.store.Insert(follow.ID, follow)
}

// DeleteFollow removes the follower→followee edge if present
func (db *Database) DeleteFollow(followerID, followeeID string) error {
	var follows []*Follow
	err := db.store.Find(&follows, bolthold.Where("FollowerID").Eq(followerID))
	if err != nil {
		return fmt.Errorf("failed to query follows: %w", err)
	}
	for _, f := range follows {
		if f.FolloweeID == followeeID {
			return db.store.Delete(f.ID, &Follow{})
		}
	}
	return nil
}

// Followees returns the ids of the users that followerID follows
func (db *Database) Followees(followerID string) ([]string, error) {
	var follows []*Follow
	err := db.store.Find(&follows, bolthold.Where("FollowerID").Eq(followerID))
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	followees := make([]string, 0, len(follows))
	for _, f := range follows {
		followees = append(followees, f.FolloweeID)
	}
	sort.Strings(followees)
	return followees, nil
}
