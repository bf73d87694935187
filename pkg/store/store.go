// Package store persists imported tree documents and named layout
// snapshots in MongoDB.
//
// The store backs the server's dataset catalog: `treescope serve` can
// offer trees that were imported once and reused across restarts, and
// exported layouts can be fetched later by name. The interactive
// explorer never reads from the store; it always lays out live.
package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/treescope/treescope/pkg/errors"
	"github.com/treescope/treescope/pkg/layout"
	"github.com/treescope/treescope/pkg/tree"
)

// DefaultDatabase is the database name used when none is configured.
const DefaultDatabase = "treescope"

const (
	treeCollection     = "trees"
	snapshotCollection = "snapshots"
)

// connectTimeout bounds the initial ping so a missing Mongo fails fast
// instead of hanging server startup.
const connectTimeout = 5 * time.Second

// Store wraps a Mongo client with the two collections the application
// uses. All methods are safe for concurrent use.
type Store struct {
	client    *mongo.Client
	trees     *mongo.Collection
	snapshots *mongo.Collection
}

// treeRecord is the persisted form of an imported tree. The document
// hash is the primary key, so re-importing identical content is a
// cheap overwrite.
type treeRecord struct {
	Hash      string        `bson:"_id"`
	Name      string        `bson:"name"`
	NodeCount int           `bson:"node_count"`
	Document  tree.Document `bson:"document"`
	CreatedAt time.Time     `bson:"created_at"`
}

// snapshotRecord is a named exported layout keyed by name.
type snapshotRecord struct {
	Name      string          `bson:"_id"`
	TreeHash  string          `bson:"tree_hash"`
	Snapshot  layout.Snapshot `bson:"snapshot"`
	CreatedAt time.Time       `bson:"created_at"`
}

// TreeInfo describes a stored tree without its document payload.
type TreeInfo struct {
	Hash      string    `bson:"_id" json:"hash"`
	Name      string    `bson:"name" json:"name"`
	NodeCount int       `bson:"node_count" json:"node_count"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SnapshotInfo describes a stored snapshot without its placements.
type SnapshotInfo struct {
	Name      string    `bson:"_id" json:"name"`
	TreeHash  string    `bson:"tree_hash" json:"tree_hash"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// New connects to Mongo at uri and verifies the connection with a ping.
// An empty database name selects DefaultDatabase.
func New(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to mongo at %s", uri)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping mongo at %s", uri)
	}

	db := client.Database(database)
	return &Store{
		client:    client,
		trees:     db.Collection(treeCollection),
		snapshots: db.Collection(snapshotCollection),
	}, nil
}

// SaveTree upserts the tree document under its content hash.
func (s *Store) SaveTree(ctx context.Context, hash, name string, t *tree.Tree) error {
	rec := treeRecord{
		Hash:      hash,
		Name:      name,
		NodeCount: t.Len(),
		Document:  t.ToDocument(),
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.trees.ReplaceOne(ctx,
		bson.M{"_id": hash}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save tree %s", hash)
	}
	return nil
}

// LoadTree fetches a stored tree by content hash and rebuilds its index.
func (s *Store) LoadTree(ctx context.Context, hash string) (*tree.Tree, error) {
	var rec treeRecord
	err := s.trees.FindOne(ctx, bson.M{"_id": hash}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeNotFound, "tree %s not stored", hash)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load tree %s", hash)
	}
	return tree.FromDocument(rec.Document)
}

// ListTrees returns catalog entries for every stored tree, newest first.
func (s *Store) ListTrees(ctx context.Context) ([]TreeInfo, error) {
	opts := options.Find().
		SetProjection(bson.M{"document": 0}).
		SetSort(bson.M{"created_at": -1})
	cur, err := s.trees.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list trees")
	}
	defer cur.Close(ctx)

	var infos []TreeInfo
	if err := cur.All(ctx, &infos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode tree catalog")
	}
	return infos, nil
}

// DeleteTree removes a stored tree. Deleting a missing tree is not an
// error.
func (s *Store) DeleteTree(ctx context.Context, hash string) error {
	if _, err := s.trees.DeleteOne(ctx, bson.M{"_id": hash}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete tree %s", hash)
	}
	return nil
}

// SaveSnapshot upserts a named layout snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, name, treeHash string, snap layout.Snapshot) error {
	rec := snapshotRecord{
		Name:      name,
		TreeHash:  treeHash,
		Snapshot:  snap,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.snapshots.ReplaceOne(ctx,
		bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save snapshot %q", name)
	}
	return nil
}

// LoadSnapshot fetches a stored snapshot by name.
func (s *Store) LoadSnapshot(ctx context.Context, name string) (layout.Snapshot, error) {
	var rec snapshotRecord
	err := s.snapshots.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return layout.Snapshot{}, errors.New(errors.ErrCodeNotFound, "snapshot %q not stored", name)
	}
	if err != nil {
		return layout.Snapshot{}, errors.Wrap(errors.ErrCodeStore, err, "load snapshot %q", name)
	}
	return rec.Snapshot, nil
}

// ListSnapshots returns catalog entries for stored snapshots, optionally
// filtered by the tree they were computed from.
func (s *Store) ListSnapshots(ctx context.Context, treeHash string) ([]SnapshotInfo, error) {
	filter := bson.M{}
	if treeHash != "" {
		filter["tree_hash"] = treeHash
	}
	opts := options.Find().
		SetProjection(bson.M{"snapshot": 0}).
		SetSort(bson.M{"created_at": -1})
	cur, err := s.snapshots.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list snapshots")
	}
	defer cur.Close(ctx)

	var infos []SnapshotInfo
	if err := cur.All(ctx, &infos); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode snapshot catalog")
	}
	return infos, nil
}

// DeleteSnapshot removes a stored snapshot. Deleting a missing snapshot
// is not an error.
func (s *Store) DeleteSnapshot(ctx context.Context, name string) error {
	if _, err := s.snapshots.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete snapshot %q", name)
	}
	return nil
}

// Close disconnects from Mongo.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
