package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/albert-team/mongol/core"
	"github.com/albert-team/mongol/hooks"
)

var (
	// ErrDatabaseNotFound is returned when the client is not connected.
	ErrDatabaseNotFound = errors.New("database not found: the client must be connected beforehand")
	// ErrInvalidSchema is returned when a schema does not compile as JSON Schema.
	ErrInvalidSchema = errors.New("invalid json schema")
)

// Options configures Connect.
type Options struct {
	URI                    string
	Database               string
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	Logger                 zerolog.Logger
}

//region Client

// Client is a connected MongoDB client bound to one database.
type Client struct {
	client *mongo.Client
	logger zerolog.Logger

	mutex sync.RWMutex
	db    *mongo.Database
}

// Connect opens a client and pings the server.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.Database == "" {
		return nil, fmt.Errorf("mongo driver: database name is empty")
	}
	clientOpts := mopt.Client().ApplyURI(opts.URI)
	connectTimeout, selectionTimeout := opts.ConnectTimeout, opts.ServerSelectionTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	if selectionTimeout <= 0 {
		selectionTimeout = 10 * time.Second
	}
	clientOpts.SetConnectTimeout(connectTimeout).SetServerSelectionTimeout(selectionTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo driver: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo driver: ping: %w", err)
	}
	opts.Logger.Info().Str("database", opts.Database).Msg("connected to mongodb")
	return &Client{client: client, logger: opts.Logger, db: client.Database(opts.Database)}, nil
}

// Disconnect closes the client. The database is unavailable afterwards.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.db == nil {
		return nil
	}
	c.db = nil
	if err := c.client.Disconnect(ctx); err != nil {
		return err
	}
	c.logger.Info().Msg("disconnected from mongodb")
	return nil
}

// Database returns the bound database, or ErrDatabaseNotFound once the
// client has been disconnected.
func (c *Client) Database() (*mongo.Database, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.db == nil {
		return nil, ErrDatabaseNotFound
	}
	return c.db, nil
}

// Collection returns a collection of the bound database.
func (c *Client) Collection(name string) (*mongo.Collection, error) {
	db, err := c.Database()
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// AttachHook attaches hook to coll. See core.Attach.
func (c *Client) AttachHook(coll core.Collection, hook core.Hook) *core.HookedCollection {
	return core.Attach(coll, hook)
}

// SetSchema sets the $jsonSchema validator of a collection, creating the
// collection when it does not exist yet.
//
// The schema must compile as JSON Schema. Keywords selected by opts are
// stripped before it is sent; the schema actually applied is returned.
//
// Example:
//
//	applied, err := client.SetSchema(ctx, "users", schema, core.SchemaOptions{IgnoreUnsupportedKeywords: true, IgnoreType: true})
func (c *Client) SetSchema(ctx context.Context, collection string, schema any, opts core.SchemaOptions) (any, error) {
	db, err := c.Database()
	if err != nil {
		return nil, err
	}
	applied, err := PrepareSchema(schema, opts)
	if err != nil {
		return nil, err
	}

	nameList, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return nil, fmt.Errorf("mongo driver: list collections: %w", err)
	}

	if !containsName(nameList, collection) {
		createOpts := mopt.CreateCollection().SetValidator(validatorDocument(applied))
		if err := db.CreateCollection(ctx, collection, createOpts); err != nil {
			return nil, fmt.Errorf("mongo driver: create collection %q: %w", collection, err)
		}
		c.logger.Info().Str("collection", collection).Msg("collection created with schema")
		return applied, nil
	}

	if err := db.RunCommand(ctx, collModCommand(collection, applied)).Err(); err != nil {
		return nil, fmt.Errorf("mongo driver: collMod %q: %w", collection, err)
	}
	c.logger.Info().Str("collection", collection).Msg("collection schema updated")
	return applied, nil
}

//endregion

// PrepareSchema strips the keywords selected by opts and compiles what is
// left as JSON Schema. Only the stripped schema has to be valid, so keywords
// such as an unresolvable $ref or a "type" holding a BSON type name are
// accepted when opts removes them.
func PrepareSchema(schema any, opts core.SchemaOptions) (any, error) {
	schema, err := decodeSchema(schema)
	if err != nil {
		return nil, err
	}
	applied := core.Strip(schema, core.SchemaKeywords(opts))
	if _, err := gojsonschema.NewSchema(hooks.SchemaLoader(applied)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	return applied, nil
}
