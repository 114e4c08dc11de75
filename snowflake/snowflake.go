// Package snowflake reads subscriber rows from a Snowflake warehouse.
//
// A Client owns a single connection handle that is created lazily on first
// use and reused for the life of the process.
package snowflake

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"

	"github.com/subscriberhub/sfmc-sync/subscriber"
)

const (
	driverName     = "snowflake"
	connectTimeout = 30 * time.Second
)

var errClosed = errors.New("snowflake client closed")

type Config struct {
	Account   string `json:"SNOWFLAKE_ACCOUNT"`
	User      string `json:"SNOWFLAKE_USERNAME"`
	Password  string `json:"SNOWFLAKE_PASSWORD"`
	Warehouse string `json:"SNOWFLAKE_WAREHOUSE"`
	Database  string `json:"SNOWFLAKE_DATABASE"`
	Schema    string `json:"SNOWFLAKE_SCHEMA"`
}

// QueryError reports that subscribers could not be read from the warehouse,
// either because the connection was never established or the query failed.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("snowflake query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type opener func(config Config) (*sql.DB, error)

type Client struct {
	config Config
	logger zerolog.Logger
	open   opener

	once  sync.Once
	db    *sql.DB
	err   error
	owned *sql.DB
}

func New(config Config, logger zerolog.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		open:   openSnowflake,
	}
}

// NewWithDB wraps an already opened handle. The client takes ownership and
// closes it on Close.
func NewWithDB(config Config, db *sql.DB, logger zerolog.Logger) *Client {
	return &Client{
		config: config,
		logger: logger,
		open: func(Config) (*sql.DB, error) {
			return db, nil
		},
		owned: db,
	}
}

func DSN(config Config) (string, error) {
	return gosnowflake.DSN(&gosnowflake.Config{
		Account:   config.Account,
		User:      config.User,
		Password:  config.Password,
		Warehouse: config.Warehouse,
		Database:  config.Database,
		Schema:    config.Schema,
	})
}

func openSnowflake(config Config) (*sql.DB, error) {
	dsn, err := DSN(config)
	if err != nil {
		return nil, fmt.Errorf("failed to build snowflake dsn: %w", err)
	}
	return sql.Open(driverName, dsn)
}

// EnsureConnected creates the connection on first call. A failed attempt is
// not retried; every later query reports the original failure. The connect is
// detached from ctx so a caller going away is never latched as a failure.
func (c *Client) EnsureConnected(ctx context.Context) error {
	c.once.Do(func() {
		db, err := c.open(c.config)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), connectTimeout)
			err = db.PingContext(pingCtx)
			cancel()
			if err != nil {
				db.Close()
			}
		}
		if err != nil {
			c.err = fmt.Errorf("failed to connect to snowflake: %w", err)
			c.logger.Error().Err(err).Str("account", c.config.Account).Msg("snowflake connection failed")
			return
		}
		c.db = db
		c.logger.Info().Str("account", c.config.Account).Str("warehouse", c.config.Warehouse).Msg("connected to snowflake")
	})
	return c.err
}

func SubscriberQuery(config Config) string {
	return fmt.Sprintf("SELECT SUBSCRIBERKEY, EMAIL, FIRSTNAME, LASTNAME FROM %v.%v.SUBSCRIBERS LIMIT 5", config.Database, config.Schema)
}

func (c *Client) QuerySubscribers(ctx context.Context) ([]subscriber.Row, error) {
	if err := c.EnsureConnected(ctx); err != nil {
		return nil, &QueryError{Err: err}
	}

	rows, err := c.db.QueryContext(ctx, SubscriberQuery(c.config))
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer rows.Close()

	var out []subscriber.Row
	for rows.Next() {
		var key, email, first, last sql.NullString
		if err := rows.Scan(&key, &email, &first, &last); err != nil {
			return nil, &QueryError{Err: fmt.Errorf("failed to scan subscriber: %w", err)}
		}
		out = append(out, subscriber.Row{
			SubscriberKey: key.String,
			Email:         email.String,
			FirstName:     first.String,
			LastName:      last.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Err: err}
	}

	c.logger.Debug().Int("rows", len(out)).Msg("queried subscribers")
	return out, nil
}

// Close releases the connection. It waits for an in-flight connect and is
// safe to call whether or not a connection was ever made. A client closed
// before connecting never connects.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.err = errClosed
	})
	if c.db == nil {
		if c.owned != nil {
			return c.owned.Close()
		}
		return nil
	}
	return c.db.Close()
}
