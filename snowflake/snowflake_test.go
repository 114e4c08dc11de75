package snowflake

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tj/assert"

	"github.com/subscriberhub/sfmc-sync/subscriber"
)

// fakeDriver serves canned subscriber rows. The DSN selects the behaviour.
type fakeDriver struct{}

var (
	fakeMutex   sync.Mutex
	fakeQueries []string
	fakeRows    = [][]driver.Value{
		{"A1", "a@x.com", "A", "One"},
		{"B2", "b@x.com", nil, "Two"},
	}
	fakeOpens int64
)

func init() {
	sql.Register("fakesnowflake", fakeDriver{})
}

func (fakeDriver) Open(name string) (driver.Conn, error) {
	atomic.AddInt64(&fakeOpens, 1)
	if name == "unreachable" {
		return nil, errors.New("dial tcp: connection refused")
	}
	return &fakeConn{dsn: name}, nil
}

type fakeConn struct {
	dsn string
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	fakeMutex.Lock()
	fakeQueries = append(fakeQueries, query)
	fakeMutex.Unlock()
	if c.dsn == "broken-query" {
		return nil, errors.New("SQL compilation error: Object 'SUBSCRIBERS' does not exist")
	}
	return &fakeStmt{}, nil
}

func (c *fakeConn) Close() error              { return nil }
func (c *fakeConn) Begin() (driver.Tx, error) { return nil, errors.New("unsupported") }

type fakeStmt struct{}

func (s *fakeStmt) Close() error                               { return nil }
func (s *fakeStmt) NumInput() int                              { return 0 }
func (s *fakeStmt) Exec([]driver.Value) (driver.Result, error) { return nil, errors.New("unsupported") }
func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return &fakeResult{rows: fakeRows}, nil
}

type fakeResult struct {
	rows [][]driver.Value
	pos  int
}

func (r *fakeResult) Columns() []string {
	return []string{"SUBSCRIBERKEY", "EMAIL", "FIRSTNAME", "LASTNAME"}
}
func (r *fakeResult) Close() error { return nil }
func (r *fakeResult) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

var testConfig = Config{
	Account:   "xy12345",
	User:      "loader",
	Password:  "secret",
	Warehouse: "COMPUTE_WH",
	Database:  "MARKETING",
	Schema:    "PUBLIC",
}

func fakeClient(t *testing.T, dsn string) *Client {
	db, err := sql.Open("fakesnowflake", dsn)
	assert.NoError(t, err)
	return NewWithDB(testConfig, db, zerolog.Nop())
}

func TestSubscriberQuery(t *testing.T) {
	assert.Equal(t,
		"SELECT SUBSCRIBERKEY, EMAIL, FIRSTNAME, LASTNAME FROM MARKETING.PUBLIC.SUBSCRIBERS LIMIT 5",
		SubscriberQuery(testConfig),
	)
}

func TestDSN(t *testing.T) {
	dsn, err := DSN(testConfig)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "loader:secret@xy12345"), dsn)
	assert.Contains(t, dsn, "snowflakecomputing.com")
	assert.Contains(t, dsn, "warehouse=COMPUTE_WH")
	assert.Contains(t, dsn, "database=MARKETING")
	assert.Contains(t, dsn, "schema=PUBLIC")

	_, err = DSN(Config{User: "loader", Password: "secret"})
	assert.Error(t, err)
}

func TestQuerySubscribers(t *testing.T) {
	ctx := context.Background()

	t.Run("rows", func(t *testing.T) {
		client := fakeClient(t, "ok")
		defer client.Close()

		rows, err := client.QuerySubscribers(ctx)
		assert.NoError(t, err)
		assert.Equal(t, []subscriber.Row{
			{SubscriberKey: "A1", Email: "a@x.com", FirstName: "A", LastName: "One"},
			{SubscriberKey: "B2", Email: "b@x.com", FirstName: "", LastName: "Two"},
		}, rows)

		fakeMutex.Lock()
		last := fakeQueries[len(fakeQueries)-1]
		fakeMutex.Unlock()
		assert.Equal(t, SubscriberQuery(testConfig), last)
	})

	t.Run("query error", func(t *testing.T) {
		client := fakeClient(t, "broken-query")
		defer client.Close()

		_, err := client.QuerySubscribers(ctx)
		var queryErr *QueryError
		assert.True(t, errors.As(err, &queryErr))
		assert.Contains(t, err.Error(), "does not exist")
	})

	t.Run("connection failure is sticky", func(t *testing.T) {
		client := fakeClient(t, "unreachable")
		defer client.Close()

		before := atomic.LoadInt64(&fakeOpens)
		for i := 0; i < 3; i++ {
			_, err := client.QuerySubscribers(ctx)
			var queryErr *QueryError
			assert.True(t, errors.As(err, &queryErr), fmt.Sprintf("attempt %v", i))
			assert.Contains(t, err.Error(), "connection refused")
		}
		assert.EqualValues(t, 1, atomic.LoadInt64(&fakeOpens)-before)
	})
}

func TestEnsureConnectedOnce(t *testing.T) {
	var opened int64
	client := New(testConfig, zerolog.Nop())
	client.open = func(Config) (*sql.DB, error) {
		atomic.AddInt64(&opened, 1)
		return sql.Open("fakesnowflake", "ok")
	}
	defer client.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.EnsureConnected(context.Background()))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt64(&opened))
}

func TestCloseWithoutConnect(t *testing.T) {
	client := New(testConfig, zerolog.Nop())
	assert.NoError(t, client.Close())
}

func TestCancelledFirstRequest(t *testing.T) {
	client := fakeClient(t, "ok")
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.QuerySubscribers(ctx)
	assert.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "failed to connect"), err.Error())

	rows, err := client.QuerySubscribers(context.Background())
	assert.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCloseDuringConnect(t *testing.T) {
	for i := 0; i < 20; i++ {
		client := fakeClient(t, "ok")

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			client.EnsureConnected(context.Background())
		}()
		assert.NoError(t, client.Close())
		wg.Wait()
	}
}

func TestQueryAfterClose(t *testing.T) {
	client := fakeClient(t, "ok")
	assert.NoError(t, client.Close())

	_, err := client.QuerySubscribers(context.Background())
	var queryErr *QueryError
	assert.True(t, errors.As(err, &queryErr))
	assert.True(t, errors.Is(err, errClosed))
}
