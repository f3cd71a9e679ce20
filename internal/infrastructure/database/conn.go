package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"gorm.io/gorm"
)

// ErrConnReleased is returned by DB after Release.
var ErrConnReleased = errors.New("database: connection already released")

// Conn is a request-scoped storage handle. The first DB call pins one connection
// from the pool; Release returns it. Release is safe to call more than once and
// when DB was never called.
type Conn struct {
	pool *gorm.DB
	ctx  context.Context

	mu       sync.Mutex
	conn     *sql.Conn
	session  *gorm.DB
	released bool
}

// NewConn returns a handle that acquires nothing until DB is called.
func NewConn(ctx context.Context, pool *gorm.DB) *Conn {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Conn{pool: pool, ctx: ctx}
}

// DB returns a GORM session bound to the pinned connection, acquiring it on first use.
func (c *Conn) DB() (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, ErrConnReleased
	}
	if c.session != nil {
		return c.session, nil
	}
	sqlDB, err := c.pool.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(c.ctx)
	if err != nil {
		return nil, err
	}
	session := c.pool.Session(&gorm.Session{NewDB: true, Context: c.ctx})
	session.Statement.ConnPool = conn
	c.conn = conn
	c.session = session
	return session, nil
}

// Acquired reports whether DB has pinned a connection that is not yet released.
func (c *Conn) Acquired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Release returns the pinned connection to the pool.
func (c *Conn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.session = nil
	return err
}
