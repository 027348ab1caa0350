// Package repomanager vends repositories bound to a connection or a
// transaction and owns the storage lifecycle (migrations, health, close).
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/ideaboard/internal/dbx"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/ideas"
	"github.com/dmitrijs2005/ideaboard/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	// Conn returns the non-transactional handle.
	Conn() dbx.DBTX
	// WithTx runs fn atomically. Repositories built from the tx argument
	// take part in the transaction.
	WithTx(ctx context.Context, fn dbx.TxFunc) error
	Users(db dbx.DBTX) users.Repository
	Ideas(db dbx.DBTX) ideas.Repository
	Ping(ctx context.Context) error
	Close() error
}
