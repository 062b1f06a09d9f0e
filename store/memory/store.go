// Package memory keeps the ledger in ordered in-memory trees. Transactions
// work on lazy copy-on-write clones and swap them in on commit.
package memory

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/DomeLiquid/dsc/core"
	"github.com/gofrs/uuid"
	"github.com/google/btree"
	"github.com/pkg/errors"
)

const defaultTreeDegree = 32

var ErrConflict = errors.New("memory store: concurrent commit")

type Store struct {
	mu      sync.RWMutex
	version uint64

	accounts  *btree.BTreeG[*core.Account]
	positions *btree.BTreeG[*core.Position]
	operates  []*core.Operate
}

var _ core.LedgerStore = (*Store)(nil)

func New() *Store {
	return &Store{
		accounts:  btree.NewG(defaultTreeDegree, accountLess),
		positions: btree.NewG(defaultTreeDegree, positionLess),
	}
}

func accountLess(a, b *core.Account) bool {
	return bytes.Compare(a.Id.Bytes(), b.Id.Bytes()) < 0
}

func positionLess(a, b *core.Position) bool {
	if c := bytes.Compare(a.AccountId.Bytes(), b.AccountId.Bytes()); c != 0 {
		return c < 0
	}
	return strings.Compare(a.AssetId, b.AssetId) < 0
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx core.LedgerStore) error) error {
	// Clone rewrites the source tree's cow context, so it needs the write lock.
	s.mu.Lock()
	tx := &Store{
		accounts:  s.accounts.Clone(),
		positions: s.positions.Clone(),
		operates:  slices.Clip(s.operates),
	}
	base := s.version
	s.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != base {
		return ErrConflict
	}
	s.accounts, s.positions, s.operates = tx.accounts, tx.positions, tx.operates
	s.version++
	return nil
}

func (s *Store) FindAccount(_ context.Context, accountId uuid.UUID) (*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts.Get(&core.Account{Id: accountId})
	if !ok {
		return nil, core.ErrNotFound
	}
	return account.Clone(), nil
}

func (s *Store) UpsertAccount(_ context.Context, account *core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts.ReplaceOrInsert(account.Clone())
	return nil
}

func (s *Store) ListAccounts(_ context.Context, offset uuid.UUID, limit int) ([]*core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accounts := []*core.Account{}
	s.accounts.AscendGreaterOrEqual(&core.Account{Id: offset}, func(a *core.Account) bool {
		if a.Id == offset && offset != uuid.Nil {
			return true
		}
		accounts = append(accounts, a.Clone())
		return limit <= 0 || len(accounts) < limit
	})
	return accounts, nil
}

func (s *Store) FindPosition(_ context.Context, accountId uuid.UUID, assetId string) (*core.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	position, ok := s.positions.Get(&core.Position{AccountId: accountId, AssetId: assetId})
	if !ok {
		return nil, core.ErrNotFound
	}
	return position.Clone(), nil
}

func (s *Store) UpsertPosition(_ context.Context, position *core.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions.ReplaceOrInsert(position.Clone())
	return nil
}

func (s *Store) ListPositions(_ context.Context, accountId uuid.UUID) ([]*core.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	positions := []*core.Position{}
	s.positions.AscendGreaterOrEqual(&core.Position{AccountId: accountId}, func(p *core.Position) bool {
		if p.AccountId != accountId {
			return false
		}
		positions = append(positions, p.Clone())
		return true
	})
	return positions, nil
}

func (s *Store) CreateOperate(_ context.Context, operate *core.Operate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := *operate
	s.operates = append(s.operates, &o)
	return nil
}

func (s *Store) ListOperates(_ context.Context, accountId uuid.UUID, op core.ActionType, createdBeforeAt int64, limit int) ([]*core.Operate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	operates := []*core.Operate{}
	for i := len(s.operates) - 1; i >= 0; i-- {
		o := s.operates[i]
		if accountId != uuid.Nil && o.AccountId != accountId {
			continue
		}
		if op != 0 && o.Op != op {
			continue
		}
		if createdBeforeAt > 0 && o.CreatedAt >= createdBeforeAt {
			continue
		}
		c := *o
		operates = append(operates, &c)
		if limit > 0 && len(operates) >= limit {
			break
		}
	}
	return operates, nil
}
