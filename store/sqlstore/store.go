// Package sqlstore persists the ledger with gorm, on sqlite or postgres.
package sqlstore

import (
	"context"

	"github.com/DomeLiquid/dsc/core"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

type (
	account struct {
		Id         string `gorm:"primaryKey;size:36"`
		DebtIssued string `gorm:"size:80;not null"`
		CreatedAt  int64  `gorm:"autoCreateTime:false"`
		UpdatedAt  int64  `gorm:"autoUpdateTime:false"`
	}

	position struct {
		AccountId string `gorm:"primaryKey;size:36"`
		AssetId   string `gorm:"primaryKey;size:64"`
		Amount    string `gorm:"size:80;not null"`
		UpdatedAt int64  `gorm:"autoUpdateTime:false"`
	}

	operate struct {
		Id        string             `gorm:"primaryKey;size:36"`
		AccountId string             `gorm:"size:36;index:idx_operates_account"`
		Op        uint8              `gorm:"index:idx_operates_account"`
		Extra     core.OperateDetail `gorm:"type:text"`
		CreatedAt int64              `gorm:"autoCreateTime:false;index"`
	}
)

func (account) TableName() string  { return "accounts" }
func (position) TableName() string { return "positions" }
func (operate) TableName() string  { return "operates" }

type Store struct {
	db *gorm.DB
}

var _ core.LedgerStore = (*Store)(nil)

func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSqlite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	return New(db)
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&account{}, &position{}, &operate{}); err != nil {
		return nil, errors.Wrap(err, "migrate")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx core.LedgerStore) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(s)
}

func (a *account) toCore() (*core.Account, error) {
	id, err := uuid.FromString(a.Id)
	if err != nil {
		return nil, err
	}
	debt, err := parseAmount(a.DebtIssued)
	if err != nil {
		return nil, errors.Wrapf(err, "account %s debt", a.Id)
	}
	return &core.Account{Id: id, DebtIssued: debt, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}, nil
}

func (p *position) toCore() (*core.Position, error) {
	id, err := uuid.FromString(p.AccountId)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, errors.Wrapf(err, "position %s/%s amount", p.AccountId, p.AssetId)
	}
	return &core.Position{AccountId: id, AssetId: p.AssetId, Amount: amount, UpdatedAt: p.UpdatedAt}, nil
}

func (s *Store) FindAccount(ctx context.Context, accountId uuid.UUID) (*core.Account, error) {
	var a account
	if err := s.db.WithContext(ctx).Where("id = ?", accountId.String()).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return a.toCore()
}

func (s *Store) UpsertAccount(ctx context.Context, a *core.Account) error {
	m := account{
		Id:         a.Id.String(),
		DebtIssued: a.DebtIssued.Dec(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"debt_issued", "updated_at"}),
	}).Create(&m).Error
}

func (s *Store) ListAccounts(ctx context.Context, offset uuid.UUID, limit int) ([]*core.Account, error) {
	q := s.db.WithContext(ctx).Order("id")
	if offset != uuid.Nil {
		q = q.Where("id > ?", offset.String())
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []account
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	accounts := make([]*core.Account, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toCore()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *Store) FindPosition(ctx context.Context, accountId uuid.UUID, assetId string) (*core.Position, error) {
	var p position
	err := s.db.WithContext(ctx).Where("account_id = ? AND asset_id = ?", accountId.String(), assetId).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return p.toCore()
}

func (s *Store) UpsertPosition(ctx context.Context, p *core.Position) error {
	m := position{
		AccountId: p.AccountId.String(),
		AssetId:   p.AssetId,
		Amount:    p.Amount.Dec(),
		UpdatedAt: p.UpdatedAt,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "asset_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&m).Error
}

func (s *Store) ListPositions(ctx context.Context, accountId uuid.UUID) ([]*core.Position, error) {
	var rows []position
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountId.String()).Order("asset_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	positions := make([]*core.Position, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toCore()
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, nil
}

func (s *Store) CreateOperate(ctx context.Context, o *core.Operate) error {
	return s.db.WithContext(ctx).Create(&operate{
		Id:        o.Id.String(),
		AccountId: o.AccountId.String(),
		Op:        uint8(o.Op),
		Extra:     o.Extra,
		CreatedAt: o.CreatedAt,
	}).Error
}

func (s *Store) ListOperates(ctx context.Context, accountId uuid.UUID, op core.ActionType, createdBeforeAt int64, limit int) ([]*core.Operate, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if accountId != uuid.Nil {
		q = q.Where("account_id = ?", accountId.String())
	}
	if op != 0 {
		q = q.Where("op = ?", uint8(op))
	}
	if createdBeforeAt > 0 {
		q = q.Where("created_at < ?", createdBeforeAt)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []operate
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	operates := make([]*core.Operate, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.FromString(row.Id)
		if err != nil {
			return nil, err
		}
		accountId, err := uuid.FromString(row.AccountId)
		if err != nil {
			return nil, err
		}
		operates = append(operates, &core.Operate{
			Id:        id,
			AccountId: accountId,
			Op:        core.ActionType(row.Op),
			Extra:     row.Extra,
			CreatedAt: row.CreatedAt,
		})
	}
	return operates, nil
}
