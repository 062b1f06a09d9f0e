package core

import (
	"context"
	"database/sql/driver"
	"encoding/json"

	"github.com/facebookgo/clock"
	"github.com/gofrs/uuid"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

type ActionType uint8

const (
	ATDeposit ActionType = iota + 1
	ATWithdraw
	ATIssue
	ATRepay
	ATLiquidate
	ATDepositAndIssue
	ATRepayAndWithdraw
)

func (a ActionType) String() string {
	switch a {
	case ATDeposit:
		return "Deposit"
	case ATWithdraw:
		return "Withdraw"
	case ATIssue:
		return "Issue"
	case ATRepay:
		return "Repay"
	case ATLiquidate:
		return "Liquidate"
	case ATDepositAndIssue:
		return "DepositAndIssue"
	case ATRepayAndWithdraw:
		return "RepayAndWithdraw"
	default:
		return "Unknown"
	}
}

func ParseActionType(action string) (ActionType, bool) {
	for a := ATDeposit; a <= ATRepayAndWithdraw; a++ {
		if a.String() == action {
			return a, true
		}
	}
	return 0, false
}

type (
	OperateStore interface {
		CreateOperate(ctx context.Context, operate *Operate) error
		// ListOperates returns the newest first. A zero op matches every type.
		ListOperates(ctx context.Context, accountId uuid.UUID, op ActionType, createdBeforeAt int64, limit int) ([]*Operate, error)
	}

	// Operate is the journal entry written with every committed operation.
	Operate struct {
		Id        uuid.UUID     `json:"id"`
		AccountId uuid.UUID     `json:"accountId"`
		Op        ActionType    `json:"op"`
		Extra     OperateDetail `json:"extra"`
		CreatedAt int64         `json:"createdAt"`
	}

	OperateDetail struct {
		Type      ActionType       `json:"type"`
		AccountId uuid.UUID        `json:"actor"`
		Actions   []ActionDetail   `json:"actions"`
		Liquidate *LiquidateResult `json:"liquidate,omitempty"`
	}

	ActionDetail struct {
		AccountId  uuid.UUID    `json:"account"`
		ActionType ActionType   `json:"actionType"`
		AssetId    string       `json:"assetId,omitempty"`
		Amount     *uint256.Int `json:"amount"`
	}
)

func NewOperate(clk clock.Clock, accountId uuid.UUID, typ ActionType, extra OperateDetail) *Operate {
	return &Operate{
		Id:        uuid.Must(uuid.NewV4()),
		AccountId: accountId,
		Op:        typ,
		Extra:     extra,
		CreatedAt: clk.Now().Unix(),
	}
}

func (j OperateDetail) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *OperateDetail) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("unsupported operate detail type %T", value)
	}
	return json.Unmarshal(data, j)
}
