package ledger

import (
	"time"

	"github.com/influex/influex/misc"
)

type TxnType string

const (
	TxnDeposit       TxnType = "DEPOSIT"
	TxnWithdraw      TxnType = "WITHDRAW"
	TxnEscrowLock    TxnType = "ESCROW_LOCK"
	TxnEscrowRelease TxnType = "ESCROW_RELEASE"
	TxnIncome        TxnType = "INCOME"
)

type TxnStatus string

const (
	TxnSuccess TxnStatus = "SUCCESS"
	TxnPending TxnStatus = "PENDING"
	TxnFailed  TxnStatus = "FAILED"
)

// Transaction is immutable once created and prepended to the
// account's log (newest first)
type Transaction struct {
	Id          string    `json:"id"`
	Type        TxnType   `json:"type"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description,omitempty"`
	Timestamp   int64     `json:"timestamp"`
	Status      TxnStatus `json:"status"`
}

func NewTransaction(typ TxnType, amount int64, desc string, status TxnStatus) *Transaction {
	return &Transaction{
		Id:          misc.PseudoUUID(),
		Type:        typ,
		Amount:      amount,
		Description: desc,
		Timestamp:   time.Now().Unix(),
		Status:      status,
	}
}
