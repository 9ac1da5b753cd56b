package ledger

import (
	"errors"

	"github.com/boltdb/bolt"
	"github.com/influex/influex/config"
	"github.com/influex/influex/misc"
)

// One account per user, keyed by user id in the wallet bucket. Every
// mutation runs inside a bolt R/W transaction so both legs of a
// transfer either land together or not at all. Bolt's single writer
// also serializes concurrent transitions touching the same balances.

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAmount            = errors.New("amount must be a positive integer")
	ErrAccount           = errors.New("account not found")
)

type Account struct {
	Id               string         `json:"id"`
	AvailableBalance int64          `json:"availableBalance"`
	EscrowBalance    int64          `json:"escrowBalance"`
	TotalEarned      int64          `json:"totalEarned"`
	Transactions     []*Transaction `json:"transactions,omitempty"`
}

func Create(tx *bolt.Tx, cfg *config.Config, id string) error {
	return save(tx, cfg, &Account{Id: id})
}

func get(tx *bolt.Tx, cfg *config.Config, id string) (*Account, error) {
	v := misc.GetBucket(tx, cfg.Bucket.Wallet).Get([]byte(id))
	if len(v) == 0 {
		return nil, ErrAccount
	}
	var acct Account
	if err := misc.GetTxJson(tx, cfg.Bucket.Wallet, id, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}

func save(tx *bolt.Tx, cfg *config.Config, acct *Account) error {
	return misc.PutTxJson(tx, cfg.Bucket.Wallet, acct.Id, acct)
}

// GetAccount returns a read-only snapshot of the account.
func GetAccount(db *bolt.DB, cfg *config.Config, id string) (*Account, error) {
	var acct *Account
	if err := db.View(func(tx *bolt.Tx) (err error) {
		acct, err = get(tx, cfg, id)
		return
	}); err != nil {
		return nil, err
	}
	return acct, nil
}

func GetAccountTx(tx *bolt.Tx, cfg *config.Config, id string) (*Account, error) {
	return get(tx, cfg, id)
}

func DebitAvailable(tx *bolt.Tx, cfg *config.Config, id string, amount int64) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	if acct.AvailableBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	acct.AvailableBalance -= amount
	return save(tx, cfg, acct)
}

func CreditAvailable(tx *bolt.Tx, cfg *config.Config, id string, amount int64) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	acct.AvailableBalance += amount
	return save(tx, cfg, acct)
}

func DebitEscrow(tx *bolt.Tx, cfg *config.Config, id string, amount int64) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	if acct.EscrowBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	acct.EscrowBalance -= amount
	return save(tx, cfg, acct)
}

func CreditEscrow(tx *bolt.Tx, cfg *config.Config, id string, amount int64) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	acct.EscrowBalance += amount
	return save(tx, cfg, acct)
}

// Record prepends the transaction to the account's log. Callers are
// responsible for unique transaction ids.
func Record(tx *bolt.Tx, cfg *config.Config, id string, txn *Transaction) error {
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	acct.Transactions = append([]*Transaction{txn}, acct.Transactions...)
	return save(tx, cfg, acct)
}

// Lock moves amount from the account's available balance into escrow
// and records an ESCROW_LOCK transaction. Fails before any mutation
// when the available balance can't cover the amount.
func Lock(tx *bolt.Tx, cfg *config.Config, id string, amount int64, desc string) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	if acct.AvailableBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	acct.AvailableBalance -= amount
	acct.EscrowBalance += amount
	acct.Transactions = append([]*Transaction{NewTransaction(TxnEscrowLock, amount, desc, TxnSuccess)}, acct.Transactions...)
	return save(tx, cfg, acct)
}

// Unlock reverses a prior Lock exactly: escrow back to available,
// with an ESCROW_RELEASE transaction.
func Unlock(tx *bolt.Tx, cfg *config.Config, id string, amount int64, desc string) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	if acct.EscrowBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	acct.EscrowBalance -= amount
	acct.AvailableBalance += amount
	acct.Transactions = append([]*Transaction{NewTransaction(TxnEscrowRelease, amount, desc, TxnSuccess)}, acct.Transactions...)
	return save(tx, cfg, acct)
}

// Settle pays out an escrow-backed deal: the payer's escrow is debited
// and the payee's available balance and lifetime earnings are credited,
// all inside the caller's transaction. The escrow debit must equal the
// amount credited to the payee.
func Settle(tx *bolt.Tx, cfg *config.Config, payerId, payeeId string, amount int64, desc string) error {
	if amount <= 0 {
		return ErrAmount
	}

	payer, err := get(tx, cfg, payerId)
	if err != nil {
		return err
	}
	payee, err := get(tx, cfg, payeeId)
	if err != nil {
		return err
	}
	if payer.EscrowBalance-amount < 0 {
		return ErrInsufficientFunds
	}

	payer.EscrowBalance -= amount
	payer.Transactions = append([]*Transaction{NewTransaction(TxnEscrowRelease, amount, desc, TxnSuccess)}, payer.Transactions...)

	payee.AvailableBalance += amount
	payee.TotalEarned += amount
	payee.Transactions = append([]*Transaction{NewTransaction(TxnIncome, amount, desc, TxnSuccess)}, payee.Transactions...)

	if err := save(tx, cfg, payer); err != nil {
		return err
	}
	return save(tx, cfg, payee)
}

// Deposit credits the available balance. The payment rail is an
// external collaborator, so the transaction lands as SUCCESS.
func Deposit(tx *bolt.Tx, cfg *config.Config, id string, amount int64, desc string) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	acct.AvailableBalance += amount
	acct.Transactions = append([]*Transaction{NewTransaction(TxnDeposit, amount, desc, TxnSuccess)}, acct.Transactions...)
	return save(tx, cfg, acct)
}

// Withdraw debits the available balance immediately so the funds can't
// be double spent; the payout itself settles out of band, so the
// transaction is recorded as PENDING.
func Withdraw(tx *bolt.Tx, cfg *config.Config, id string, amount int64, desc string) error {
	if amount <= 0 {
		return ErrAmount
	}
	acct, err := get(tx, cfg, id)
	if err != nil {
		return err
	}
	if acct.AvailableBalance-amount < 0 {
		return ErrInsufficientFunds
	}
	acct.AvailableBalance -= amount
	acct.Transactions = append([]*Transaction{NewTransaction(TxnWithdraw, amount, desc, TxnPending)}, acct.Transactions...)
	return save(tx, cfg, acct)
}
