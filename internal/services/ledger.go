package services

import (
	"context"
	"errors"
	"time"

	"ugcads-backend/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const grantPrefix = "grant:"

// Ledger owns every mutation of users.token_balance. Debits are conditional
// updates so a balance can never go negative, whatever the concurrency.
type Ledger struct {
	db     *gorm.DB
	locker Locker
	log    *zap.Logger
}

// NewLedger creates a ledger. locker may be nil, in which case the database
// row lock alone orders mutations.
func NewLedger(db *gorm.DB, locker Locker, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{db: db, locker: locker, log: log}
}

// Purchase is a settled payment to be converted into tokens.
type Purchase struct {
	UserID      string
	PaymentID   string
	Tokens      int64
	AmountCents int64
	Currency    string
	Metadata    models.Metadata
}

// LedgerTx exposes balance changes for one user inside a database transaction.
type LedgerTx struct {
	tx     *gorm.DB
	userID string
}

// DB is the underlying transaction, for writes that must commit together with
// the balance change.
func (t *LedgerTx) DB() *gorm.DB {
	return t.tx
}

func (t *LedgerTx) Balance() (int64, error) {
	var user models.User
	err := t.tx.Select("token_balance").Where("id = ?", t.userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.TokenBalance, nil
}

func (t *LedgerTx) Credit(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res := t.tx.Model(&models.User{}).
		Where("id = ?", t.userID).
		UpdateColumn("token_balance", gorm.Expr("token_balance + ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrUserNotFound
	}
	return t.Balance()
}

func (t *LedgerTx) Debit(amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	res := t.tx.Model(&models.User{}).
		Where("id = ? AND token_balance >= ?", t.userID, amount).
		UpdateColumn("token_balance", gorm.Expr("token_balance - ?", amount))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		balance, err := t.Balance()
		if err != nil {
			return 0, err
		}
		return balance, ErrInsufficientBalance
	}
	return t.Balance()
}

// Update runs fn in a transaction holding the user's ledger lock. Returning an
// error from fn rolls back every write made through the LedgerTx.
func (l *Ledger) Update(ctx context.Context, userID string, fn func(*LedgerTx) error) error {
	if userID == "" {
		return ErrUnauthenticated
	}

	if l.locker != nil {
		unlock, err := l.locker.Lock(ctx, "ledger:lock:"+userID)
		if err != nil {
			return err
		}
		defer unlock()
	}

	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerTx{tx: tx, userID: userID})
	})
}

// Compensate runs fn in a transaction without taking the user's ledger lock.
// fn must only add tokens; each LedgerTx update is a single atomic statement.
func (l *Ledger) Compensate(ctx context.Context, userID string, fn func(*LedgerTx) error) error {
	if userID == "" {
		return ErrUnauthenticated
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LedgerTx{tx: tx, userID: userID})
	})
}

// Refund returns amount to the user's balance. It never waits on the ledger
// lock, so a contended lock cannot swallow a refund.
func (l *Ledger) Refund(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64
	err := l.Compensate(ctx, userID, func(t *LedgerTx) error {
		var err error
		balance, err = t.Credit(amount)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("Tokens refunded", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}

func (l *Ledger) GetBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, ErrUnauthenticated
	}
	return (&LedgerTx{tx: l.db.WithContext(ctx), userID: userID}).Balance()
}

// Credit adds amount to the user's balance and returns the new balance.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64
	err := l.Update(ctx, userID, func(t *LedgerTx) error {
		var err error
		balance, err = t.Credit(amount)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("Tokens credited", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}

// Debit removes amount from the user's balance. It fails with
// ErrInsufficientBalance, leaving the balance untouched, when the user holds
// fewer than amount tokens; the returned balance is then the current one.
func (l *Ledger) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	var balance int64
	err := l.Update(ctx, userID, func(t *LedgerTx) error {
		var err error
		balance, err = t.Debit(amount)
		return err
	})
	if errors.Is(err, ErrInsufficientBalance) {
		return balance, err
	}
	if err != nil {
		return 0, err
	}

	l.log.Info("Tokens debited", zap.String("user_id", userID), zap.Int64("amount", amount), zap.Int64("balance", balance))
	return balance, nil
}

// RecordPurchase appends the purchase and credits its tokens in one
// transaction. A payment id that was already recorded yields
// ErrDuplicatePayment and changes nothing.
func (l *Ledger) RecordPurchase(ctx context.Context, p Purchase) (int64, error) {
	if p.PaymentID == "" {
		return 0, errors.New("payment id is required")
	}

	var balance int64
	err := l.Update(ctx, p.UserID, func(t *LedgerTx) error {
		if err := ensureUser(t.tx, p.UserID, ""); err != nil {
			return err
		}

		txn := models.Transaction{
			UserID:          p.UserID,
			TokensPurchased: p.Tokens,
			PaymentID:       p.PaymentID,
			AmountCents:     p.AmountCents,
			Currency:        p.Currency,
			Metadata:        p.Metadata,
		}
		res := t.tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).Create(&txn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrDuplicatePayment
		}

		var err error
		balance, err = t.Credit(p.Tokens)
		return err
	})
	if err != nil {
		return 0, err
	}

	l.log.Info("Purchase recorded",
		zap.String("user_id", p.UserID),
		zap.String("payment_id", p.PaymentID),
		zap.Int64("tokens", p.Tokens),
		zap.Int64("balance", balance),
	)
	return balance, nil
}

// TransactionFilter narrows ListTransactions. Zero fields match everything.
type TransactionFilter struct {
	UserID string
	Since  time.Time
	Until  time.Time
}

func (f TransactionFilter) apply(query *gorm.DB) *gorm.DB {
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if !f.Since.IsZero() {
		query = query.Where("created_at >= ?", f.Since)
	}
	if !f.Until.IsZero() {
		query = query.Where("created_at < ?", f.Until)
	}
	return query
}

// History lists a user's purchases, newest first.
func (l *Ledger) History(ctx context.Context, userID string, page, pageSize int) ([]models.Transaction, int64, error) {
	if userID == "" {
		return nil, 0, ErrUnauthenticated
	}
	return l.ListTransactions(ctx, TransactionFilter{UserID: userID}, page, pageSize)
}

// ListTransactions pages through recorded purchases and grants, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, filter TransactionFilter, page, pageSize int) ([]models.Transaction, int64, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := filter.apply(l.db.WithContext(ctx).Model(&models.Transaction{}))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []models.Transaction
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ExportTransactions returns up to exportLimit matching transactions as CSV.
func (l *Ledger) ExportTransactions(ctx context.Context, filter TransactionFilter) ([]byte, error) {
	var txns []models.Transaction
	query := filter.apply(l.db.WithContext(ctx).Model(&models.Transaction{}))
	if err := query.Order("created_at DESC").Limit(exportLimit).Find(&txns).Error; err != nil {
		return nil, err
	}
	return TransactionCSV(txns)
}

// Grant credits tokens outside of a payment, for support adjustments. The
// reference makes the grant idempotent; a repeated reference returns
// ErrDuplicatePayment. An empty reference gets a fresh one.
func (l *Ledger) Grant(ctx context.Context, userID string, tokens int64, reference, reason, operator string) (int64, error) {
	if reference == "" {
		reference = uuid.NewString()
	}
	return l.RecordPurchase(ctx, Purchase{
		UserID:    userID,
		PaymentID: grantPrefix + reference,
		Tokens:    tokens,
		Metadata: models.Metadata{
			"source":   "grant",
			"reason":   reason,
			"operator": operator,
		},
	})
}

// NormalizePage clamps list paging to page >= 1 and 1..100 items, defaulting to 20.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

// ensureUser inserts a zero-balance row for id unless one exists.
func ensureUser(tx *gorm.DB, id, email string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&models.User{ID: id, Email: email}).Error
}
