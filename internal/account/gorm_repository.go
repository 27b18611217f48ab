package account

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// record is the gorm mapping of the accounts table.
type record struct {
	ID      string `gorm:"column:id;type:varchar(9);primaryKey"`
	Number  string `gorm:"column:number;type:varchar(16);uniqueIndex;not null"`
	PIN     string `gorm:"column:pin;type:varchar(4);not null"`
	Balance int64  `gorm:"column:balance;not null;default:0"`
}

func (record) TableName() string {
	return "accounts"
}

func (r record) toAccount() Account {
	return Account{ID: r.ID, Number: r.Number, PIN: r.PIN, Balance: r.Balance}
}

// GormRepository stores accounts through gorm, used for the MySQL backend.
// The *gorm.DB must be opened with TranslateError so duplicate keys surface
// as gorm.ErrDuplicatedKey.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository builds a gorm-backed repository.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Migrate creates or updates the accounts table.
func (r *GormRepository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&record{})
}

func (r *GormRepository) Create(ctx context.Context, acct Account) error {
	rec := record{ID: acct.ID, Number: acct.Number, PIN: acct.PIN, Balance: acct.Balance}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *GormRepository) IdentifierExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&record{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) FindByNumber(ctx context.Context, number string) (Account, error) {
	var rec record
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&rec).Error; err != nil {
		return Account{}, translate(err)
	}
	return rec.toAccount(), nil
}

func (r *GormRepository) FindByCredentials(ctx context.Context, number, pin string) (Account, error) {
	var rec record
	if err := r.db.WithContext(ctx).Where("number = ? AND pin = ?", number, pin).First(&rec).Error; err != nil {
		return Account{}, translate(err)
	}
	return rec.toAccount(), nil
}

func (r *GormRepository) Balance(ctx context.Context, number string) (int64, error) {
	acct, err := r.FindByNumber(ctx, number)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (r *GormRepository) Deposit(ctx context.Context, number string, amount int64) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("number = ?", number).First(&rec).Error; err != nil {
			return translate(err)
		}
		if !canCredit(rec.Balance, amount) {
			return ErrBalanceOverflow
		}
		if err := tx.Model(&record{}).Where("number = ?", number).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}
		balance = rec.Balance + amount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *GormRepository) Transfer(ctx context.Context, from, to string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}

	var res TransferResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []record
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("number IN ?", []string{from, to}).
			Order("number").
			Find(&rows).Error; err != nil {
			return err
		}

		var src, dst *record
		for i := range rows {
			switch rows[i].Number {
			case from:
				src = &rows[i]
			case to:
				dst = &rows[i]
			}
		}
		if src == nil || dst == nil {
			return ErrNotFound
		}
		if src.Balance < amount {
			return ErrInsufficientFunds
		}
		if !canCredit(dst.Balance, amount) {
			return ErrBalanceOverflow
		}

		if err := tx.Model(&record{}).Where("number = ?", from).
			UpdateColumn("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
			return err
		}
		if err := tx.Model(&record{}).Where("number = ?", to).
			UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
			return err
		}

		res = TransferResult{FromBalance: src.Balance - amount, ToBalance: dst.Balance + amount}
		return nil
	})
	if err != nil {
		return TransferResult{}, err
	}
	return res, nil
}

func (r *GormRepository) Delete(ctx context.Context, number string) error {
	res := r.db.WithContext(ctx).Where("number = ?", number).Delete(&record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
