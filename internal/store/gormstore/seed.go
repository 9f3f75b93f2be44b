package gormstore

import (
	"context"
	"fmt"
	"time"

	"fincoach/internal/logger"
	"fincoach/internal/store/model"
)

// SeedDemo ingests a small demo population when the accounts table is empty.
// Raw records are owned by the surrounding ingestion layer in production;
// this exists so the binary runs end to end out of the box.
func (s *GormStore) SeedDemo(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store not initialized")
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.AccountModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	nowUnix := now.Unix()
	limit := func(v float64) *float64 { return &v }

	accounts := []model.AccountModel{
		// user-revolver: one maxed-out card.
		{ID: "acct-rev-1", UserID: "user-revolver", Name: "Everyday Card", Type: "credit", Subtype: "credit card",
			CurrentBalance: 3750, CreditLimit: limit(5000), APR: limit(22), CreatedAtUnix: nowUnix},
		{ID: "acct-rev-2", UserID: "user-revolver", Name: "Checking", Type: "depository", Subtype: "checking",
			CurrentBalance: 1200, CreatedAtUnix: nowUnix},
		// user-streamer: checking account with a pile of subscriptions.
		{ID: "acct-str-1", UserID: "user-streamer", Name: "Checking", Type: "depository", Subtype: "checking",
			CurrentBalance: 2400, CreatedAtUnix: nowUnix},
		// user-saver: savings account with steady inflow.
		{ID: "acct-sav-1", UserID: "user-saver", Name: "Checking", Type: "depository", Subtype: "checking",
			CurrentBalance: 1800, CreatedAtUnix: nowUnix},
		{ID: "acct-sav-2", UserID: "user-saver", Name: "Rainy Day", Type: "depository", Subtype: "savings",
			CurrentBalance: 5200, CreatedAtUnix: nowUnix},
	}
	if err := s.db.WithContext(ctx).Create(&accounts).Error; err != nil {
		return err
	}

	var txns []model.TransactionModel
	txnID := 0
	addTxn := func(userID, acctID string, daysAgo int, amount float64, merchant, category string) {
		txnID++
		txns = append(txns, model.TransactionModel{
			ID:           fmt.Sprintf("txn-%04d", txnID),
			AccountID:    acctID,
			UserID:       userID,
			DateUnix:     now.AddDate(0, 0, -daysAgo).Unix(),
			Amount:       amount,
			MerchantName: merchant,
			Category:     category,
			CreatedAtUnix: nowUnix,
		})
	}

	// Subscriptions for user-streamer: three recurring merchants plus payroll.
	for _, offset := range []int{4, 34, 64} {
		addTxn("user-streamer", "acct-str-1", offset, -15.99, "Netflix", "entertainment")
		addTxn("user-streamer", "acct-str-1", offset+1, -10.99, "Spotify", "entertainment")
		addTxn("user-streamer", "acct-str-1", offset+2, -34.99, "PeakFit Gym", "fitness")
	}
	for _, offset := range []int{3, 33, 63} {
		addTxn("user-streamer", "acct-str-1", offset, 2600, "Initech Payroll", "payroll")
	}

	// Steady payroll and savings transfers for user-saver.
	for _, offset := range []int{2, 16, 30, 44, 58} {
		addTxn("user-saver", "acct-sav-1", offset, 1450, "Globex Payroll", "payroll")
		addTxn("user-saver", "acct-sav-2", offset-1, 300, "Transfer from Checking", "transfer")
	}

	// Some ordinary spending for user-revolver.
	for _, offset := range []int{5, 12, 19, 26} {
		addTxn("user-revolver", "acct-rev-2", offset, -86.40, "Hometown Grocer", "groceries")
	}

	if err := s.db.WithContext(ctx).Create(&txns).Error; err != nil {
		return err
	}

	consents := []model.ConsentModel{
		{UserID: "user-revolver", Granted: 1, UpdatedAtUnix: nowUnix},
		{UserID: "user-streamer", Granted: 1, UpdatedAtUnix: nowUnix},
		{UserID: "user-saver", Granted: 0, UpdatedAtUnix: nowUnix},
	}
	if err := s.db.WithContext(ctx).Create(&consents).Error; err != nil {
		return err
	}
	logger.Infof("seeded demo records: %d accounts, %d transactions", len(accounts), len(txns))
	return nil
}
