package services

import (
	"testing"

	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/testutil"

	"github.com/shopspring/decimal"
)

func TestRecordTransaction(t *testing.T) {
	t.Run("buy_opens_holding", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		p := testutil.CreateTestPortfolio(t, db)
		inst := testutil.CreateTestInstrument(t, db, "HUF")

		txn, h, err := svc.RecordTransaction(TransactionInput{
			PortfolioID:     p.ID,
			InstrumentID:    inst.ID,
			TransactionDate: testutil.Date(t, "2024-02-10"),
			Type:            models.TransactionTypeBuy,
			Quantity:        testutil.Dec("10"),
			Price:           decimal.NewNullDecimal(testutil.Dec("1500")),
		})
		testutil.AssertNoError(t, err)

		if txn.ID == "" {
			t.Fatal("expected transaction ID")
		}
		testutil.AssertDecimal(t, "quantity", h.Quantity, "10")
		if h.AcquisitionDate == nil || !h.AcquisitionDate.Equal(testutil.Date(t, "2024-02-10")) {
			t.Errorf("expected acquisition date 2024-02-10, got %v", h.AcquisitionDate)
		}
	})

	t.Run("buy_then_sell", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		p := testutil.CreateTestPortfolio(t, db)
		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestHolding(t, db, p.ID, inst.ID, "10")

		_, h, err := svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: inst.ID, Type: models.TransactionTypeBuy, Quantity: testutil.Dec("2.5"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "after buy", h.Quantity, "12.5")

		_, h, err = svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: inst.ID, Type: models.TransactionTypeSell, Quantity: testutil.Dec("12.5"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "after sell", h.Quantity, "0")

		var stored models.Holding
		if err := db.Where("id = ?", h.ID).First(&stored).Error; err != nil {
			t.Fatalf("failed to reload holding: %v", err)
		}
		testutil.AssertDecimal(t, "stored", stored.Quantity, "0")
	})

	t.Run("sell_more_than_held", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		p := testutil.CreateTestPortfolio(t, db)
		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestHolding(t, db, p.ID, inst.ID, "3")

		_, _, err := svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: inst.ID, Type: models.TransactionTypeSell, Quantity: testutil.Dec("4"),
		})
		testutil.AssertAppError(t, err, "INVARIANT_VIOLATION")

		var count int64
		db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected rollback of the transaction row, found %d", count)
		}
	})

	t.Run("adjust_sets_quantity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		p := testutil.CreateTestPortfolio(t, db)
		inst := testutil.CreateTestInstrument(t, db, "HUF")
		testutil.CreateTestHolding(t, db, p.ID, inst.ID, "3")

		_, h, err := svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: inst.ID, Type: models.TransactionTypeAdjust, Quantity: testutil.Dec("7.25"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "quantity", h.Quantity, "7.25")
	})

	t.Run("invalid_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, _, err := svc.RecordTransaction(TransactionInput{Type: "GIFT", Quantity: testutil.Dec("1")})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("zero_quantity_buy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)

		_, _, err := svc.RecordTransaction(TransactionInput{Type: models.TransactionTypeBuy, Quantity: decimal.Zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_instrument", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db)
		p := testutil.CreateTestPortfolio(t, db)

		_, _, err := svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: "00000000-0000-0000-0000-000000000000",
			Type: models.TransactionTypeBuy, Quantity: testutil.Dec("1"),
		})
		testutil.AssertAppError(t, err, "INSTRUMENT_NOT_FOUND")
	})
}

func TestListTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db)
	p := testutil.CreateTestPortfolio(t, db)
	inst := testutil.CreateTestInstrument(t, db, "HUF")

	for _, d := range []string{"2024-01-05", "2024-03-01", "2024-02-01"} {
		_, _, err := svc.RecordTransaction(TransactionInput{
			PortfolioID: p.ID, InstrumentID: inst.ID, TransactionDate: testutil.Date(t, d),
			Type: models.TransactionTypeBuy, Quantity: testutil.Dec("1"),
		})
		testutil.AssertNoError(t, err)
	}

	page, err := svc.ListTransactions(p.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 3 {
		t.Fatalf("expected 3 transactions, got %d", page.TotalItems)
	}
	if !page.Data[0].TransactionDate.Equal(testutil.Date(t, "2024-03-01")) {
		t.Errorf("expected newest first, got %v", page.Data[0].TransactionDate)
	}

	got, err := svc.GetTransactionByID(page.Data[0].ID)
	testutil.AssertNoError(t, err)
	if got.Instrument.ID != inst.ID {
		t.Errorf("expected instrument preloaded")
	}

	_, err = svc.GetTransactionByID("00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}
