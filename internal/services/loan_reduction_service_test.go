package services

import (
	"context"
	"testing"

	"wealthbook/internal/models"
	"wealthbook/internal/testutil"

	"gorm.io/gorm"
)

func createLoan(t *testing.T, db *gorm.DB, name, date, value string) *models.WealthCategory {
	t.Helper()

	cat := &models.WealthCategory{CategoryType: models.CategoryTypeLoan, Name: name, Currency: "HUF"}
	if err := db.Create(cat).Error; err != nil {
		t.Fatalf("failed to create loan: %v", err)
	}
	testutil.CreateTestWealthValue(t, db, cat.ID, date, value)
	return cat
}

func valueOn(t *testing.T, db *gorm.DB, categoryID, date string) models.WealthValue {
	t.Helper()

	var v models.WealthValue
	if err := db.Where("wealth_category_id = ? AND value_date = ?", categoryID, testutil.Date(t, date)).First(&v).Error; err != nil {
		t.Fatalf("no value on %s: %v", date, err)
	}
	return v
}

func TestApplyLoanReductions(t *testing.T) {
	t.Run("reduces_latest_earlier_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLoanReductionService(db, newWealthService(db))
		loan := createLoan(t, db, "Mortgage", "2024-01-01", "1000000")

		res, err := svc.ApplyLoanReductions(context.Background(), testutil.Date(t, "2024-02-01"), []LoanReduction{
			{Category: "Mortgage", Amount: testutil.Dec("150000")},
		})
		testutil.AssertNoError(t, err)
		if res.Succeeded != 1 {
			t.Fatalf("expected 1 success, got %+v", res)
		}

		v := valueOn(t, db, loan.ID, "2024-02-01")
		testutil.AssertDecimal(t, "new balance", v.PresentValue, "850000")
		if v.Note != "Automatic monthly reduction: -150000 HUF" {
			t.Errorf("unexpected note %q", v.Note)
		}
	})

	t.Run("rerun_same_date_is_stable", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLoanReductionService(db, newWealthService(db))
		loan := createLoan(t, db, "Car loan", "2024-01-01", "500000")
		reductions := []LoanReduction{{Category: "Car loan", Amount: testutil.Dec("100000")}}

		for i := 0; i < 2; i++ {
			_, err := svc.ApplyLoanReductions(context.Background(), testutil.Date(t, "2024-02-01"), reductions)
			testutil.AssertNoError(t, err)
		}
		testutil.AssertDecimal(t, "balance", valueOn(t, db, loan.ID, "2024-02-01").PresentValue, "400000")
	})

	t.Run("floors_at_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLoanReductionService(db, newWealthService(db))
		loan := createLoan(t, db, "Student loan", "2024-01-01", "50000")

		_, err := svc.ApplyLoanReductions(context.Background(), testutil.Date(t, "2024-02-01"), []LoanReduction{
			{Category: "Student loan", Amount: testutil.Dec("80000")},
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "balance", valueOn(t, db, loan.ID, "2024-02-01").PresentValue, "0")
	})

	t.Run("keeps_negative_sign", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLoanReductionService(db, newWealthService(db))
		loan := createLoan(t, db, "Mortgage", "2024-01-01", "-300000")

		_, err := svc.ApplyLoanReductions(context.Background(), testutil.Date(t, "2024-02-01"), []LoanReduction{
			{Category: "Mortgage", Amount: testutil.Dec("100000")},
		})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "balance", valueOn(t, db, loan.ID, "2024-02-01").PresentValue, "-200000")
	})

	t.Run("unknown_category_and_missing_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewLoanReductionService(db, newWealthService(db))
		createLoan(t, db, "Future loan", "2024-03-01", "100")

		res, err := svc.ApplyLoanReductions(context.Background(), testutil.Date(t, "2024-02-01"), []LoanReduction{
			{Category: "Nope", Amount: testutil.Dec("1")},
			{Category: "Future loan", Amount: testutil.Dec("1")},
			{Category: "Future loan", Amount: testutil.Dec("0")},
		})
		testutil.AssertNoError(t, err)
		if res.Failed != 3 {
			t.Fatalf("expected 3 failures, got %+v", res)
		}
		want := []string{"CATEGORY_NOT_FOUND", "WEALTH_VALUE_NOT_FOUND", "INVALID_INPUT"}
		for i, code := range want {
			if res.Issues[i].Code != code {
				t.Errorf("issue %d: expected %s, got %s", i, code, res.Issues[i].Code)
			}
		}
	})
}
