package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wealthbook/internal/dates"
	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/models"
	"wealthbook/internal/pagination"
	"wealthbook/internal/pricing"
)

// wealthService handles non-portfolio wealth and the daily aggregation.
type wealthService struct {
	db   *gorm.DB
	fx   pricing.RateResolver
	base string
}

// NewWealthService creates a new WealthServicer. Values in other currencies
// are converted to baseCurrency through fx.
func NewWealthService(db *gorm.DB, fx pricing.RateResolver, baseCurrency string) WealthServicer {
	if baseCurrency == "" {
		baseCurrency = "HUF"
	}
	return &wealthService{db: db, fx: fx, base: strings.ToUpper(baseCurrency)}
}

// IsValidCategoryType reports whether t is a known wealth category type.
func IsValidCategoryType(t models.CategoryType) bool {
	switch t {
	case models.CategoryTypeCash, models.CategoryTypeProperty, models.CategoryTypePension,
		models.CategoryTypeLoan, models.CategoryTypeOther:
		return true
	}
	return false
}

// CreateCategory creates a wealth category. Loans are always liabilities.
func (s *wealthService) CreateCategory(categoryType models.CategoryType, name, currency string, isLiability bool) (*models.WealthCategory, error) {
	if !IsValidCategoryType(categoryType) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown category type")
	}
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name is required")
	}
	if currency == "" {
		currency = s.base
	}

	cat := &models.WealthCategory{
		CategoryType: categoryType,
		Name:         name,
		Currency:     strings.ToUpper(currency),
		IsLiability:  isLiability,
	}
	if err := s.db.Create(cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cat, nil
}

// ListCategories returns categories ordered by type and name, optionally
// filtered by type.
func (s *wealthService) ListCategories(categoryType string) ([]models.WealthCategory, error) {
	q := s.db.Order("category_type ASC").Order("name ASC")
	if categoryType != "" {
		q = q.Where("category_type = ?", categoryType)
	}
	var cats []models.WealthCategory
	if err := q.Find(&cats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cats, nil
}

// GetCategory returns a category by ID.
func (s *wealthService) GetCategory(id string) (*models.WealthCategory, error) {
	var cat models.WealthCategory
	if err := s.db.Where("id = ?", id).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cat, nil
}

// UpdateCategory changes a category's name, currency or liability flag. A
// loan stays a liability whatever the request says.
func (s *wealthService) UpdateCategory(id string, update CategoryUpdate) (*models.WealthCategory, error) {
	cat, err := s.GetCategory(id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name cannot be empty")
		}
		cat.Name = *update.Name
	}
	if update.Currency != nil {
		cat.Currency = strings.ToUpper(*update.Currency)
	}
	if update.IsLiability != nil {
		cat.IsLiability = *update.IsLiability
	}

	if err := s.db.Save(cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return cat, nil
}

// DeleteCategory removes a category together with its values.
func (s *wealthService) DeleteCategory(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("wealth_category_id = ?", id).Delete(&models.WealthValue{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		res := tx.Unscoped().Where("id = ?", id).Delete(&models.WealthCategory{})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCategoryNotFound
		}
		return nil
	})
}

// UpsertValue records the present value of a category on a date, replacing
// any earlier value for the same date. Liabilities may be entered with
// either sign.
func (s *wealthService) UpsertValue(ctx context.Context, categoryID string, date time.Time, value decimal.Decimal, note string) (*models.WealthValue, error) {
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "value_date is required")
	}
	if err := ensureExists(s.db, &models.WealthCategory{}, categoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}

	day := dates.Day(date)
	row := models.WealthValue{
		WealthCategoryID: categoryID,
		ValueDate:        day,
		PresentValue:     value.Round(2),
		Note:             note,
	}
	key := map[string]interface{}{"wealth_category_id": categoryID, "value_date": day}
	if _, err := upsert(ctx, s.db, &row, key,
		map[string]interface{}{"present_value": row.PresentValue, "note": note},
	); err != nil {
		return nil, err
	}

	var stored models.WealthValue
	if err := s.db.Preload("Category").Where(key).First(&stored).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &stored, nil
}

// ListValues returns the values recorded on date joined with their
// categories, optionally filtered by category type.
func (s *wealthService) ListValues(date time.Time, categoryType string) ([]WealthValueView, error) {
	return s.loadValues(context.Background(), dates.Day(date), categoryType)
}

func (s *wealthService) loadValues(ctx context.Context, day time.Time, categoryType string) ([]WealthValueView, error) {
	var values []models.WealthValue
	if err := s.db.WithContext(ctx).InnerJoins("Category").
		Where("wealth_values.value_date = ?", day).
		Find(&values).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]WealthValueView, 0, len(values))
	for i := range values {
		v := &values[i]
		if categoryType != "" && string(v.Category.CategoryType) != categoryType {
			continue
		}
		views = append(views, WealthValueView{
			ID:               v.ID,
			WealthCategoryID: v.WealthCategoryID,
			CategoryType:     v.Category.CategoryType,
			CategoryName:     v.Category.Name,
			Currency:         v.Category.Currency,
			IsLiability:      v.Category.IsLiability,
			ValueDate:        v.ValueDate,
			PresentValue:     v.PresentValue,
			Note:             v.Note,
		})
	}
	sort.Slice(views, func(i, j int) bool {
		if views[i].CategoryType != views[j].CategoryType {
			return views[i].CategoryType < views[j].CategoryType
		}
		return views[i].CategoryName < views[j].CategoryName
	})
	return views, nil
}

// GetValueHistory returns a category's values between from and to, oldest first.
func (s *wealthService) GetValueHistory(categoryID string, from, to time.Time) ([]models.WealthValue, error) {
	if err := ensureExists(s.db, &models.WealthCategory{}, categoryID, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	var values []models.WealthValue
	if err := s.db.Where("wealth_category_id = ? AND value_date >= ? AND value_date <= ?",
		categoryID, dates.Day(from), dates.Day(to)).
		Order("value_date ASC").
		Find(&values).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return values, nil
}

// DeleteValue removes a value. The row is deleted outright so the date can be
// recorded again.
func (s *wealthService) DeleteValue(id string) error {
	res := s.db.Unscoped().Where("id = ?", id).Delete(&models.WealthValue{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrWealthValueNotFound
	}
	return nil
}

// ValueDates returns the distinct dates that have wealth values, oldest first.
func (s *wealthService) ValueDates() ([]time.Time, error) {
	var values []models.WealthValue
	if err := s.db.Select("value_date").Order("value_date ASC").Find(&values).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	out := []time.Time{}
	for i := range values {
		d := dates.Day(values[i].ValueDate)
		if n := len(out); n > 0 && out[n-1].Equal(d) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// GetSnapshot returns the stored snapshot for a date.
func (s *wealthService) GetSnapshot(date time.Time) (*models.TotalWealthSnapshot, error) {
	var snap models.TotalWealthSnapshot
	if err := s.db.Where("snapshot_date = ?", dates.Day(date)).First(&snap).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSnapshotNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &snap, nil
}

// ListSnapshots returns snapshots within a date range, newest first.
func (s *wealthService) ListSnapshots(
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.TotalWealthSnapshot], error) {
	base := s.db.Model(&models.TotalWealthSnapshot{}).
		Where("snapshot_date >= ? AND snapshot_date <= ?", dates.Day(from), dates.Day(to))

	result, err := pagination.Query[models.TotalWealthSnapshot](base, page, "snapshot_date DESC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetYoYChange compares net wealth on date with the latest snapshot on or
// before the same day one year earlier. Without an earlier snapshot the
// previous-year fields are nil.
func (s *wealthService) GetYoYChange(date time.Time) (*YoYChange, error) {
	current, err := s.GetSnapshot(date)
	if err != nil {
		return nil, err
	}
	out := &YoYChange{
		CurrentDate:   dates.Format(current.SnapshotDate),
		CurrentWealth: current.NetWealthHUF,
	}

	var prev models.TotalWealthSnapshot
	err = s.db.Where("snapshot_date <= ?", dates.YearAgo(dates.Day(date))).
		Order("snapshot_date DESC").
		First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	prevDate := dates.Format(prev.SnapshotDate)
	change := current.NetWealthHUF.Sub(prev.NetWealthHUF)
	pct := decimal.Zero
	if !prev.NetWealthHUF.IsZero() {
		pct = change.Div(prev.NetWealthHUF.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
	}
	out.PreviousDate = &prevDate
	out.PreviousWealth = &prev.NetWealthHUF
	out.Change = &change
	out.Percentage = &pct
	return out, nil
}
