package expenses

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

// AllCategories is the category filter value meaning "no category filter".
const AllCategories = "All"

// ListQuery is the raw listing request. Every field is optional.
type ListQuery struct {
	Category string
	DateFrom string
	DateTo   string
	Search   string
	Page     int
	PageSize int
}

// SelectedFilters echoes the filters that were applied, for re-rendering a filter form.
type SelectedFilters struct {
	Category string
	DateFrom string
	DateTo   string
	Search   string
}

// ListResult is one page of a filtered listing.
type ListResult struct {
	Expenses []*models.Expense

	// TotalAmount and TotalCount cover every match, not only this page.
	TotalAmount decimal.Decimal
	TotalCount  int

	Page     int
	PageSize int
	HasNext  bool
	Selected SelectedFilters
}

// buildFilter turns q into a store filter. Unparseable dates are dropped
// rather than rejected.
func (m *Manager) buildFilter(ctx context.Context, q ListQuery) (storage.ExpenseFilter, SelectedFilters) {
	var f storage.ExpenseFilter
	selected := SelectedFilters{Category: AllCategories, Search: q.Search}

	if q.Category != "" && q.Category != AllCategories {
		f.Category = models.Category(q.Category)
		selected.Category = q.Category
	}

	if q.DateFrom != "" {
		if d, err := models.ParseDate(q.DateFrom); err != nil {
			m.logger.WarnContext(ctx, "Ignoring invalid date filter", "date_from", q.DateFrom, "error", err)
		} else {
			f.DateFrom = d
			selected.DateFrom = q.DateFrom
		}
	}
	if q.DateTo != "" {
		if d, err := models.ParseDate(q.DateTo); err != nil {
			m.logger.WarnContext(ctx, "Ignoring invalid date filter", "date_to", q.DateTo, "error", err)
		} else {
			f.DateTo = d
			selected.DateTo = q.DateTo
		}
	}

	f.Search = q.Search
	return f, selected
}
