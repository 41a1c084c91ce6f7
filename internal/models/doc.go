// Package models defines the core domain models for the expense tracker.
//
// # Models
//
//   - User: a registered account. Every expense belongs to exactly one user.
//   - Expense: a single spending record (amount, category, date, description).
//   - Category: the fixed set of expense categories with their display labels.
//
// # Design Principles
//
// 1. **Single owner**: Expense.UserID is set at creation and never reassigned
// 2. **Exact money**: amounts are decimal.Decimal with two fractional digits, never float64
// 3. **IDs as strings**: relationships use UUID strings instead of pointers
// 4. **Store-managed timestamps**: CreatedAt/UpdatedAt are written by the storage layer only
package models
