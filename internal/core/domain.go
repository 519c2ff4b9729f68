package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Food      Category = "Food"
	Transport Category = "Transport"
	Study     Category = "Study"
	Shopping  Category = "Shopping"
	Salary    Category = "Salary"
	Freelance Category = "Freelance"
	Gift      Category = "Gift"
	Others    Category = "Others"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type (
	TransactionType string

	Category string

	Theme string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID       string          `json:"id"`
		Type     TransactionType `json:"type"`
		Amount   Money           `json:"amount"`
		Category Category        `json:"category"`
		Date     Date            `json:"date"`
		Note     string          `json:"note"`
	}

	Budget struct {
		Category Category `json:"category"`
		Limit    Money    `json:"limit"`
	}

	Goal struct {
		ID            string    `json:"id"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	UserProfile struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar,omitempty"` // data URI, empty when unset
	}

	// AppState is the aggregate root: the unit of persistence and of
	// reactivity. Mutations replace the whole value.
	AppState struct {
		User         UserProfile   `json:"user"`
		Transactions []Transaction `json:"transactions"`
		Budgets      []Budget      `json:"budgets"`
		Goals        []Goal        `json:"goals"`
		Theme        Theme         `json:"theme"`
		PIN          string        `json:"pin,omitempty"`
		IsLocked     bool          `json:"isLocked"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidTarget   = errors.New("invalid target amount")
)

// Categories returns the closed set in canonical order.
func Categories() []Category {
	return []Category{Food, Transport, Study, Shopping, Salary, Freelance, Gift, Others}
}

// ExpenseCategories returns the conventional UI grouping for expenses.
// Others belongs to both groups; that overlap is intentional.
func ExpenseCategories() []Category {
	return []Category{Food, Transport, Study, Shopping, Others}
}

// IncomeCategories returns the conventional UI grouping for income.
func IncomeCategories() []Category {
	return []Category{Salary, Freelance, Gift, Others}
}

func (c Category) Valid() bool {
	switch c {
	case Food, Transport, Study, Shopping, Salary, Freelance, Gift, Others:
		return true
	default:
		return false
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (th Theme) Valid() bool {
	return th == ThemeLight || th == ThemeDark
}

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

const dateLayout = "2006-01-02"

// ParseDate parses an ISO yyyy-mm-dd string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// MarshalJSON encodes the date as an ISO yyyy-mm-dd string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts ISO yyyy-mm-dd and, for imported backups, full
// RFC 3339 timestamps.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

// InPeriod reports whether the date falls in the given calendar month.
func (d Date) InPeriod(year int, month time.Month) bool {
	return d.Year() == year && d.Month() == month
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (tx Transaction) Validate() error {
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if !tx.Category.Valid() {
		return ErrInvalidCategory
	}
	if err := tx.Date.Validate(); err != nil {
		return err
	}
	if tx.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if len(tx.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidTarget
	}
	return nil
}

// DefaultBudgets returns the five seeded category budgets.
func DefaultBudgets() []Budget {
	return []Budget{
		{Category: Food, Limit: Money{Cents: 500000}},
		{Category: Transport, Limit: Money{Cents: 200000}},
		{Category: Study, Limit: Money{Cents: 100000}},
		{Category: Shopping, Limit: Money{Cents: 300000}},
		{Category: Others, Limit: Money{Cents: 100000}},
	}
}

// DefaultState returns the first-run state: empty lists, default budgets,
// light theme, no pin, unlocked.
func DefaultState() AppState {
	return AppState{
		User:    UserProfile{Name: "Guest User"},
		Budgets: DefaultBudgets(),
		Theme:   ThemeLight,
	}
}

// Normalize re-derives the transient lock projection: whenever a pin is
// configured the state opens locked, otherwise unlocked. A missing user
// profile or theme falls back to defaults. Applied at load and import time.
func (s AppState) Normalize() AppState {
	s.IsLocked = s.PIN != ""
	if strings.TrimSpace(s.User.Name) == "" {
		s.User = UserProfile{Name: "Guest User"}
	}
	if !s.Theme.Valid() {
		s.Theme = ThemeLight
	}
	return s
}

// PersistSafe returns the form written to storage: IsLocked is always
// false on disk so a saved snapshot can never reconstruct a pre-unlocked
// state (it is re-derived from the pin at load).
func (s AppState) PersistSafe() AppState {
	out := s.Clone()
	out.IsLocked = false
	return out
}

// Clone returns a deep copy so readers never alias the store's slices.
func (s AppState) Clone() AppState {
	out := s
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Budgets = append([]Budget(nil), s.Budgets...)
	out.Goals = append([]Goal(nil), s.Goals...)
	return out
}
