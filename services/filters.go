package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"leaddesk/backend/models"
)

// ErrFilterNotFound is returned when a saved filter does not exist or belongs to another employee.
var ErrFilterNotFound = errors.New("saved filter not found")

// filterRow is a saved_filters row; the criteria column holds JSON.
type filterRow struct {
	models.SavedFilter
	CriteriaJSON string `db:"criteria"`
}

func (r filterRow) toModel() (models.SavedFilter, error) {
	f := r.SavedFilter
	if err := json.Unmarshal([]byte(r.CriteriaJSON), &f.Criteria); err != nil {
		return models.SavedFilter{}, fmt.Errorf("invalid criteria stored for filter %s: %w", r.ID, err)
	}
	return f, nil
}

const filterColumns = `id, name, employee_id, criteria, is_default, created_at, updated_at`

// FilterStore persists named filter presets per employee. At most one preset per
// employee is the default.
type FilterStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewFilterStore creates a store over db.
func NewFilterStore(db *sqlx.DB) *FilterStore {
	return &FilterStore{db: db, now: time.Now}
}

// Create saves a new filter.
func (s *FilterStore) Create(employeeID, name string, criteria models.FilterCriteria, isDefault bool) (*models.SavedFilter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("filter name is required")
	}
	raw, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter criteria: %w", err)
	}

	now := s.now().UTC()
	filter := &models.SavedFilter{
		ID:         uuid.NewString(),
		Name:       name,
		EmployeeID: employeeID,
		Criteria:   criteria,
		IsDefault:  isDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if isDefault {
		if err := clearDefault(tx, employeeID, ""); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO saved_filters (`+filterColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, filter.ID, filter.Name, filter.EmployeeID, string(raw), filter.IsDefault, filter.CreatedAt, filter.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert saved filter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}
	return filter, nil
}

// List returns the employee's filters ordered by name.
func (s *FilterStore) List(employeeID string) ([]models.SavedFilter, error) {
	var rows []filterRow
	err := s.db.Select(&rows, `
		SELECT `+filterColumns+`
		FROM saved_filters
		WHERE employee_id = ?
		ORDER BY name
	`, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved filters: %w", err)
	}

	filters := make([]models.SavedFilter, 0, len(rows))
	for _, r := range rows {
		f, err := r.toModel()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// Get returns one of the employee's filters.
func (s *FilterStore) Get(employeeID, id string) (*models.SavedFilter, error) {
	return s.getWhere("id = ? AND employee_id = ?", id, employeeID)
}

// Default returns the employee's default filter, or nil when none is set.
func (s *FilterStore) Default(employeeID string) (*models.SavedFilter, error) {
	f, err := s.getWhere("employee_id = ? AND is_default = 1", employeeID)
	if errors.Is(err, ErrFilterNotFound) {
		return nil, nil
	}
	return f, err
}

func (s *FilterStore) getWhere(where string, args ...any) (*models.SavedFilter, error) {
	var row filterRow
	err := s.db.Get(&row, `SELECT `+filterColumns+` FROM saved_filters WHERE `+where+` LIMIT 1`, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFilterNotFound
		}
		return nil, fmt.Errorf("failed to query saved filter: %w", err)
	}
	f, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update replaces the name, criteria and default flag of an existing filter.
func (s *FilterStore) Update(employeeID, id, name string, criteria models.FilterCriteria, isDefault bool) (*models.SavedFilter, error) {
	filter, err := s.Get(employeeID, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("filter name is required")
	}
	raw, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filter criteria: %w", err)
	}

	now := s.now().UTC()

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if isDefault {
		if err := clearDefault(tx, employeeID, id); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(`
		UPDATE saved_filters
		SET name = ?, criteria = ?, is_default = ?, updated_at = ?
		WHERE id = ?
	`, name, string(raw), isDefault, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update saved filter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transaction: %w", err)
	}

	filter.Name = name
	filter.Criteria = criteria
	filter.IsDefault = isDefault
	filter.UpdatedAt = now
	return filter, nil
}

// Delete removes one of the employee's filters.
func (s *FilterStore) Delete(employeeID, id string) error {
	result, err := s.db.Exec(`DELETE FROM saved_filters WHERE id = ? AND employee_id = ?`, id, employeeID)
	if err != nil {
		return fmt.Errorf("failed to delete saved filter: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrFilterNotFound
	}
	return nil
}

// clearDefault unsets the default flag on the employee's filters other than keepID.
func clearDefault(tx *sqlx.Tx, employeeID, keepID string) error {
	_, err := tx.Exec(`
		UPDATE saved_filters
		SET is_default = 0
		WHERE employee_id = ? AND id != ?
	`, employeeID, keepID)
	if err != nil {
		return fmt.Errorf("failed to update existing default filters: %w", err)
	}
	return nil
}
