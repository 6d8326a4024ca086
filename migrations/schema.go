package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// ColumnNames returns the column names of a table in declaration order
func ColumnNames(db *sqlx.DB, table string) ([]string, error) {
	var columns []string
	err := db.Select(&columns, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// ColumnExists checks if a column exists in a table
func ColumnExists(db *sqlx.DB, table, column string) (bool, error) {
	columns, err := ColumnNames(db, table)
	if err != nil {
		return false, err
	}
	for _, c := range columns {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

// AddColumn adds a column to a table if it doesn't exist
func AddColumn(db *sqlx.DB, table, column, columnType string) error {
	exists, err := ColumnExists(db, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnType))
	return err
}
