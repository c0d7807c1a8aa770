package repositories

import (
	"database/sql"
	"fmt"
)

// rowsAffected returns an error naming entity when result touched no rows.
func rowsAffected(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", entity, id)
	}
	return nil
}
