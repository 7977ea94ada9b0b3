package bakery

import (
	"strings"

	"gorm.io/gorm"
)

type namedRow struct {
	ID   uint
	Name string
}

// matchName returns the id of the row in model's table whose name equals
// name under Unicode case folding. SQL lower() folds ASCII only on SQLite,
// so the comparison happens here.
func matchName(tx *gorm.DB, model any, name string) (uint, bool, error) {
	var rows []namedRow
	if err := tx.Model(model).Select("id", "name").Find(&rows).Error; err != nil {
		return 0, false, err
	}
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Name), name) {
			return row.ID, true, nil
		}
	}
	return 0, false, nil
}
