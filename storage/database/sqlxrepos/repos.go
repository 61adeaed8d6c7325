package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

// trapNoRowsErr maps psql "no rows" err to `notFound`.
func trapNoRowsErr(err, notFound error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return core.NewStorageError(op, err)
}

// ownedQuery restricts `base` to the records of `facultyID` (all records when empty) and sorts them newest first.
func ownedQuery(base, facultyID string) (string, []interface{}) {
	var args []interface{}
	if facultyID != "" {
		base += ` WHERE faculty_id = $1`
		args = append(args, facultyID)
	}
	return base + ` ORDER BY ` + orderBy(newestFirst), args
}

func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return strings.Join(orderList, ", ")
}
