package repository

import (
	"fmt"

	"github.com/purplearchive/purple-archive-server/apperrors"
)

const (
	OrderByPlayedAt      = "playedAt"
	OrderByPvCount       = "pvCount"
	OrderByDownloadCount = "downloadCount"
	OrderByBookmarkCount = "bookmarkCount"
	OrderByPageCount     = "pageCount"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	DefaultOrderBy = OrderByPlayedAt
	DefaultOrder   = OrderDesc
)

// orderColumns maps the public order tokens onto columns of the listing query.
// bookmark_count and page_count are aliases of the joined aggregate subqueries.
var orderColumns = map[string]string{
	OrderByPlayedAt:      "albums.played_at",
	OrderByPvCount:       "albums.pv_count",
	OrderByDownloadCount: "albums.download_count",
	OrderByBookmarkCount: "bookmark_count",
	OrderByPageCount:     "page_count",
}

// orderClause resolves orderBy/order tokens into a SQL ORDER BY fragment.
// Unknown tokens are rejected before any query is built.
func orderClause(orderBy, order string) (string, error) {
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}
	if order == "" {
		order = DefaultOrder
	}

	column, ok := orderColumns[orderBy]
	if !ok {
		return "", fmt.Errorf("%w: unknown order field %q", apperrors.ErrInvalidArgument, orderBy)
	}

	var direction string
	switch order {
	case OrderAsc:
		direction = "ASC"
	case OrderDesc:
		direction = "DESC"
	default:
		return "", fmt.Errorf("%w: unknown order direction %q", apperrors.ErrInvalidArgument, order)
	}

	// played_at DESC is the stable tie-break for every ordering
	return fmt.Sprintf("%s %s, albums.played_at DESC", column, direction), nil
}
