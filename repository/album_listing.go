package repository

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

var sb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// ListOptions carries the filter, order and pagination inputs of the album
// listing. Zero values mean "no filter".
type ListOptions struct {
	PartialDescription string
	PartialPlayerName  string
	PartialTag         string
	PlayedFrom         *time.Time
	PlayedUntil        *time.Time
	GamemodeID         *uint
	BookmarkedBy       string // only albums bookmarked by this user
	ViewerUserID       string // whose bookmarks populate IsBookmarked

	OrderBy string
	Order   string
	Offset  int
	Limit   int
}

// AlbumSummary is one row of the listing: album columns plus the aggregate
// counts joined in by the query.
type AlbumSummary struct {
	ID            uint      `json:"id"`
	Source        string    `json:"source"`
	ThumbSource   string    `json:"thumbSource"`
	PvCount       int       `json:"pvCount"`
	DownloadCount int       `json:"downloadCount"`
	BookmarkCount int       `json:"bookmarkCount"`
	PageCount     int       `json:"pageCount"`
	IsBookmarked  bool      `json:"isBookmarked"`
	PlayedAt      time.Time `json:"playedAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// escapeLike escapes LIKE wildcards so filter input only ever matches
// literally. Queries using the result must carry ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

// predicates builds the shared WHERE conditions of the count and page queries.
// All predicates reference only the albums table or EXISTS subqueries, so the
// count query can run without the aggregate joins.
func (opts ListOptions) predicates() []sq.Sqlizer {
	preds := []sq.Sqlizer{sq.Expr("albums.deleted_at IS NULL")}

	if opts.PartialDescription != "" {
		preds = append(preds, sq.Expr(
			`EXISTS (SELECT 1 FROM pages WHERE pages.album_id = albums.id AND pages.description LIKE ? ESCAPE '\')`,
			likePattern(opts.PartialDescription)))
	}
	if opts.PartialPlayerName != "" {
		preds = append(preds, sq.Expr(
			`EXISTS (SELECT 1 FROM pages WHERE pages.album_id = albums.id AND pages.player_name LIKE ? ESCAPE '\')`,
			likePattern(opts.PartialPlayerName)))
	}
	if opts.PartialTag != "" {
		preds = append(preds, sq.Expr(
			`EXISTS (SELECT 1 FROM album_tags JOIN tags ON tags.id = album_tags.tag_id WHERE album_tags.album_id = albums.id AND tags.name LIKE ? ESCAPE '\')`,
			likePattern(opts.PartialTag)))
	}
	if opts.PlayedFrom != nil {
		preds = append(preds, sq.GtOrEq{"albums.played_at": *opts.PlayedFrom})
	}
	if opts.PlayedUntil != nil {
		preds = append(preds, sq.LtOrEq{"albums.played_at": *opts.PlayedUntil})
	}
	if opts.GamemodeID != nil {
		preds = append(preds, sq.Eq{"albums.gamemode_id": *opts.GamemodeID})
	}
	if opts.BookmarkedBy != "" {
		preds = append(preds, sq.Expr(
			"EXISTS (SELECT 1 FROM bookmarks WHERE bookmarks.album_id = albums.id AND bookmarks.user_id = ?)",
			opts.BookmarkedBy))
	}
	return preds
}

// List returns the total count of active albums matching every filter plus the
// requested page, each row pre-joined with page and bookmark counts. The count
// reflects the filtered set before offset/limit.
func (r *AlbumRepository) List(opts ListOptions) (int64, []AlbumSummary, error) {
	ordering, err := orderClause(opts.OrderBy, opts.Order)
	if err != nil {
		return 0, nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	preds := opts.predicates()

	countQB := sb.Select("COUNT(*)").From("albums")
	for _, p := range preds {
		countQB = countQB.Where(p)
	}
	countSQL, countArgs, err := countQB.ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build album count query: %w", err)
	}
	var total int64
	if err := r.db.Raw(countSQL, countArgs...).Scan(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count albums: %w", err)
	}

	qb := sb.Select(
		"albums.id",
		"albums.source",
		"albums.thumb_source",
		"albums.pv_count",
		"albums.download_count",
		"COALESCE(pc.page_count, 0) AS page_count",
		"COALESCE(bc.bookmark_count, 0) AS bookmark_count",
		"albums.played_at",
		"albums.created_at",
		"albums.updated_at",
	).From("albums").
		LeftJoin("(SELECT album_id, COUNT(*) AS page_count FROM pages GROUP BY album_id) pc ON pc.album_id = albums.id").
		LeftJoin("(SELECT album_id, COUNT(*) AS bookmark_count FROM bookmarks GROUP BY album_id) bc ON bc.album_id = albums.id")

	if opts.ViewerUserID != "" {
		qb = qb.Column(sq.Alias(sq.Expr(
			"EXISTS (SELECT 1 FROM bookmarks WHERE bookmarks.album_id = albums.id AND bookmarks.user_id = ?)",
			opts.ViewerUserID), "is_bookmarked"))
	} else {
		qb = qb.Column("0 AS is_bookmarked")
	}

	for _, p := range preds {
		qb = qb.Where(p)
	}
	qb = qb.OrderBy(ordering).
		Offset(uint64(opts.Offset)).
		Limit(uint64(opts.Limit))

	sqlStr, args, err := qb.ToSql()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build album listing query: %w", err)
	}

	var rows []AlbumSummary
	if err := r.db.Raw(sqlStr, args...).Scan(&rows).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to list albums: %w", err)
	}
	return total, rows, nil
}
