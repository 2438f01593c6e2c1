package pg

import (
	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"

	_ "github.com/lib/pq"
)

// Store inserts the comment and returns the auto-incremented row id.
func (s *Storage) Store(apiKey string, c domain.Comment) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
	INSERT INTO comments(
		api_key, item_id, comment_id, parent_id,
		username, user_email, message,
		page_url, page_title, comment_url,
		created_at, hidden)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING id`,
		apiKey, c.ItemID, c.CommentID, c.ParentID,
		c.Username, c.UserEmail, c.Message,
		c.PageURL, c.PageTitle, c.CommentURL,
		c.CreatedAt, c.Hidden).Scan(&id)
	if err != nil {
		logger.Log.Error("could not store comment", "item_id", c.ItemID, "comment_id", c.CommentID, "error", err)
		return 0, internal_errors.Storage("could not store comment")
	}
	return id, nil
}

// ReadAll returns every comment in the (apiKey, itemID) scope ordered by
// row id. An empty scope is an empty slice, never an error.
func (s *Storage) ReadAll(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error) {
	direction := "ASC"
	if order == domain.SortDesc {
		direction = "DESC"
	}
	rows, err := s.db.Query(`
	SELECT
		id, item_id, comment_id, parent_id,
		username, user_email, message,
		page_url, page_title, comment_url,
		created_at, hidden
	FROM comments
	WHERE api_key = $1 AND item_id = $2
	ORDER BY id `+direction,
		apiKey, itemID)
	if err != nil {
		logger.Log.Error("could not read comments", "item_id", itemID, "error", err)
		return nil, internal_errors.Storage("could not read comments")
	}
	defer rows.Close()

	comments := []domain.StoredComment{}
	for rows.Next() {
		var c domain.StoredComment
		if err := rows.Scan(
			&c.RowID, &c.ItemID, &c.CommentID, &c.ParentID,
			&c.Username, &c.UserEmail, &c.Message,
			&c.PageURL, &c.PageTitle, &c.CommentURL,
			&c.CreatedAt, &c.Hidden); err != nil {
			logger.Log.Error("could not scan comment row", "error", err)
			return nil, internal_errors.Storage("could not read comments")
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, internal_errors.Storage("could not read comments")
	}
	return comments, nil
}

// DeleteByID removes the row permanently. Deleting an absent row id is
// indistinguishable from deleting it twice: both report success.
func (s *Storage) DeleteByID(rowID int64) error {
	if _, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, rowID); err != nil {
		logger.Log.Error("could not delete comment", "row_id", rowID, "error", err)
		return internal_errors.Storage("could not delete comment")
	}
	return nil
}

// CountAll reports the total comment count across all scopes.
func (s *Storage) CountAll() (int64, error) {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(id) FROM comments`).Scan(&count); err != nil {
		logger.Log.Error("could not count comments", "error", err)
		return 0, internal_errors.Storage("could not count comments")
	}
	return count, nil
}
