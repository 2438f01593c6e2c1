package service

import (
	"fmt"
	"time"

	"github.com/commentable-dev/commentable/internal/admintoken"
	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"
	"github.com/commentable-dev/commentable/internal/threading"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Storage is the persistence port the service drives. Satisfied by both
// the relational and the append-log backend.
type Storage interface {
	Store(apiKey string, c domain.Comment) (int64, error)
	ReadAll(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error)
	DeleteByID(rowID int64) error
	CountAll() (int64, error)
}

type Renderer interface {
	Render(raw string) string
}

type Notifier interface {
	NotifyAdmin(c domain.Comment, rowID int64, token string) error
}

type CaptchaVerifier interface {
	Verify(token, clientIP string) error
}

type Comments struct {
	storage  Storage
	renderer Renderer
	notifier Notifier
	captcha  CaptchaVerifier
	validate *validator.Validate

	secret       string
	validAPIKeys map[string]struct{} // nil/empty accepts any key
}

func NewComments(storage Storage, renderer Renderer, notifier Notifier, captcha CaptchaVerifier, secret string, validAPIKeys []string) *Comments {
	keys := make(map[string]struct{}, len(validAPIKeys))
	for _, k := range validAPIKeys {
		keys[k] = struct{}{}
	}
	return &Comments{
		storage:      storage,
		renderer:     renderer,
		notifier:     notifier,
		captcha:      captcha,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		secret:       secret,
		validAPIKeys: keys,
	}
}

// CreateRequest carries submitter-supplied fields. Bounds mirror the
// original input schema: itemId and message are the only required fields.
type CreateRequest struct {
	ItemID        string `json:"itemId" validate:"required,max=2048"`
	CommentID     string `json:"commentId" validate:"omitempty,max=128"`
	ParentID      string `json:"parentId" validate:"omitempty,max=128"`
	Username      string `json:"username" validate:"omitempty,max=128"`
	UserEmail     string `json:"userEmail" validate:"omitempty,email"`
	Message       string `json:"message" validate:"required,min=1,max=5000"`
	PageURL       string `json:"pageUrl" validate:"omitempty,max=2048"`
	PageTitle     string `json:"pageTitle" validate:"omitempty,max=512"`
	CaptchaResult string `json:"captchaResult"`
	ClientIP      string `json:"-"`
}

func (s *Comments) checkAPIKey(apiKey string) error {
	if len(s.validAPIKeys) == 0 {
		return nil
	}
	if _, ok := s.validAPIKeys[apiKey]; !ok {
		logger.Log.Warn("invalid api key", "api_key", apiKey)
		return internal_errors.Unauthorized("invalid API key")
	}
	return nil
}

// Create validates, timestamps, persists and announces one comment.
// Captcha and validation run before any persistence side effect. The admin
// notification is fire-and-forget: its failure is logged, never surfaced,
// and a client disconnect cannot roll back the committed write.
func (s *Comments) Create(apiKey string, req CreateRequest) (*domain.PublicComment, error) {
	if err := s.checkAPIKey(apiKey); err != nil {
		return nil, err
	}
	if err := s.captcha.Verify(req.CaptchaResult, req.ClientIP); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, internal_errors.Validation("invalid comment: %s", err)
	}

	commentID := req.CommentID
	if commentID == "" {
		commentID = uuid.NewString()
	}

	c := domain.Comment{
		ItemID:     req.ItemID,
		CommentID:  commentID,
		ParentID:   req.ParentID,
		Username:   req.Username,
		UserEmail:  req.UserEmail,
		Message:    req.Message,
		PageURL:    req.PageURL,
		PageTitle:  req.PageTitle,
		CommentURL: commentURL(req.ItemID, commentID),
		CreatedAt:  time.Now().UTC(),
	}

	rowID, err := s.storage.Store(apiKey, c)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("created comment", "item_id", c.ItemID, "comment_id", c.CommentID, "username", c.Username)

	token := admintoken.Derive(rowID, s.secret)
	go func() {
		if err := s.notifier.NotifyAdmin(c, rowID, token); err != nil {
			logger.Log.Error("admin notification failed", "comment_id", c.CommentID, "error", err)
		}
	}()

	return s.toPublic(c), nil
}

// List returns the scope's comments as a reply tree in the requested order.
func (s *Comments) List(apiKey, itemID string, order domain.SortOrder) ([]*domain.PublicComment, error) {
	if err := s.checkAPIKey(apiKey); err != nil {
		return nil, err
	}

	stored, err := s.storage.ReadAll(apiKey, itemID, order)
	if err != nil {
		return nil, err
	}

	flat := make([]*domain.PublicComment, len(stored))
	for i, sc := range stored {
		flat[i] = s.toPublic(sc.Comment)
	}
	return threading.Thread(flat)
}

// Remove deletes the comment behind rowID if the candidate token matches.
// The response is identical whether or not the row still exists, so a
// caller probing with a bad token learns nothing.
func (s *Comments) Remove(rowID int64, candidateToken string) error {
	if !admintoken.Verify(rowID, s.secret, candidateToken) {
		logger.Log.Warn("invalid admin token", "row_id", rowID)
		return internal_errors.Unauthorized("invalid admin token")
	}
	if err := s.storage.DeleteByID(rowID); err != nil {
		return err
	}
	logger.Log.Info("deleted comment", "row_id", rowID)
	return nil
}

// Preview renders a message without persisting anything.
func (s *Comments) Preview(message string) string {
	return s.renderer.Render(message)
}

// Count backs the liveness probe.
func (s *Comments) Count() (int64, error) {
	return s.storage.CountAll()
}

func (s *Comments) toPublic(c domain.Comment) *domain.PublicComment {
	return &domain.PublicComment{
		ItemID:      c.ItemID,
		CommentID:   c.CommentID,
		ParentID:    c.ParentID,
		CommentURL:  c.CommentURL,
		Username:    c.Username,
		Message:     c.Message,
		HTMLMessage: s.renderer.Render(c.Message),
		CreatedAt:   c.CreatedAt,
		Hidden:      c.Hidden,
		Nested:      []*domain.PublicComment{},
	}
}

// commentURL builds the permalink the widget scrolls to.
func commentURL(itemID, commentID string) string {
	return fmt.Sprintf("https://%s#jc%s", itemID, commentID)
}
