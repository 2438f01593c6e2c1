package service

import (
	"errors"
	"testing"
	"time"

	"github.com/commentable-dev/commentable/internal/admintoken"
	"github.com/commentable-dev/commentable/internal/domain"
	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock structs
type MockStorage struct {
	StoreFunc      func(apiKey string, c domain.Comment) (int64, error)
	ReadAllFunc    func(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error)
	DeleteByIDFunc func(rowID int64) error
	CountAllFunc   func() (int64, error)
}

func (m *MockStorage) Store(apiKey string, c domain.Comment) (int64, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc(apiKey, c)
	}
	return 1, nil
}

func (m *MockStorage) ReadAll(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error) {
	if m.ReadAllFunc != nil {
		return m.ReadAllFunc(apiKey, itemID, order)
	}
	return []domain.StoredComment{}, nil
}

func (m *MockStorage) DeleteByID(rowID int64) error {
	if m.DeleteByIDFunc != nil {
		return m.DeleteByIDFunc(rowID)
	}
	return nil
}

func (m *MockStorage) CountAll() (int64, error) {
	if m.CountAllFunc != nil {
		return m.CountAllFunc()
	}
	return 0, nil
}

type MockNotifier struct {
	NotifyAdminFunc func(c domain.Comment, rowID int64, token string) error
}

func (m *MockNotifier) NotifyAdmin(c domain.Comment, rowID int64, token string) error {
	if m.NotifyAdminFunc != nil {
		return m.NotifyAdminFunc(c, rowID, token)
	}
	return nil
}

type MockCaptcha struct {
	VerifyFunc func(token, clientIP string) error
}

func (m *MockCaptcha) Verify(token, clientIP string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(token, clientIP)
	}
	return nil
}

type fakeRenderer struct{}

func (fakeRenderer) Render(raw string) string { return "<p>" + raw + "</p>" }

const testSecret = "test_secret"

func newService(storage *MockStorage, notifier *MockNotifier, captcha *MockCaptcha, validKeys []string) *Comments {
	return NewComments(storage, fakeRenderer{}, notifier, captcha, testSecret, validKeys)
}

func validRequest() CreateRequest {
	return CreateRequest{
		ItemID:   "example.com/p1",
		Username: "alice",
		Message:  "a test comment",
	}
}

type notification struct {
	comment domain.Comment
	rowID   int64
	token   string
}

func awaitNotification(t *testing.T, ch <-chan notification) notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no admin notification dispatched")
		return notification{}
	}
}

func TestCreate(t *testing.T) {
	t.Run("fills server-assigned fields", func(t *testing.T) {
		var storedComment domain.Comment
		storage := &MockStorage{StoreFunc: func(apiKey string, c domain.Comment) (int64, error) {
			assert.Equal(t, "example.com", apiKey)
			storedComment = c
			return 7, nil
		}}
		notified := make(chan notification, 1)
		notifier := &MockNotifier{NotifyAdminFunc: func(c domain.Comment, rowID int64, token string) error {
			notified <- notification{c, rowID, token}
			return nil
		}}
		svc := newService(storage, notifier, &MockCaptcha{}, nil)

		created, err := svc.Create("example.com", validRequest())
		require.NoError(t, err)

		assert.NotEmpty(t, storedComment.CommentID)
		assert.False(t, storedComment.CreatedAt.IsZero())
		assert.Contains(t, storedComment.CommentURL, "#jc"+storedComment.CommentID)

		assert.Equal(t, storedComment.CommentID, created.CommentID)
		assert.Equal(t, "a test comment", created.Message)
		assert.Equal(t, "<p>a test comment</p>", created.HTMLMessage)

		n := awaitNotification(t, notified)
		assert.Equal(t, int64(7), n.rowID)
		assert.Equal(t, admintoken.Derive(7, testSecret), n.token)
		assert.Equal(t, storedComment.CommentID, n.comment.CommentID)
	})

	t.Run("keeps caller-supplied comment id", func(t *testing.T) {
		storage := &MockStorage{}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		req := validRequest()
		req.CommentID = "caller-chosen"
		created, err := svc.Create("example.com", req)
		require.NoError(t, err)
		assert.Equal(t, "caller-chosen", created.CommentID)
	})

	t.Run("notification failure does not fail creation", func(t *testing.T) {
		notified := make(chan notification, 1)
		notifier := &MockNotifier{NotifyAdminFunc: func(c domain.Comment, rowID int64, token string) error {
			notified <- notification{c, rowID, token}
			return errors.New("smtp down")
		}}
		svc := newService(&MockStorage{}, notifier, &MockCaptcha{}, nil)

		_, err := svc.Create("example.com", validRequest())
		require.NoError(t, err)
		awaitNotification(t, notified)
	})

	t.Run("validation failure aborts before persistence", func(t *testing.T) {
		stored := false
		storage := &MockStorage{StoreFunc: func(apiKey string, c domain.Comment) (int64, error) {
			stored = true
			return 1, nil
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		req := validRequest()
		req.Message = ""
		_, err := svc.Create("example.com", req)
		require.Error(t, err)
		assert.Equal(t, 400, internal_errors.StatusCode(err))
		assert.False(t, stored)
	})

	t.Run("captcha failure aborts before persistence", func(t *testing.T) {
		stored := false
		storage := &MockStorage{StoreFunc: func(apiKey string, c domain.Comment) (int64, error) {
			stored = true
			return 1, nil
		}}
		captcha := &MockCaptcha{VerifyFunc: func(token, clientIP string) error {
			return internal_errors.Captcha("failed captcha verification")
		}}
		svc := newService(storage, &MockNotifier{}, captcha, nil)

		_, err := svc.Create("example.com", validRequest())
		require.Error(t, err)
		assert.Equal(t, 400, internal_errors.StatusCode(err))
		assert.False(t, stored)
	})

	t.Run("unknown api key rejected", func(t *testing.T) {
		svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, []string{"example.com"})

		_, err := svc.Create("other.org", validRequest())
		require.Error(t, err)
		assert.Equal(t, 401, internal_errors.StatusCode(err))
	})

	t.Run("storage failure surfaces", func(t *testing.T) {
		storage := &MockStorage{StoreFunc: func(apiKey string, c domain.Comment) (int64, error) {
			return 0, internal_errors.Storage("could not store comment")
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		_, err := svc.Create("example.com", validRequest())
		require.Error(t, err)
		assert.Equal(t, 500, internal_errors.StatusCode(err))
	})
}

func TestList(t *testing.T) {
	stored := func(commentID, parentID string, rowID int64) domain.StoredComment {
		return domain.StoredComment{
			Comment: domain.Comment{
				ItemID:    "example.com/p1",
				CommentID: commentID,
				ParentID:  parentID,
				Message:   "msg " + commentID,
			},
			RowID: rowID,
		}
	}

	t.Run("threads replies under their parent", func(t *testing.T) {
		storage := &MockStorage{ReadAllFunc: func(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error) {
			assert.Equal(t, "example.com", apiKey)
			assert.Equal(t, "example.com/p1", itemID)
			assert.Equal(t, domain.SortAsc, order)
			return []domain.StoredComment{
				stored("c1", "", 1),
				stored("c2", "c1", 2),
				stored("c3", "c1", 3),
			}, nil
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		tree, err := svc.List("example.com", "example.com/p1", domain.SortAsc)
		require.NoError(t, err)

		require.Len(t, tree, 1)
		assert.Equal(t, "c1", tree[0].CommentID)
		require.Len(t, tree[0].Nested, 2)
		assert.Equal(t, "c2", tree[0].Nested[0].CommentID)
		assert.Equal(t, "c3", tree[0].Nested[1].CommentID)
		assert.Equal(t, "<p>msg c2</p>", tree[0].Nested[0].HTMLMessage)
	})

	t.Run("orphan surfaces at top level", func(t *testing.T) {
		storage := &MockStorage{ReadAllFunc: func(apiKey, itemID string, order domain.SortOrder) ([]domain.StoredComment, error) {
			return []domain.StoredComment{stored("c2", "c1-deleted", 2)}, nil
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		tree, err := svc.List("example.com", "example.com/p1", domain.SortAsc)
		require.NoError(t, err)
		require.Len(t, tree, 1)
		assert.Equal(t, "c2", tree[0].CommentID)
	})

	t.Run("empty scope is an empty tree", func(t *testing.T) {
		svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, nil)

		tree, err := svc.List("example.com", "example.com/p1", domain.SortAsc)
		require.NoError(t, err)
		assert.Empty(t, tree)
	})

	t.Run("unknown api key rejected", func(t *testing.T) {
		svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, []string{"example.com"})

		_, err := svc.List("other.org", "example.com/p1", domain.SortAsc)
		require.Error(t, err)
		assert.Equal(t, 401, internal_errors.StatusCode(err))
	})
}

func TestRemove(t *testing.T) {
	t.Run("valid token deletes", func(t *testing.T) {
		deleted := []int64{}
		storage := &MockStorage{DeleteByIDFunc: func(rowID int64) error {
			deleted = append(deleted, rowID)
			return nil
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		require.NoError(t, svc.Remove(42, admintoken.Derive(42, testSecret)))
		assert.Equal(t, []int64{42}, deleted)
	})

	t.Run("repeat delete still succeeds", func(t *testing.T) {
		svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, nil)

		token := admintoken.Derive(42, testSecret)
		require.NoError(t, svc.Remove(42, token))
		require.NoError(t, svc.Remove(42, token))
	})

	t.Run("invalid token performs no deletion", func(t *testing.T) {
		deleted := false
		storage := &MockStorage{DeleteByIDFunc: func(rowID int64) error {
			deleted = true
			return nil
		}}
		svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

		err := svc.Remove(42, "forged")
		require.Error(t, err)
		assert.Equal(t, 401, internal_errors.StatusCode(err))
		assert.False(t, deleted)
	})

	t.Run("token for another row rejected", func(t *testing.T) {
		svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, nil)

		err := svc.Remove(42, admintoken.Derive(43, testSecret))
		require.Error(t, err)
	})
}

func TestPreview(t *testing.T) {
	svc := newService(&MockStorage{}, &MockNotifier{}, &MockCaptcha{}, nil)
	assert.Equal(t, "<p>hello</p>", svc.Preview("hello"))
}

func TestCount(t *testing.T) {
	storage := &MockStorage{CountAllFunc: func() (int64, error) {
		return 12, nil
	}}
	svc := newService(storage, &MockNotifier{}, &MockCaptcha{}, nil)

	count, err := svc.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(12), count)
}
