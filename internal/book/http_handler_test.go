package book

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libraryapi/internal/dates"
	"libraryapi/internal/listing"
	"libraryapi/internal/testutil"
)

func newHandler(t *testing.T) (*HTTPHandler, *MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockRepo := NewMockRepository(ctrl)
	return NewHTTPHandler(NewService(mockRepo)), mockRepo
}

func testBook() Book {
	authorID := int64(3)
	authorName := "Austen, Jane"
	return Book{
		ID:              5,
		Title:           "Emma",
		AuthorID:        &authorID,
		AuthorName:      &authorName,
		PublicationDate: dates.New(1815, time.December, 23),
		CreatedAt:       time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:       time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestHTTPHandler_Create(t *testing.T) {
	t.Run("responds with the read shape", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, b *Book) error {
				require.NotNil(t, b.AuthorID)
				assert.Equal(t, int64(3), *b.AuthorID)
				*b = testBook()
				return nil
			})

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/books", map[string]any{
			"title":            "Emma",
			"author":           3,
			"publication_date": "1815-12-23",
		}))

		require.Equal(t, http.StatusCreated, w.Code)
		body := testutil.DecodeBody(w)
		assert.Equal(t, float64(5), body["id"])
		assert.Equal(t, "Emma", body["title"])
		assert.Equal(t, "1815-12-23", body["publication_date"])
		assert.Equal(t, float64(1815), body["year"])
		assert.Equal(t, "Austen, Jane", body["author_name"])
		assert.Contains(t, body["author_url"], "/authors/3")
		assert.NotEmpty(t, body["created_at"])

		// The bare author id is a write-only field.
		_, ok := body["author"]
		assert.False(t, ok)
	})

	t.Run("missing author is a validation failure", func(t *testing.T) {
		handler, _ := newHandler(t)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/books", map[string]any{
			"title":            "Emma",
			"publication_date": "1815-12-23",
		}))

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := testutil.DecodeBody(w)
		assert.Equal(t, "Invalid request.", body["detail"])

		errs := body["errors"].([]interface{})
		require.NotEmpty(t, errs)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "author", first["field"])
	})

	t.Run("unknown author id is a validation failure", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ErrAuthorNotFound)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/books", map[string]any{
			"title":            "Emma",
			"author":           99,
			"publication_date": "1815-12-23",
		}))

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := testutil.DecodeBody(w)
		errs := body["errors"].([]interface{})
		require.Len(t, errs, 1)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "author", first["field"])
		assert.Equal(t, "author must reference an existing author", first["message"])
	})

	t.Run("unparseable date", func(t *testing.T) {
		handler, _ := newHandler(t)

		w := httptest.NewRecorder()
		handler.Create(w, testutil.NewRequest(http.MethodPost, "/books", map[string]any{
			"title":            "Emma",
			"author":           3,
			"publication_date": "23/12/1815",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHTTPHandler_List(t *testing.T) {
	t.Run("passes parsed criteria to the repository", func(t *testing.T) {
		handler, mockRepo := newHandler(t)

		var got listing.Criteria
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 6, 0).
			DoAndReturn(func(ctx context.Context, crit listing.Criteria, limit, offset int) ([]Book, int, error) {
				got = crit
				return []Book{testBook()}, 1, nil
			})

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books?search=Austen&ordering=-publication_date", nil)
		handler.List(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		want := listing.Parse(url.Values{
			"search":   {"Austen"},
			"ordering": {"-publication_date"},
		}, ListSpec)
		assert.Equal(t, want, got)
		assert.Equal(t, "ORDER BY b.publication_date DESC, b.title", got.OrderBy())
	})

	t.Run("page_size is clamped to the maximum", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 100, 0).Return(nil, 0, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page_size=9999", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("page beyond the last yields 404", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 6, 6).Return(nil, 1, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books?page=2", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Invalid page."}`, w.Body.String())
	})

	t.Run("next link is carried when more pages remain", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().List(gomock.Any(), gomock.Any(), 6, 0).Return([]Book{testBook()}, 13, nil)

		w := httptest.NewRecorder()
		handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

		require.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeBody(w)
		assert.Equal(t, float64(13), body["total_records"])
		assert.Equal(t, float64(3), body["total_pages"])
		assert.Contains(t, body["next"], "page=2")
		assert.Nil(t, body["previous"])
	})
}

func TestHTTPHandler_Retrieve(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Get(gomock.Any(), int64(5)).Return(testBook(), nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/5", nil)
		r.SetPathValue("id", "5")
		handler.Retrieve(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeBody(w)
		assert.Contains(t, body["url"], "/books/5")
		assert.Equal(t, float64(1815), body["year"])
	})

	t.Run("not found", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Get(gomock.Any(), int64(99)).Return(Book{}, ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/books/99", nil)
		r.SetPathValue("id", "99")
		handler.Retrieve(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Not found."}`, w.Body.String())
	})
}

func TestHTTPHandler_Update(t *testing.T) {
	handler, mockRepo := newHandler(t)
	mockRepo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, b *Book) error {
			updated := testBook()
			updated.Title = b.Title
			updated.UpdatedAt = updated.UpdatedAt.Add(time.Hour)
			*b = updated
			return nil
		})

	w := httptest.NewRecorder()
	r := testutil.NewRequest(http.MethodPut, "/books/5", map[string]any{
		"title":            "Emma, or The History of Miss Emma Woodhouse",
		"author":           3,
		"publication_date": "1815-12-23",
	})
	r.SetPathValue("id", "5")
	handler.Update(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	body := testutil.DecodeBody(w)
	assert.Equal(t, "Emma, or The History of Miss Emma Woodhouse", body["title"])
	// created_at survives the rewrite; only updated_at moves.
	assert.Equal(t, "2026-03-01T10:00:00Z", body["created_at"])
	assert.Equal(t, "2026-03-01T11:00:00Z", body["updated_at"])
}

func TestHTTPHandler_PartialUpdate(t *testing.T) {
	t.Run("absent fields stay unchanged", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		title := "Persuasion"
		updated := testBook()
		updated.Title = title
		mockRepo.EXPECT().Patch(gomock.Any(), int64(5), Patch{Title: &title}).Return(updated, nil)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodPatch, "/books/5", map[string]any{"title": "Persuasion"})
		r.SetPathValue("id", "5")
		handler.PartialUpdate(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := testutil.DecodeBody(w)
		assert.Equal(t, "Persuasion", body["title"])
		assert.Equal(t, "Austen, Jane", body["author_name"])
	})

	t.Run("explicit null author is rejected", func(t *testing.T) {
		handler, _ := newHandler(t)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodPatch, "/books/5", map[string]any{"author": nil})
		r.SetPathValue("id", "5")
		handler.PartialUpdate(w, r)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := testutil.DecodeBody(w)
		errs := body["errors"].([]interface{})
		require.Len(t, errs, 1)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "author", first["field"])
	})

	t.Run("explicit null title is rejected", func(t *testing.T) {
		handler, _ := newHandler(t)

		w := httptest.NewRecorder()
		r := testutil.NewRequest(http.MethodPatch, "/books/5", map[string]any{
			"title":  nil,
			"author": 3,
		})
		r.SetPathValue("id", "5")
		handler.PartialUpdate(w, r)

		require.Equal(t, http.StatusBadRequest, w.Code)
		body := testutil.DecodeBody(w)
		errs := body["errors"].([]interface{})
		require.Len(t, errs, 1)
		first := errs[0].(map[string]interface{})
		assert.Equal(t, "title", first["field"])
	})
}

func TestHTTPHandler_Destroy(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/5", nil)
		r.SetPathValue("id", "5")
		handler.Destroy(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("not found", func(t *testing.T) {
		handler, mockRepo := newHandler(t)
		mockRepo.EXPECT().Delete(gomock.Any(), int64(99)).Return(ErrNotFound)

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodDelete, "/books/99", nil)
		r.SetPathValue("id", "99")
		handler.Destroy(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail": "Not found."}`, w.Body.String())
	})
}
