package handler

import (
	"errors"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/articles"
	"github.com/Adithya-Monish-Kumar-K/reuters-search/internal/history"
	apperrors "github.com/Adithya-Monish-Kumar-K/reuters-search/pkg/errors"
)

// ArticleView is the wire form of a stored article. Topics are comma
// separated.
type ArticleView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Topics string `json:"topics"`
}

func viewOf(a articles.Article) ArticleView {
	return ArticleView{ID: a.ID, Title: a.Title, Body: a.Body, Topics: a.JoinedTopics()}
}

func viewsOf(list []articles.Article) []ArticleView {
	out := make([]ArticleView, len(list))
	for i, a := range list {
		out[i] = viewOf(a)
	}
	return out
}

// ListArticles serves GET /articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := h.articles.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := viewsOf(list)
	h.record(r.Context(), history.TypeAllArticles, history.NoQuery, views)
	h.writeJSON(w, http.StatusOK, views)
}

// GetArticle serves GET /articles/{id}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a, err := h.articles.Get(r.Context(), id)
	h.single(w, r, history.TypeArticleByID, id, a, err)
}

// ArticleByTitle serves GET /articles/title/{title}: the first article whose
// title matches the pattern, ignoring case.
func (h *Handler) ArticleByTitle(w http.ResponseWriter, r *http.Request) {
	pattern := r.PathValue("title")
	a, err := h.articles.FindByTitle(r.Context(), pattern)
	h.single(w, r, history.TypeArticleByTitle, pattern, a, err)
}

// ArticlesByBody serves GET /articles/body/{body}: every article whose body
// matches the pattern, ignoring case.
func (h *Handler) ArticlesByBody(w http.ResponseWriter, r *http.Request) {
	pattern := r.PathValue("body")
	list, err := h.articles.FindByBody(r.Context(), pattern)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views := viewsOf(list)
	h.record(r.Context(), history.TypeArticlesByBody, pattern, views)
	h.writeJSON(w, http.StatusOK, map[string][]ArticleView{"articles": views})
}

func (h *Handler) single(w http.ResponseWriter, r *http.Request, searchType history.SearchType, query string, a articles.Article, err error) {
	switch {
	case errors.Is(err, apperrors.ErrArticleNotFound):
		miss := map[string]string{"error": articleNotFound}
		h.record(r.Context(), searchType, query, miss)
		h.writeJSON(w, http.StatusNotFound, miss)
	case err != nil:
		h.fail(w, r, err)
	default:
		view := viewOf(a)
		h.record(r.Context(), searchType, query, view)
		h.writeJSON(w, http.StatusOK, view)
	}
}
