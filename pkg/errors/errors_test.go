package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("loading: %w", ErrArticleNotFound), http.StatusNotFound},
		{"invalid", ErrInvalidInput, http.StatusBadRequest},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests},
		{"not fitted", fmt.Errorf("query: %w", ErrNotFitted), http.StatusServiceUnavailable},
		{"timeout", ErrTimeout, http.StatusServiceUnavailable},
		{"app error", New(ErrInvalidInput, http.StatusUnprocessableEntity, "bad limit"), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrEmptyCorpus, http.StatusInternalServerError, "%d documents", 0)
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Error("AppError should unwrap to its sentinel")
	}
	if err.Error() != "empty corpus: 0 documents" {
		t.Errorf("Error() = %q", err.Error())
	}
}
