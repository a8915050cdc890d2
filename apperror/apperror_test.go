package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewNotFound("gone"), http.StatusNotFound},
		{NewBadRequest("nope"), http.StatusBadRequest},
		{NewUnauthorized("who"), http.StatusUnauthorized},
		{NewInternal("boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := Status(tt.err); got != tt.want {
			t.Errorf("Status(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("while deleting: %w", NewBadRequest("not yours"))
	if KindOf(err) != BadRequest {
		t.Errorf("KindOf = %v, want BadRequest", KindOf(err))
	}
}
