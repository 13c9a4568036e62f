package cfbak

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Run("matches through wrapping", func(t *testing.T) {
		nf := fmt.Errorf("listing: %w", &NotFoundError{Resource: "zone", Key: "abc"})
		if !IsNotFound(nf) {
			t.Error("IsNotFound() = false for wrapped NotFoundError")
		}
		if IsValidation(nf) {
			t.Error("IsValidation() = true for NotFoundError")
		}

		ve := fmt.Errorf("checking input: %w", NewValidationError("zone %s is bad", "abc"))
		if !IsValidation(ve) {
			t.Error("IsValidation() = false for wrapped ValidationError")
		}
	})

	t.Run("remote errors unwrap to their cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		re := &RemoteError{Service: "cloudflare", Op: "list zones", Err: cause}
		if !errors.Is(re, cause) {
			t.Error("errors.Is() = false for wrapped cause")
		}
	})

	t.Run("boundary categories", func(t *testing.T) {
		cases := []struct {
			err  error
			want string
		}{
			{NewValidationError("missing id"), "invalid-params"},
			{&NotFoundError{Resource: "snapshot", Key: "x"}, "not-found"},
			{fmt.Errorf("resolving: %w", &NotFoundError{Resource: "zone"}), "not-found"},
			{&RemoteError{Service: "github", Op: "put", Err: errors.New("500")}, "internal-error"},
			{errors.New("anything else"), "internal-error"},
		}
		for _, c := range cases {
			if got := errorCategory(c.err); got != c.want {
				t.Errorf("errorCategory(%v) = %s, want %s", c.err, got, c.want)
			}
		}
	})
}
