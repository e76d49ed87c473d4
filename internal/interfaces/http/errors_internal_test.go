package http

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/domain"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrConflict, fiber.StatusConflict},
		{domain.Invalid("x"), fiber.StatusBadRequest},
		{domain.ErrNotFound, fiber.StatusNotFound},
		{domain.ErrDuplicate, fiber.StatusConflict},
		{domain.ErrForbidden, fiber.StatusForbidden},
		{domain.ErrPersistence, fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return writeError(c, tc.err) })
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, tc.status, resp.StatusCode, tc.err.Error())
		if tc.err == domain.ErrConflict {
			assert.Equal(t, "1", resp.Header.Get("Retry-After"))
		}
	}
}
