package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name   string
		role   interface{}
		status int
	}{
		{"teacher", "teacher", fiber.StatusOK},
		{"mixed case admin", " Admin ", fiber.StatusOK},
		{"student", "student", fiber.StatusForbidden},
		{"missing", nil, fiber.StatusForbidden},
		{"unexpected type", 42, fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(func(c *fiber.Ctx) error {
				if tc.role != nil {
					c.Locals(LocalUserRole, tc.role)
				}
				return c.Next()
			})
			app.Get("/reports", RequireRole("teacher", "admin"), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/reports", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
