package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const defaultLoginRate = "10-M"

// newLoginLimiter throttles credential submissions per client IP. Only POST
// requests count; rendering the form is never limited.
func newLoginLimiter(formatted string) (func(http.Handler) http.Handler, error) {
	if strings.TrimSpace(formatted) == "" {
		formatted = defaultLoginRate
	}
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("server: invalid login rate %q: %w", formatted, err)
	}
	instance := limiter.New(memory.NewStore(), rate)
	middleware := stdlib.NewMiddleware(instance)

	return func(next http.Handler) http.Handler {
		limited := middleware.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			limited.ServeHTTP(w, r)
		})
	}, nil
}
