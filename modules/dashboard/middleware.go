package dashboard

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/sublimeanger/vintifi/pkg/account"
)

type ctxKey int

const accountCtxKey ctxKey = iota

// withAccount resolves the authenticated account from the X-Account-ID
// header set by the session gateway in front of this service.
func (m *Module) withAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.Header.Get("X-Account-ID"))
		if err != nil {
			m.writeJSON(w, http.StatusUnauthorized, envelope{
				Error: &apiError{Code: "unauthenticated", Message: "missing or malformed account id"},
			})
			return
		}

		acct, err := m.accounts.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				m.writeJSON(w, http.StatusUnauthorized, envelope{
					Error: &apiError{Code: "unauthenticated", Message: "unknown account"},
				})
				return
			}
			m.writeError(r.Context(), w, err)
			return
		}

		ctx := context.WithValue(r.Context(), accountCtxKey, acct)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accountFrom returns the account resolved by withAccount. Panics when the
// middleware did not run; that is a routing bug, not a runtime condition.
func accountFrom(ctx context.Context) *account.Account {
	acct, ok := ctx.Value(accountCtxKey).(*account.Account)
	if !ok {
		panic("dashboard: handler used outside withAccount middleware")
	}
	return acct
}
