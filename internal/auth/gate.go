package auth

import (
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_tracker/customErrors"
	"github.com/fatali-fataliyev/expense_tracker/logging"
)

const bearerScheme = "Bearer"

// ErrUnauthenticated is the only error the gate ever returns, whatever the
// underlying reason was.
var ErrUnauthenticated = appErrors.ErrorResponse{
	Code:    appErrors.ErrAuth,
	Message: "Authentication required: missing, invalid or expired token.",
}

// Gate resolves the acting principal from an Authorization header. It never
// touches storage.
type Gate struct {
	codec *TokenCodec
}

func NewGate(codec *TokenCodec) Gate {
	return Gate{codec: codec}
}

func (g Gate) Authenticate(authorizationHeader string) (Principal, error) {
	token, ok := BearerToken(authorizationHeader)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}

	principal, err := g.codec.Verify(token)
	if err != nil {
		logging.Logger.Debugf("token rejected: %v", err)
		return Principal{}, ErrUnauthenticated
	}
	return principal, nil
}

// BearerToken extracts the credential from "Bearer <token>". The scheme is
// matched case-insensitively.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
