package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcpmqtt/server-go/internal/jsonrpc"
)

// ErrUnauthorized indicates authentication failed or no valid credentials were supplied.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInsufficientScope indicates the caller authenticated but lacks required scope.
var ErrInsufficientScope = errors.New("insufficient scope")

// UserInfo represents an authenticated principal.
// Implementations should be lightweight and safe for concurrent use.
type UserInfo interface {
	// UserID returns the unique identifier for the user.
	UserID() string
	// Claims unmarshalls the user's claims into the provided struct reference.
	Claims(ref any) error
}

// Authenticator validates bearer tokens and returns associated user info.
// It should return ErrUnauthorized for invalid credentials.
type Authenticator interface {
	CheckAuthentication(ctx context.Context, tok string) (UserInfo, error)
}

// RejectionCode is the JSON-RPC 2.0 error code the Engine reports on
// the client's RPC topic when CheckAuthentication fails for an
// initialize received on the control channel. A rejected handshake never creates a session, so it is
// reported the same way a structurally invalid initialize request
// would be, rather than inventing a new application-specific code.
const RejectionCode = jsonrpc.ErrorCodeInvalidRequest

// RejectionMessage formats the JSON-RPC error message surfaced to a
// client whose initialize was rejected by an Authenticator.
func RejectionMessage(err error) string {
	return fmt.Sprintf("authentication failed: %v", err)
}
