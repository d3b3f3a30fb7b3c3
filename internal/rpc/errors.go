package rpc

import (
	"fmt"
	"net/http"
)

// TransportError means the node could not be reached at all.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Could not connect to Bitcoin Core at %s.\n"+
		"Possible causes:\n"+
		"  - bitcoind is not running, or the URL or port is wrong\n"+
		"  - rpcbind/rpcallowip in bitcoin.conf do not allow this host\n"+
		"  - the request was blocked by CORS or a proxy in front of the node\n"+
		"Details: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError is an HTTP 401 or 403 from the node.
type AuthError struct {
	StatusCode int
}

func (e *AuthError) Error() string {
	if e.StatusCode == http.StatusForbidden {
		return "Access denied (HTTP 403): the RPC user is not allowed to call this method. Check rpcwhitelist in bitcoin.conf."
	}
	return "Authentication failed (HTTP 401): check rpcuser/rpcpassword or the rpcauth entry in bitcoin.conf."
}

// RemoteError is a rejection by the node itself.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("error code: %d\nerror message:\n%s", e.Code, e.Message)
}
