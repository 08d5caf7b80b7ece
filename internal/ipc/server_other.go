//go:build !linux && !darwin && !windows

package ipc

import "net"

// VerifyPeerIsCurrentUser cannot check credentials here; the socket file
// mode is the only guard.
func VerifyPeerIsCurrentUser(conn net.Conn) (bool, error) {
	return true, nil
}
