//go:build windows

package ipc

import (
	"net"
	"os"
)

// SetSocketPermissions is a no-op on Windows; AF_UNIX sockets inherit the
// directory ACL.
func SetSocketPermissions(path string, mode os.FileMode) error {
	return nil
}

// CleanupSocket removes a stale socket file left by a crashed instance.
func CleanupSocket(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsSocketListening checks if a socket is already listening.
func IsSocketListening(path string) bool {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// VerifyPeerIsCurrentUser relies on the socket directory being private to
// the user, which the default path under %LOCALAPPDATA% guarantees.
func VerifyPeerIsCurrentUser(conn net.Conn) (bool, error) {
	return true, nil
}
