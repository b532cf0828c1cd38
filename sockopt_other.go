//go:build !unix

package lobby

import "syscall"

func setBroadcast(network, address string, c syscall.RawConn) error {
	return nil
}
