//go:build !linux

package ingress

import (
	"fmt"
	"syscall"
)

// reusePortControl is a no-op outside Linux; SO_REUSEPORT has no portable
// equivalent and this repo only ships to Linux containers.
func reusePortControl(_, _ string, _ syscall.RawConn) error {
	return nil
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
