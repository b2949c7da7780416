package supervisor

import (
	"fmt"
	"net"
	"strconv"
)

// FreePort scans [base, base+span) on host and returns the first port that
// accepts a listener. The scan order is fixed so restarts land on the same
// port when it is still free.
func FreePort(host string, base, span int) (int, error) {
	if base <= 0 || base > 65535 {
		return 0, fmt.Errorf("free port: invalid base %d", base)
	}
	if span <= 0 {
		span = 1
	}
	for port := base; port < base+span && port <= 65535; port++ {
		listener, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err != nil {
			continue
		}
		_ = listener.Close()
		return port, nil
	}
	return 0, fmt.Errorf("free port: no free port in %d-%d", base, base+span-1)
}
