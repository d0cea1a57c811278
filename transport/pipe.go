package transport

import "net"

// ListenPipe starts a Unix domain socket listener at name, exactly as
// ListenSocket does, on every platform. It does not create Windows named pipes.
func ListenPipe(name string) (Transport, error) {
	return ListenSocket(name)
}

// DialPipe connects to an existing Unix domain socket.
func DialPipe(name string) (Transport, error) {
	conn, err := net.Dial("unix", name)
	if err != nil {
		return nil, err
	}
	return &socketTransport{conn: conn, path: ""}, nil
}
