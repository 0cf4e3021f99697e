package primus

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// daemonHandshake contacts the auxiliary daemon that brings up the
// secondary X display. It runs before any other initialization: the
// daemon tells us where the secondary display is and where the
// accelerator's driver libraries live, and those answers land in the
// environment (unless already set) so the rest of configuration reads
// them like any other setting.
//
// The returned connection is held open for the process lifetime;
// closing it signals the daemon to tear the secondary display down.
func daemonHandshake(socketPath string) (net.Conn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("primus: failed to connect to Bumblebee daemon: %w", err)
	}

	if os.Getenv("PRIMUS_DISPLAY") == "" {
		display, err := daemonQuery(conn, "VirtualDisplay")
		if err != nil {
			conn.Close()
			return nil, err
		}
		os.Setenv("PRIMUS_DISPLAY", display)
	}

	if os.Getenv("PRIMUS_libGLa") == "" {
		libpath, err := daemonQuery(conn, "LibraryPath")
		if err != nil {
			conn.Close()
			return nil, err
		}
		if libpath != "" {
			paths := strings.Split(libpath, ":")
			for i, p := range paths {
				paths[i] = p + "/libGL.so.1"
			}
			os.Setenv("PRIMUS_libGLa", strings.Join(paths, ":"))
		}
	}

	// The connect request is a single byte, no terminator.
	if _, err := conn.Write([]byte("C")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("primus: writing to Bumblebee daemon: %w", err)
	}
	reply, err := daemonRead(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	switch {
	case len(reply) > 0 && reply[0] == 'Y':
		return conn, nil
	case len(reply) > 5 && reply[0] == 'N':
		conn.Close()
		return nil, fmt.Errorf("primus: Bumblebee daemon reported: %s", strings.TrimRight(reply[5:], "\n\x00"))
	default:
		conn.Close()
		return nil, fmt.Errorf("primus: failure contacting Bumblebee daemon")
	}
}

// daemonQuery asks the daemon for one configuration value.
func daemonQuery(conn net.Conn, name string) (string, error) {
	reply, err := daemonRoundtrip(conn, "Q "+name)
	if err != nil {
		return "", err
	}
	const prefix = "Value: "
	if !strings.HasPrefix(reply, prefix) {
		return "", fmt.Errorf("primus: unexpected query response")
	}
	reply = reply[len(prefix):]
	if i := strings.IndexByte(reply, '\n'); i >= 0 {
		reply = reply[:i]
	}
	return strings.TrimRight(reply, "\x00"), nil
}

// daemonRoundtrip sends one NUL-terminated request and reads one reply.
func daemonRoundtrip(conn net.Conn, req string) (string, error) {
	if _, err := conn.Write(append([]byte(req), 0)); err != nil {
		return "", fmt.Errorf("primus: writing to Bumblebee daemon: %w", err)
	}
	return daemonRead(conn)
}

func daemonRead(conn net.Conn) (string, error) {
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("primus: reading from Bumblebee daemon: %w", err)
	}
	return string(buf[:n]), nil
}
