// Package ipc is the JSON-line control protocol spoken over the daemon's unix socket.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Commands understood by the daemon.
const (
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
	CommandStatus = "status"
	CommandReload = "reload"
)

// Request is one command line sent by a client.
type Request struct {
	Command string `json:"command"`
}

// Response is one reply line. Status fields are filled on every reply.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Pending int    `json:"pending,omitempty"`
	Device  string `json:"device,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// maxLineBytes bounds one request or response line.
const maxLineBytes = 64 * 1024

func writeLine(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// readLine decodes the first newline-terminated JSON value from r.
func readLine(r io.Reader, v any) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024), maxLineBytes)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal(scanner.Bytes(), v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
