// Package ipc lets a companion CLI drive a running session over a unix
// socket.
package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
)

const SocketPath = "/tmp/wander.sock"

// ControlMessage is one command from the companion CLI. Arg carries
// the payload for commands that take one (key, persona, clip path).
type ControlMessage struct {
	Cmd string `json:"cmd"`
	Arg string `json:"arg,omitempty"`
}

// Reply is the synchronous answer to a ControlMessage.
type Reply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// StartServer listens on SocketPath and serves one command per
// connection. A stale socket from a previous run is removed first.
func StartServer(handler func(ControlMessage) Reply) error {
	os.Remove(SocketPath)

	ln, err := net.Listen("unix", SocketPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				continue
			}
			go handleConn(conn, handler)
		}
	}()

	return nil
}

func handleConn(conn net.Conn, handler func(ControlMessage) Reply) {
	defer conn.Close()

	var msg ControlMessage
	if err := json.NewDecoder(conn).Decode(&msg); err != nil {
		return
	}
	json.NewEncoder(conn).Encode(handler(msg))
}

// Send delivers one command to the running session and returns its
// reply.
func Send(msg ControlMessage) (Reply, error) {
	conn, err := net.Dial("unix", SocketPath)
	if err != nil {
		return Reply{}, err
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return Reply{}, err
	}
	var reply Reply
	if err := json.NewDecoder(conn).Decode(&reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}
