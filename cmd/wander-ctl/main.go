// wander-ctl sends one control command to a running wander session.
// Bind it to a hotkey to toggle the microphone without touching the
// terminal.
package main

import (
	"fmt"
	"os"

	"wander/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wander-ctl <mic|reset|retry|status|clip> [arg]")
		os.Exit(2)
	}

	msg := ipc.ControlMessage{Cmd: os.Args[1]}
	if len(os.Args) > 2 {
		msg.Arg = os.Args[2]
	}

	reply, err := ipc.Send(msg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wander not running:", err)
		os.Exit(1)
	}
	if !reply.OK {
		fmt.Fprintln(os.Stderr, reply.Message)
		os.Exit(1)
	}
	if reply.Message != "" {
		fmt.Println(reply.Message)
	}
}
