//go:build !unix

package supervisor

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// signalGroup kills proc. There is no process group or graceful signal to
// use here.
func signalGroup(proc *os.Process, _ bool) error {
	if proc == nil {
		return os.ErrProcessDone
	}
	return proc.Kill()
}
