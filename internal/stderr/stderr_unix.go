//go:build !windows

package stderr

import (
	"bufio"
	"os"
	"syscall"
)

var (
	savedStderrFd int = -1
	pipeWriteFd   *os.File
	pipeReadFd    *os.File
)

// Start redirects file descriptor 2 into an internal pipe and fans
// scanned lines into Messages, so raw stderr writes from the C codec
// libraries (faad2, alac, opus) land on the channel instead of
// corrupting whatever is currently drawn on the terminal. Safe to call
// once per process; a second call is a no-op.
func Start() error {
	if savedStderrFd != -1 {
		return nil
	}

	saved, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		return err
	}

	r, w, err := os.Pipe()
	if err != nil {
		syscall.Close(saved)
		return err
	}

	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		r.Close()
		w.Close()
		syscall.Close(saved)
		return err
	}

	savedStderrFd = saved
	pipeWriteFd = w
	pipeReadFd = r

	go scanPipe(r)
	return nil
}

func scanPipe(r *os.File) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		select {
		case Messages <- sc.Text():
		default:
			// Slow consumer: drop rather than block the codec's writer.
		}
	}
}

// WriteOriginal writes directly to the file descriptor fd 2 pointed to
// before Start redirected it, bypassing the pipe entirely.
func WriteOriginal(msg string) {
	if savedStderrFd == -1 {
		os.Stderr.WriteString(msg)
		return
	}
	syscall.Write(savedStderrFd, []byte(msg))
}

// Stop restores the original stderr file descriptor and closes the
// pipe. Safe to call even if Start was never called.
func Stop() {
	if savedStderrFd == -1 {
		return
	}
	syscall.Dup2(savedStderrFd, int(os.Stderr.Fd()))
	syscall.Close(savedStderrFd)
	savedStderrFd = -1

	pipeWriteFd.Close()
	pipeReadFd.Close()
	pipeWriteFd, pipeReadFd = nil, nil
}
