package server

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

const stopTimeout = 10 * time.Second

// Child is a server running in a separate process.
type Child struct {
	Addr string
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Spawn starts cmd, normally this binary in foreground mode, and waits until
// addr accepts connections. If the process exits first Spawn returns
// ErrChildExited; on timeout the process is killed.
func Spawn(ctx context.Context, cmd *exec.Cmd, addr string, timeout time.Duration) (*Child, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	c := &Child{Addr: dialAddr(addr), cmd: cmd, done: make(chan struct{})}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := WaitReady(ctx, c.Addr, c.done); err != nil {
		_ = cmd.Process.Kill()
		<-c.done
		return nil, err
	}
	return c, nil
}

// Pid returns the process id of the child.
func (c *Child) Pid() int { return c.cmd.Process.Pid }

// Done is closed once the child process has exited.
func (c *Child) Done() <-chan struct{} { return c.done }

// Stop interrupts the child and waits for it to exit, killing it if it does
// not stop in time. If the child had already exited, its exit error is
// returned.
func (c *Child) Stop() error {
	select {
	case <-c.done:
		return c.err
	default:
	}
	if err := c.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	select {
	case <-c.done:
	case <-time.After(stopTimeout):
		_ = c.cmd.Process.Kill()
		<-c.done
	}
	return nil
}
