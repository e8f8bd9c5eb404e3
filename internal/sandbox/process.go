package sandbox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
)

const stopGrace = 5 * time.Second

// process supervises one launched child. Its stdout and stderr stream into
// the session's log ring until the child exits.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.RWMutex
	waitErr error
}

// launch starts command in dir. The child gets its own process group so a
// stop signal reaches the whole tree, not just the immediate child.
func launch(command, dir string, ring *logRing) (*process, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split command: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrNoCommand
	}
	cmd := exec.Command(words[0], words[1:]...)
	cmd.Dir = dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdout.Close()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("start %s: %w", words[0], err)
	}

	p := &process{cmd: cmd, done: make(chan struct{})}
	var streamWG sync.WaitGroup
	forward := func(pipe io.ReadCloser) {
		streamWG.Add(1)
		go func() {
			defer streamWG.Done()
			defer pipe.Close()
			scanner := bufio.NewScanner(pipe)
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
			for scanner.Scan() {
				ring.Append(scanner.Text())
			}
		}()
	}
	forward(stdout)
	forward(stderr)

	go func() {
		// Wait closes the pipes, so the streams must drain first.
		streamWG.Wait()
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()
	return p, nil
}

func (p *process) pid() int {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// stop interrupts the process group, waits out the grace period, then kills.
func (p *process) stop() error {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	if err := p.signalGroup(syscall.SIGINT); err != nil && !errors.Is(err, syscall.ESRCH) {
		common.Logger().Warn("sandbox: interrupt failed", "pid", p.pid(), "error", err)
	}
	timer := time.NewTimer(stopGrace)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.normalizeWaitErr()
	case <-timer.C:
		common.Logger().Warn("sandbox: forcing kill", "pid", p.pid())
		if err := p.signalGroup(syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
			return err
		}
		<-p.done
		return p.normalizeWaitErr()
	}
}

func (p *process) signalGroup(sig syscall.Signal) error {
	pgid, err := syscall.Getpgid(p.cmd.Process.Pid)
	if err != nil {
		return p.cmd.Process.Signal(sig)
	}
	return syscall.Kill(-pgid, sig)
}

func (p *process) waitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.waitErr
}

func (p *process) normalizeWaitErr() error {
	err := p.waitError()
	if err == nil {
		return nil
	}
	// An ExitError after our own stop signal is the child shutting down.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
