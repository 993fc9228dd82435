package iosdriver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"time"

	"golang.org/x/crypto/ssh"
)

// defaultCommandTimeout bounds an ordinary exec/config-mode command.
// keyGenTimeout is the allowance for "crypto key generate"-class commands,
// which can take noticeably longer on a freshly booted device.
const (
	dialRetryMax          = 10
	prematureEOFDelay     = 10 * time.Second
	defaultCommandTimeout = 10 * time.Second
	keyGenTimeout         = 120 * time.Second
)

// cliPrompt matches an IOS enable-mode or config-mode prompt line, e.g.
// "switch1#" or "switch1(config)#". It deliberately doesn't pin the
// hostname: a freshly booted device's prompt is whatever factory name it
// shipped with, and a "hostname" command changes it mid-session.
var cliPrompt = regexp.MustCompile(`^\S+(\([a-zA-Z0-9-]+\))?#\s*$`)

// shell is one interactive CLI session over SSH, modeling the original's
// telnetlib expect/write loop: commands are written to stdin and their
// output read until the device's prompt reappears.
type shell struct {
	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	lines   chan string
	errs    chan error
}

// dialWithRetry opens an SSH connection to addr, retrying up to
// dialRetryMax times: a connection-level timeout is retried immediately
// (the device's listener isn't up yet), while a connection that closes
// before authentication completes (io.EOF during the handshake — the SSH
// analogue of a switch still booting its management plane) sleeps
// prematureEOFDelay before the next attempt.
func dialWithRetry(addr, user, pass string) (*ssh.Client, error) {
	cfg := &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.Password(pass)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         defaultCommandTimeout,
	}

	var lastErr error
	for attempt := 1; attempt <= dialRetryMax; attempt++ {
		client, err := ssh.Dial("tcp", addr, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) {
			time.Sleep(prematureEOFDelay)
			continue
		}
		return nil, fmt.Errorf("ssh dial %s: %w", addr, err)
	}
	return nil, fmt.Errorf("ssh dial %s: exhausted %d attempts: %w", addr, dialRetryMax, lastErr)
}

// openShell starts an interactive PTY shell on client, ready for
// expect-style command/response exchanges.
func openShell(client *ssh.Client) (*shell, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session: %w", err)
	}

	if err := session.RequestPty("vt100", 0, 200, ssh.TerminalModes{}); err != nil {
		session.Close()
		return nil, fmt.Errorf("request pty: %w", err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		return nil, fmt.Errorf("start shell: %w", err)
	}

	s := &shell{
		client:  client,
		session: session,
		stdin:   stdin,
		lines:   make(chan string, 64),
		errs:    make(chan error, 1),
	}

	go s.pump(stdout)
	return s, nil
}

func (s *shell) pump(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		s.errs <- err
	} else {
		s.errs <- io.EOF
	}
}

// run writes cmd followed by a newline, then reads output lines until
// prompt matches one of them or timeout elapses.
func (s *shell) run(cmd string, prompt *regexp.Regexp, timeout time.Duration) (string, error) {
	if cmd != "" {
		if _, err := fmt.Fprintf(s.stdin, "%s\n", cmd); err != nil {
			return "", fmt.Errorf("write command: %w", err)
		}
	}

	var output []byte
	deadline := time.After(timeout)
	for {
		select {
		case line := <-s.lines:
			output = append(output, []byte(line+"\n")...)
			if prompt.MatchString(line) {
				return string(output), nil
			}
		case err := <-s.errs:
			return string(output), fmt.Errorf("shell closed: %w", err)
		case <-deadline:
			return string(output), errCommandTimeout
		}
	}
}

var errCommandTimeout = errors.New("command timed out waiting for prompt")

func (s *shell) close() {
	s.session.Close()
}
