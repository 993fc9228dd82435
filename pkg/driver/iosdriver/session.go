// Package iosdriver drives Cisco IOS-class switches over an interactive
// SSH shell, generalizing the original's raw-telnet expect/write loop onto
// golang.org/x/crypto/ssh — telnet has no legitimate place in an otherwise
// SSH-everywhere stack.
package iosdriver

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	reMACAddress = regexp.MustCompile(`EtherSVI, address is ([0-9a-f.]+)`)
	rePID        = regexp.MustCompile(`PID: (\S+)`)
	reVersion    = regexp.MustCompile(`Cisco IOS.+Version ([^\s,]+),`)
)

// Session is one live SSH-shell connection to an IOS switch.
type Session struct {
	Name     string
	Address  string
	Username string
	Password string

	sh *shell
}

// Dial opens the SSH connection and the interactive shell.
func Dial(name, address, username, password string) (*Session, error) {
	client, err := dialWithRetry(address+":22", username, password)
	if err != nil {
		return nil, err
	}
	sh, err := openShell(client)
	if err != nil {
		client.Close()
		return nil, err
	}

	s := &Session{Name: name, Address: address, Username: username, Password: password, sh: sh}

	// Drain the shell's login banner up to its first prompt, then disable
	// pagination for the rest of the session.
	if _, err := sh.run("", cliPrompt, defaultCommandTimeout); err != nil {
		sh.close()
		client.Close()
		return nil, fmt.Errorf("iosdriver: draining banner: %w", err)
	}
	if _, err := s.exec("terminal length 0", defaultCommandTimeout); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Close tears down the shell and underlying SSH connection.
func (s *Session) Close() {
	s.sh.close()
	s.sh.client.Close()
}

func (s *Session) exec(cmd string, timeout time.Duration) (string, error) {
	return s.sh.run(cmd, cliPrompt, timeout)
}

// Ping reports whether the shell still answers, for a session pool to
// decide whether a cached connection survived the device's last reload.
func (s *Session) Ping() error {
	_, err := s.exec("", 3*time.Second)
	return err
}

// pushConfig writes configuration to flash:liscain.config.in through a
// tclsh heredoc, copies it over startup-config, and reloads. It mirrors
// the original's telnet transcript line for line: tclsh has its own
// "+>" prompt, the destination-filename copy prompt needs confirming, and
// a stock "reload" may ask to save the running config first.
func (s *Session) pushConfig(configuration string) (bool, error) {
	if _, err := s.sh.run("tclsh", tclshPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("enter tclsh: %w", err)
	}
	if _, err := s.sh.run(`puts [open "flash:liscain.config.in" w+] {`, tclshPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("open config file: %w", err)
	}
	for _, line := range strings.Split(configuration, "\n") {
		if _, err := s.sh.run(strings.TrimRight(line, "\r"), tclshPrompt, defaultCommandTimeout); err != nil {
			return false, fmt.Errorf("write config line: %w", err)
		}
	}
	if _, err := s.sh.run("}", tclshPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("close config file: %w", err)
	}
	if _, err := s.sh.run("exit", cliPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("exit tclsh: %w", err)
	}
	if _, err := s.sh.run("write", cliPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("write memory: %w", err)
	}
	if _, err := s.sh.run("copy flash:liscain.config.in startup-config", copyDestPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("copy to startup-config: %w", err)
	}
	if _, err := s.sh.run("startup-config", cliPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("confirm copy destination: %w", err)
	}

	out, err := s.sh.run("reload", reloadPrompt, defaultCommandTimeout)
	if err != nil {
		return false, fmt.Errorf("reload: %w", err)
	}
	if strings.Contains(strings.ToLower(out), "yes/no") {
		time.Sleep(time.Second)
		if _, err := s.sh.run("no", confirmPrompt, defaultCommandTimeout); err != nil {
			return false, fmt.Errorf("reload without saving: %w", err)
		}
	}
	time.Sleep(time.Second)
	if _, err := s.sh.run("", cliPrompt, defaultCommandTimeout); err != nil {
		return false, fmt.Errorf("confirm reload: %w", err)
	}
	return true, nil
}

func macFromShowInterfaceVlan1(output string) string {
	m := reMACAddress.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	hex := strings.ReplaceAll(m[1], ".", "")
	if len(hex) != 12 {
		return ""
	}
	var parts []string
	for i := 0; i < 12; i += 2 {
		parts = append(parts, strings.ToLower(hex[i:i+2]))
	}
	return strings.Join(parts, ":")
}

func deviceTypeFromShowInventory(output string) string {
	m := rePID.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}

func versionFromShowVersion(output string) string {
	m := reVersion.FindStringSubmatch(output)
	if m == nil {
		return ""
	}
	return m[1]
}
