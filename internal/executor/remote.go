package executor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/povsister/scp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

type Config struct {
	Host    string
	Port    int
	User    string
	KeyPath string
	// KnownHosts is the known_hosts file used to verify the target. Empty
	// disables host key checking.
	KnownHosts string
}

// Dial opens the SSH connection to the target host.
func Dial(cfg Config) (*ssh.Client, error) {
	key, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHosts != "" {
		hostKeyCallback, err = knownhosts.New(cfg.KnownHosts)
		if err != nil {
			return nil, fmt.Errorf("failed to load known hosts: %w", err)
		}
	}

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	client, err := ssh.Dial("tcp", address, &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w: %w", address, ErrTransport, err)
	}

	return client, nil
}

// Remote runs commands and pushes files on the target over SSH.
type Remote struct {
	client *ssh.Client
}

func (r *Remote) Run(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return -1, ErrEmptyCommand
	}

	if err := ctx.Err(); err != nil {
		return -1, err
	}

	session, err := r.client.NewSession()
	if err != nil {
		return -1, fmt.Errorf("failed to open session: %w: %w", ErrTransport, err)
	}
	defer func() { _ = session.Close() }()

	command := Quote(argv)

	output, err := session.CombinedOutput(command)

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		log.WithFields(log.Fields{
			"command": command,
			"output":  string(output),
		}).Debug("remote command exited with non-zero status")

		return exitErr.ExitStatus(), nil
	}

	if err != nil {
		return -1, fmt.Errorf("failed to run remote cmd: %w: %w", ErrTransport, err)
	}

	return 0, nil
}

// Copy pushes a local file or directory to destination on the target.
func (r *Remote) Copy(ctx context.Context, source, destination string) error {
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	client, err := scp.NewClientFromExistingSSH(r.client, &scp.ClientOption{})
	if err != nil {
		return fmt.Errorf("failed to create scp client: %w: %w", ErrTransport, err)
	}

	if info.IsDir() {
		err = client.CopyDirToRemote(source, destination, &scp.DirTransferOption{})
	} else {
		err = client.CopyFileToRemote(source, destination, &scp.FileTransferOption{})
	}
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w: %w", source, ErrTransport, err)
	}

	return nil
}

func NewRemote(client *ssh.Client) *Remote {
	return &Remote{client: client}
}

// Quote joins argv into a POSIX shell command line.
func Quote(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted = append(quoted, quote(arg))
	}

	return strings.Join(quoted, " ")
}

func quote(arg string) string {
	if arg == "" {
		return "''"
	}

	safe := strings.IndexFunc(arg, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:=@%+,", r))
	}) == -1
	if safe {
		return arg
	}

	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
