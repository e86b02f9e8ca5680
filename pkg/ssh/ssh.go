// Package ssh opens the SFTP sessions that pushes run over.
package ssh

import (
	"net"
	"strconv"

	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/sidkik/treesync/pkg/config"
	"github.com/sidkik/treesync/pkg/errors"
)

// fs is used for mock tests.
var fs = afero.NewOsFs()

// Session is an SSH connection with an SFTP subsystem running over it.
type Session struct {
	SFTP *sftp.Client
	conn *ssh.Client
}

// Close closes the SFTP client and then the underlying connection.
func (s *Session) Close() error {
	sftpErr := s.SFTP.Close()
	if err := s.conn.Close(); err != nil {
		return errors.WithContext(err, "close ssh connection")
	}
	return errors.WithContext(sftpErr, "close sftp client")
}

// Dial connects to the host in cfg and starts an SFTP session.
func Dial(cfg config.Push) (*Session, error) {
	clientConfig, err := ClientConfig(cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	conn, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, errors.WithContext(err, "dial "+addr)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WithContext(err, "start sftp")
	}
	return &Session{SFTP: client, conn: conn}, nil
}

// ClientConfig builds the SSH client configuration for cfg: public key
// authentication with cfg.IdentityFile, and host keys checked against
// cfg.KnownHostsFile unless cfg.InsecureIgnoreHostKey is set.
func ClientConfig(cfg config.Push) (*ssh.ClientConfig, error) {
	if cfg.IdentityFile == "" {
		return nil, errors.MissingFieldError{Field: "identityFile"}
	}

	keyBytes, err := afero.ReadFile(fs, cfg.IdentityFile)
	if err != nil {
		return nil, errors.WithContext(err, "read identity file")
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		if _, ok := err.(*ssh.PassphraseMissingError); ok {
			return nil, errors.NewFriendlyError("The identity file %q is "+
				"protected by a passphrase. Load it into an SSH agent or use "+
				"an unencrypted deploy key.", cfg.IdentityFile)
		}
		return nil, errors.WithContext(err, "parse identity file")
	}

	hostKeyCallback, err := hostKeyCallback(cfg)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func hostKeyCallback(cfg config.Push) (ssh.HostKeyCallback, error) {
	if cfg.InsecureIgnoreHostKey {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	if cfg.KnownHostsFile == "" {
		return nil, errors.NewFriendlyError("The push config doesn't say "+
			"how to verify %q. Set knownHostsFile, or set "+
			"insecureIgnoreHostKey to skip verification.", cfg.Host)
	}

	// knownhosts reads from the OS filesystem, so check existence first to
	// give a clearer error.
	if exists, err := afero.Exists(fs, cfg.KnownHostsFile); err != nil || !exists {
		return nil, errors.FileNotFound{Path: cfg.KnownHostsFile}
	}

	callback, err := knownhosts.New(cfg.KnownHostsFile)
	if err != nil {
		return nil, errors.WithContext(err, "load known hosts")
	}
	return callback, nil
}
