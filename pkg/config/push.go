package config

import (
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/sidkik/treesync/pkg/errors"
)

const (
	// DefaultPushConfigPath is where the push config is read from when no
	// path is given on the command line.
	DefaultPushConfigPath = "~/.treesync.yaml"

	// InitialPushConfigVersion is the first version of the push config.
	// Config files that do not specify a version will default to this
	// version.
	InitialPushConfigVersion = "v1alpha1"

	// SupportedPushConfigVersion is the version of the push config supported
	// by this binary.
	SupportedPushConfigVersion = "v1alpha1"

	// DefaultPort is the SSH port used when the config doesn't set one.
	DefaultPort = 22
)

// Push describes a remote host and the local paths to push to it.
type Push struct {
	Version string `json:"version,omitempty"`

	Host string `json:"host"` // Required.
	Port int    `json:"port,omitempty"`
	User string `json:"user"` // Required.

	// IdentityFile is the private key used to authenticate.
	IdentityFile string `json:"identityFile,omitempty"`

	// KnownHostsFile lists the host keys that are trusted.
	KnownHostsFile string `json:"knownHostsFile,omitempty"`

	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool `json:"insecureIgnoreHostKey,omitempty"`

	Targets []Target `json:"targets"` // Required.

	// Only populated and consumed by treesync. Never set by user.
	path string
}

// Target maps a local file or directory onto a remote path. If From is a
// directory, the whole tree underneath it is pushed.
type Target struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GetPath returns the filepath that the config was parsed from.
func (c Push) GetPath() string {
	return c.path
}

func (c Push) getVersion() string {
	return c.Version
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// ParsePush parses the push config at path. An empty path means
// DefaultPushConfigPath. Relative `from` paths are resolved relative to the
// directory containing the config.
func ParsePush(path string) (Push, error) {
	if path == "" {
		path = DefaultPushConfigPath
	}

	path, err := homedirExpand(path)
	if err != nil {
		return Push{}, errors.WithContext(err, "expand config path")
	}

	config := Push{Version: InitialPushConfigVersion, path: path}
	if err := parseConfig(path, &config, SupportedPushConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			return Push{}, errors.NewFriendlyError("The push config "+
				"file doesn't exist at %q. Create it, or pass the path to "+
				"an existing config with --config.", path)
		}
		return Push{}, errors.WithContext(err, "parse")
	}

	if err := config.validate(); err != nil {
		return Push{}, err
	}

	if config.Port == 0 {
		config.Port = DefaultPort
	}

	for _, field := range []*string{&config.IdentityFile, &config.KnownHostsFile} {
		if *field == "" {
			continue
		}
		if *field, err = homedirExpand(*field); err != nil {
			return Push{}, errors.WithContext(err, "expand path")
		}
	}

	for i, target := range config.Targets {
		from, err := homedirExpand(target.From)
		if err != nil {
			return Push{}, errors.WithContext(err, "expand target path")
		}
		if !filepath.IsAbs(from) {
			from = filepath.Join(filepath.Dir(path), from)
		}
		config.Targets[i].From = from
	}
	return config, nil
}

func (c Push) validate() error {
	switch {
	case c.Host == "":
		return errors.MissingFieldError{Field: "host"}
	case c.User == "":
		return errors.MissingFieldError{Field: "user"}
	case len(c.Targets) == 0:
		return errors.MissingFieldError{Field: "targets"}
	}

	for _, target := range c.Targets {
		if target.From == "" {
			return errors.MissingFieldError{Field: "targets.from"}
		}
		if target.To == "" {
			return errors.MissingFieldError{Field: "targets.to"}
		}
	}
	return nil
}
