package push

import (
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/treesync/cmd/util"
	"github.com/sidkik/treesync/pkg/config"
	"github.com/sidkik/treesync/pkg/errors"
	"github.com/sidkik/treesync/pkg/fswatch"
	"github.com/sidkik/treesync/pkg/path"
	"github.com/sidkik/treesync/pkg/ssh"
	"github.com/sidkik/treesync/pkg/sync"
	"github.com/sidkik/treesync/pkg/transport"
)

// debounce is how long the local files must stay unchanged before a push is
// started in watch mode.
const debounce = 500 * time.Millisecond

type pushCommand struct {
	configPath string
	watch      bool
}

// New creates a new `push` command.
func New() *cobra.Command {
	var cmd pushCommand
	cobraCmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the local paths in the push config to the remote host",
		Long: "Connect to the host in the push config and upload every target.\n" +
			"Directories are mirrored recursively. Every file is uploaded on\n" +
			"every push, and remote files that don't exist locally are left alone.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := cmd.run(); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cobraCmd.Flags().StringVar(&cmd.configPath, "config", "",
		"Path to the push config. Defaults to "+config.DefaultPushConfigPath)
	cobraCmd.Flags().BoolVar(&cmd.watch, "watch", false,
		"Keep running and push again whenever a local target changes.")
	return cobraCmd
}

func (cmd pushCommand) run() error {
	cfg, err := config.ParsePush(cmd.configPath)
	if err != nil {
		return errors.WithContext(err, "parse push config")
	}
	log.WithFields(log.Fields{
		"config": cfg.GetPath(),
		"host":   cfg.Host,
	}).Debug("Loaded push config")

	session, err := ssh.Dial(cfg)
	if err != nil {
		return errors.WithContext(err, "connect")
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close session")
		}
	}()

	osFs := afero.NewOsFs()
	p := pusher{
		local:     path.NewLocal(osFs),
		transport: transport.NewSFTP(session.SFTP, osFs),
		targets:   cfg.Targets,
	}

	if !cmd.watch {
		return p.pushAll()
	}

	var roots []string
	for _, target := range cfg.Targets {
		roots = append(roots, target.From)
	}
	watcher, err := fswatch.Watch(roots)
	if err != nil {
		return errors.WithContext(err, "watch files")
	}
	defer watcher.Close()

	if err := p.pushAll(); err != nil {
		log.WithError(err).Error("Push failed")
	}
	watchLoop(clockwork.NewRealClock(), watcher.Events, nil, func() {
		if err := p.pushAll(); err != nil {
			log.WithError(err).Error("Push failed")
		}
	})
	return nil
}

type pusher struct {
	local     *path.Local
	transport transport.Transport
	targets   []config.Target
}

// pushAll pushes every target in order, stopping at the first failure.
func (p pusher) pushAll() error {
	// A new session is created for each push so that relative destinations
	// are resolved against the current remote working directory.
	remote := path.NewSession(p.transport)

	for _, target := range p.targets {
		src, err := p.local.Path(target.From)
		if err != nil {
			return err
		}
		dst := remote.Path(target.To)

		var stats sync.Stats
		switch {
		case src.IsDir():
			stats, err = sync.Tree(src, dst)
		case src.IsFile():
			stats, err = sync.File(src, dst)
		default:
			return errors.FileNotFound{Path: src.String()}
		}
		if err != nil {
			return errors.WithContext(err, "push "+src.String())
		}

		log.WithFields(log.Fields{
			"from": src.String(),
			"to":   dst.String(),
		}).Infof("Pushed: %s", stats)
	}
	return nil
}

// watchLoop calls push once the events channel has been quiet for debounce
// after an event. It returns when stop is closed.
func watchLoop(clock clockwork.Clock, events <-chan struct{}, stop <-chan struct{}, push func()) {
	for {
		select {
		case <-events:
		case <-stop:
			return
		}

		quiet := clock.After(debounce)
	debouncing:
		for {
			select {
			case <-events:
				quiet = clock.After(debounce)
			case <-quiet:
				break debouncing
			case <-stop:
				return
			}
		}

		push()
	}
}
