package launch

import (
	"os"

	"go.uber.org/zap"
)

// DefaultLaunchName names the descriptor Bootstrap creates.
const DefaultLaunchName = "Mock external LS"

// DefaultContentType is associated when Options leave it empty.
const DefaultContentType = "mockls.test.content-type"

// Options tunes Bootstrap.
type Options struct {
	// Name of the descriptor to find or create. Defaults to DefaultLaunchName.
	Name string
	// ContentType to associate. Defaults to DefaultContentType.
	ContentType string
	// Program to launch. Defaults to the running executable.
	Program string
	// Args passed to Program. Defaults to "serve".
	Args []string
}

// Bootstrap finds or creates the mock server launch descriptor and associates
// it with the content type in run mode. Failures are logged and abort only
// the bootstrap; the returned bool reports whether it completed.
func Bootstrap(store *Store, registry *Registry, opts Options, logger *zap.Logger) (Descriptor, bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Name == "" {
		opts.Name = DefaultLaunchName
	}
	if opts.ContentType == "" {
		opts.ContentType = DefaultContentType
	}
	if len(opts.Args) == 0 {
		opts.Args = []string{"serve"}
	}

	d, found, err := store.FindByName(opts.Name)
	if err != nil {
		logger.Error("failed to look up launch descriptor", zap.String("name", opts.Name), zap.Error(err))
		return Descriptor{}, false
	}

	if !found {
		program := opts.Program
		if program == "" {
			program, err = os.Executable()
			if err != nil {
				logger.Error("failed to resolve executable", zap.Error(err))
				return Descriptor{}, false
			}
		}

		d, err = store.Save(Descriptor{
			Name:          opts.Name,
			Program:       program,
			Args:          opts.Args,
			Background:    true,
			CaptureOutput: true,
		})
		if err != nil {
			logger.Error("failed to create launch descriptor", zap.String("name", opts.Name), zap.Error(err))
			return Descriptor{}, false
		}
		logger.Info("created launch descriptor", zap.String("name", d.Name), zap.String("id", d.ID), zap.String("program", d.Program))
	}

	registry.Register(Association{
		ContentType: opts.ContentType,
		LaunchName:  d.Name,
		Modes:       []Mode{ModeRun},
		Enabled:     true,
	})
	if err := store.SaveAssociations(registry.Associations()); err != nil {
		logger.Error("failed to persist associations", zap.Error(err))
		return d, false
	}

	logger.Info("registered content type", zap.String("contentType", opts.ContentType), zap.String("launch", d.Name))
	return d, true
}
