package cmdutil

import (
	"github.com/opmodel/optimize/internal/bundler"
	"github.com/opmodel/optimize/internal/cmdtypes"
	"github.com/opmodel/optimize/internal/fsutil"
	"github.com/opmodel/optimize/internal/pipeline"
	"github.com/opmodel/optimize/internal/service"
)

// Session is a loaded service with a controller ready to run.
type Session struct {
	FS         *fsutil.FS
	Service    *service.Service
	Controller *pipeline.Controller
}

// Open loads the service manifest named by the resolved settings and wires
// a pipeline controller for it.
func Open(cfg *cmdtypes.GlobalConfig) (*Session, error) {
	fs := cfg.FS
	if fs == nil {
		fs = fsutil.New(nil)
	}

	svc, err := service.Load(fs, cfg.Settings.ServiceDir, cfg.Settings.Manifest)
	if err != nil {
		return nil, err
	}

	builder := cfg.Builder
	if builder == nil {
		builder = bundler.NewESBuild(nil)
	}

	return &Session{
		FS:      fs,
		Service: svc,
		Controller: pipeline.New(pipeline.Config{
			Host:        svc,
			FS:          fs,
			Builder:     builder,
			Concurrency: cfg.Settings.Concurrency,
		}),
	}, nil
}
