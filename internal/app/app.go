// Package app wires the holocore components together: the landmark source,
// the recognizer, the plugin runner, the HTTP API and the tray menu.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ayusman/holocore/internal/capture"
	"github.com/ayusman/holocore/internal/config"
	"github.com/ayusman/holocore/internal/detector"
	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/plugin"
	"github.com/ayusman/holocore/internal/server"
	"github.com/ayusman/holocore/internal/source"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/internal/tray"
	"github.com/ayusman/holocore/pkg/logger"
	"github.com/ayusman/holocore/pkg/metrics"
)

// ProviderFactory opens the landmark source used while recognition runs.
// It is called on every Start.
type ProviderFactory func() (source.Provider, error)

// Option configures an App.
type Option func(*App)

// WithProvider replaces the camera source.
func WithProvider(f ProviderFactory) Option {
	return func(a *App) { a.newProvider = f }
}

// WithRecorder tees every frame pushed to the recognizer into w as JSONL.
func WithRecorder(w io.Writer) Option {
	return func(a *App) { a.recorder = w }
}

// WithStaticDir serves the control panel from dir.
func WithStaticDir(dir string) Option {
	return func(a *App) { a.staticDir = dir }
}

// WithoutTray disables the tray menu regardless of the config.
func WithoutTray() Option {
	return func(a *App) { a.noTray = true }
}

// WithoutActions leaves recognized gestures unbound from plugin actions.
func WithoutActions() Option {
	return func(a *App) { a.noActions = true }
}

// WithResults observes finished plugin actions.
func WithResults(fn func(plugin.Result)) Option {
	return func(a *App) { a.onResult = fn }
}

// App is the main application that orchestrates recognition and action
// execution.
type App struct {
	cfg         *config.Config
	log         logger.Logger
	store       *store.Store
	metrics     *metrics.Manager
	recognizer  *gesture.Recognizer
	plugins     *plugin.Manager
	runner      *plugin.Runner
	server      *server.Server
	tray        *tray.Tray
	newProvider ProviderFactory
	recorder    io.Writer
	staticDir   string
	noTray      bool
	noActions   bool
	onResult    func(plugin.Result)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	last   chan struct{}
}

// New opens the store, restores the persisted recognizer settings and
// gestures, discovers plugins and subscribes the event consumers.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg: cfg,
		log: logger.Named("app"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.newProvider == nil {
		a.newProvider = a.cameraProvider
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.New(cfg.Database())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st

	a.metrics = metrics.NewManager(metrics.WithRuntimeMetrics())
	a.recognizer = gesture.NewRecognizer(
		gesture.WithLogger(logger.Named("recognizer")),
		gesture.WithMetrics(a.metrics),
		gesture.WithSettings(gesture.WithConfig(cfg.Recognizer)),
	)
	if err := a.restoreSettings(); err != nil {
		st.Close()
		return nil, err
	}
	if err := a.LoadGestures(); err != nil {
		st.Close()
		return nil, err
	}

	pluginDir := cfg.PluginDir()
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		a.log.Warn("plugin dir unavailable", logger.String("dir", pluginDir), logger.Error(err))
	}
	a.plugins = plugin.NewManager(pluginDir)
	if err := a.plugins.Discover(); err != nil {
		a.log.Warn("plugin discovery failed", logger.Error(err))
	}
	runnerOpts := []plugin.RunnerOption{
		plugin.WithQueueSize(cfg.Plugins.QueueSize),
		plugin.WithRunnerMetrics(a.metrics),
	}
	if a.onResult != nil {
		runnerOpts = append(runnerOpts, plugin.WithResults(a.onResult))
	}
	a.runner = plugin.NewRunner(a.plugins, plugin.NewExecutor(cfg.Plugins.Timeout), st.Actions(), runnerOpts...)
	if !a.noActions {
		a.recognizer.On(gesture.TopicRecognized, a.runner.Handle)
	}

	if cfg.Addr != "" {
		a.server = server.New(server.Config{
			StaticDir:  a.staticDir,
			Store:      st,
			Recognizer: a.recognizer,
			Control:    a,
			Plugins:    a.plugins,
			Metrics:    a.metrics,
		})
		a.recognizer.On(gesture.TopicRecognized, a.server.Events().Publish)
	}

	if cfg.Tray && !a.noTray {
		url := ""
		if cfg.Addr != "" {
			url = "http://" + cfg.Addr
		}
		a.tray = tray.New(url)
		a.tray.OnToggle(func(enabled bool) error {
			if enabled {
				return a.Start()
			}
			a.Stop()
			return nil
		})
		a.recognizer.On(gesture.TopicRecognized, a.tray.ShowGesture)
	}

	return a, nil
}

// restoreSettings applies the recognizer settings saved through the API on
// top of the file configuration.
func (a *App) restoreSettings() error {
	var saved gesture.Config
	err := a.store.Settings().Get(store.SettingRecognizer, &saved)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load recognizer settings: %w", err)
	}
	a.recognizer.Configure(gesture.WithConfig(saved))
	a.log.Info("restored recognizer settings")
	return nil
}

// LoadGestures registers every trained custom gesture from the store with
// the recognizer. Gestures that fail to register are logged and skipped.
func (a *App) LoadGestures() error {
	templates, err := a.store.Gestures().Templates()
	if err != nil {
		return fmt.Errorf("load gestures: %w", err)
	}

	loaded := 0
	for _, tpl := range templates {
		def, err := tpl.Definition()
		if err == nil {
			err = a.recognizer.RegisterGesture(def)
		}
		if err != nil {
			a.log.Warn("skipping gesture", logger.String("gesture", tpl.ID), logger.Error(err))
			continue
		}
		loaded++
	}
	a.log.Info("loaded gestures", logger.Int("count", loaded))
	return nil
}

// Recognizer returns the gesture recognizer.
func (a *App) Recognizer() *gesture.Recognizer { return a.recognizer }

// Store returns the persistence layer.
func (a *App) Store() *store.Store { return a.store }

// Server returns the HTTP server, or nil when the API is disabled.
func (a *App) Server() *server.Server { return a.server }

// Start opens the landmark source and begins recognition. Starting a
// running app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return nil
	}

	provider, err := a.newProvider()
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	var sink source.Sink = a.recognizer
	if a.recorder != nil {
		sink = source.NewRecorder(a.recorder, sink)
	}
	pump := source.NewPump(provider, sink, source.WithPumpLogger(logger.Named("source")))

	a.recognizer.Start()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.cancel, a.done, a.last = cancel, done, done

	go func() {
		defer close(done)
		err := pump.Run(ctx)
		if cerr := provider.Close(); cerr != nil {
			a.log.Warn("closing source", logger.Error(cerr))
		}
		if err != nil {
			a.log.Error("source stopped", logger.String("source", provider.Name()), logger.Error(err))
		} else {
			a.log.Info("source finished", logger.String("source", provider.Name()))
		}
		a.finished(done)
	}()

	a.log.Info("recognition started", logger.String("source", provider.Name()))
	if a.tray != nil {
		a.tray.SetEnabled(true)
	}
	return nil
}

// finished resets the state after the source ended by itself.
func (a *App) finished(done chan struct{}) {
	a.mu.Lock()
	if a.done != done {
		a.mu.Unlock()
		return
	}
	a.cancel()
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	a.recognizer.Stop()
	if a.tray != nil {
		a.tray.SetEnabled(false)
	}
}

// Stop halts recognition and waits for the source to close.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	a.recognizer.Stop()
	if a.tray != nil {
		a.tray.SetEnabled(false)
	}
	a.log.Info("recognition stopped")
}

// Running reports whether a source is feeding the recognizer.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}

// Wait blocks until the most recently started source has finished.
func (a *App) Wait() {
	a.mu.Lock()
	done := a.last
	a.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Run executes plugin actions and serves the API until ctx is cancelled,
// the tray menu quits or the server fails. With the tray enabled Run must
// be called from the main goroutine.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.runner.Start(ctx)

	if a.cfg.AutoStart {
		if err := a.Start(); err != nil {
			a.log.Warn("auto start failed", logger.Error(err))
		}
	}

	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			err := a.server.Run(ctx, a.cfg.Addr)
			if err != nil {
				cancel()
			}
			serverErr <- err
		}()
	}

	if a.tray != nil {
		a.tray.OnQuit(cancel)
		go func() {
			<-ctx.Done()
			a.tray.Quit()
		}()
		a.tray.Run()
		cancel()
	}
	<-ctx.Done()

	a.Stop()
	var err error
	if a.server != nil {
		err = <-serverErr
	}
	a.runner.Wait()
	return err
}

// Close stops recognition and closes the store.
func (a *App) Close() error {
	a.Stop()
	return a.store.Close()
}

// cameraProvider is the default source: the configured camera with the
// MediaPipe detector behind the motion gate.
func (a *App) cameraProvider() (source.Provider, error) {
	det, err := detector.NewMediaPipeDetector(a.cfg.Detector)
	if err != nil {
		return nil, fmt.Errorf("hand detector unavailable: %w", err)
	}
	cam := capture.NewCamera(a.cfg.Capture)
	p, err := source.NewCameraProvider(cam, det, a.cfg.Camera, source.WithCameraLogger(logger.Named("camera")))
	if err != nil {
		det.Close()
		return nil, err
	}
	return p, nil
}
