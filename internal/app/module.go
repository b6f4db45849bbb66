// Package app composes the client: one fx module wiring the platform
// adapter, the sync state, and the TUI, plus the session orchestrator
// that starts and stops everything on sign-in and sign-out.
package app

import (
	"context"
	"time"

	"github.com/SandroBreaker/Chat.y/internal/activity"
	"github.com/SandroBreaker/Chat.y/internal/bus"
	"github.com/SandroBreaker/Chat.y/internal/config"
	"github.com/SandroBreaker/Chat.y/internal/convo"
	"github.com/SandroBreaker/Chat.y/internal/directory"
	"github.com/SandroBreaker/Chat.y/internal/feed"
	"github.com/SandroBreaker/Chat.y/internal/lock"
	"github.com/SandroBreaker/Chat.y/internal/logging"
	"github.com/SandroBreaker/Chat.y/internal/media"
	"github.com/SandroBreaker/Chat.y/internal/notify"
	"github.com/SandroBreaker/Chat.y/internal/platform"
	"github.com/SandroBreaker/Chat.y/internal/session"
	"github.com/SandroBreaker/Chat.y/internal/status"
	"github.com/SandroBreaker/Chat.y/internal/tui"
	"github.com/SandroBreaker/Chat.y/internal/typing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// activityWarmLimit is how many recent rows seed the last-activity
// index at session start.
const activityWarmLimit = 200

// Params holds the resolved startup configuration passed to the fx module.
type Params struct {
	ConfigPath string // optional override; empty = use default
}

// Module returns the fx module for the client, composing all providers
// and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("chaty",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideLock,
			provideBus,
			provideStateMachine,
			provideClient,
			provideRealtime,
			provideGate,
			provideDirectory,
			provideActivity,
			provideTracker,
			provideTypingSender,
			provideBroadcaster,
			provideFeed,
			provideConvo,
			provideUploader,
			provideRecorder,
			provideTUI,
			provideDispatcher,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideLogger() (*zap.Logger, error) {
	return logging.New(config.LogPath())
}

func provideLock(logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(config.Dir())
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired", zap.String("dir", config.Dir()))
	return l, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideStateMachine(b *bus.Bus) *status.Machine {
	return status.NewMachine(b)
}

func provideClient(cfg *config.Config, logger *zap.Logger) *platform.Client {
	return platform.New(cfg.PlatformURL, cfg.AnonKey, logger)
}

func provideRealtime(c *platform.Client, logger *zap.Logger) *platform.Realtime {
	return platform.NewRealtime(c, logger)
}

func provideGate(c *platform.Client, m *status.Machine, b *bus.Bus, logger *zap.Logger) *session.Gate {
	return session.NewGate(c, m, b, logger)
}

func provideDirectory(c *platform.Client, b *bus.Bus, logger *zap.Logger) *directory.Cache {
	return directory.NewCache(c, b, logger)
}

func provideActivity(b *bus.Bus) *activity.Index {
	return activity.NewIndex(b)
}

func provideTracker(b *bus.Bus) *typing.Tracker {
	return typing.NewTracker(b)
}

func provideTypingSender(rt *platform.Realtime, gate *session.Gate) *feed.TypingSender {
	return feed.NewTypingSender(rt, gate.UserID)
}

func provideBroadcaster(sender *feed.TypingSender, cfg *config.Config, logger *zap.Logger) *typing.Broadcaster {
	return typing.NewBroadcaster(sender, cfg.TypingIdle(), logger)
}

func provideFeed(rt *platform.Realtime, b *bus.Bus, logger *zap.Logger) *feed.Stream {
	return feed.NewStream(rt, b, logger)
}

func provideConvo(c *platform.Client, b *bus.Bus, logger *zap.Logger) *convo.Store {
	return convo.NewStore(c, b, logger)
}

func provideUploader(c *platform.Client, cfg *config.Config, b *bus.Bus, logger *zap.Logger) *media.Uploader {
	return media.NewUploader(c, cfg.MediaBucket, b, logger)
}

func provideRecorder(logger *zap.Logger) *media.RecordingManager {
	return media.NewRecordingManager(media.CommandCapture, logger)
}

func provideTUI(
	b *bus.Bus,
	gate *session.Gate,
	dir *directory.Cache,
	index *activity.Index,
	store *convo.Store,
	broadcaster *typing.Broadcaster,
	tracker *typing.Tracker,
	uploader *media.Uploader,
	recorder *media.RecordingManager,
	logger *zap.Logger,
) (*tui.App, error) {
	return tui.NewApp(tui.Deps{
		Bus:         b,
		Gate:        gate,
		Directory:   dir,
		Activity:    index,
		Convo:       store,
		Broadcaster: broadcaster,
		Tracker:     tracker,
		Uploader:    uploader,
		Recorder:    recorder,
		Logger:      logger,
	})
}

func provideDispatcher(b *bus.Bus, app *tui.App, cfg *config.Config, logger *zap.Logger) *notify.Dispatcher {
	return notify.NewDispatcher(b, app, app, logger, notify.Options{
		Mute:           cfg.Mute,
		AlwaysNotify:   cfg.AlwaysNotify,
		EmphasisWindow: cfg.NudgeEffect(),
	})
}

func registerLifecycle(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	app *tui.App,
	gate *session.Gate,
	machine *status.Machine,
	client *platform.Client,
	realtime *platform.Realtime,
	dir *directory.Cache,
	index *activity.Index,
	store *convo.Store,
	stream *feed.Stream,
	broadcaster *typing.Broadcaster,
	tracker *typing.Tracker,
	dispatcher *notify.Dispatcher,
	lk *lock.Lock,
	b *bus.Bus,
	logger *zap.Logger,
) {
	orc := &orchestrator{
		gate:        gate,
		machine:     machine,
		client:      client,
		realtime:    realtime,
		dir:         dir,
		index:       index,
		store:       store,
		stream:      stream,
		broadcaster: broadcaster,
		tracker:     tracker,
		bus:         b,
		logger:      logger,
	}

	dispatcher.BindSelf(gate.UserID)
	dispatcher.BindNames(dir.DisplayName)
	dispatcher.BindVisibility(app.Visible)
	dispatcher.BindEmphasis(app.ApplyEmphasis)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			dispatcher.Start()
			orc.start()

			go func() {
				if err := app.Run(); err != nil {
					logger.Error("tui exited", zap.Error(err))
				}
				_ = shutdowner.Shutdown()
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			app.Stop()
			orc.stop()
			dispatcher.Stop()
			if gate.Authenticated() {
				gate.SignOut(ctx)
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing instance lock", zap.Error(err))
			}
			_ = logger.Sync()
			logger.Info("client stopped")
			return nil
		},
	})
}

// orchestrator reacts to session lifecycle events: it brings the
// realtime plane and the in-memory stores up on sign-in and tears them
// down on sign-out.
type orchestrator struct {
	gate        *session.Gate
	machine     *status.Machine
	client      *platform.Client
	realtime    *platform.Realtime
	dir         *directory.Cache
	index       *activity.Index
	store       *convo.Store
	stream      *feed.Stream
	broadcaster *typing.Broadcaster
	tracker     *typing.Tracker
	bus         *bus.Bus
	logger      *zap.Logger

	cancel     context.CancelFunc
	stopListen func()
}

func (o *orchestrator) start() {
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.stopListen = o.store.Listen()

	events, unsub := o.bus.Subscribe("session.signed", 16)
	feedTyping, unsubTyping := o.bus.Subscribe(bus.KindFeedTyping, 64)
	feedInserts, unsubInserts := o.bus.Subscribe(bus.KindFeedInsert, 64)

	go func() {
		defer unsub()
		defer unsubTyping()
		defer unsubInserts()
		for {
			select {
			case evt := <-events:
				switch evt.Kind {
				case bus.KindSessionSignedIn:
					if sess, ok := evt.Payload.(*platform.Session); ok {
						o.sessionUp(ctx, sess)
					}
				case bus.KindSessionSignedOut:
					o.sessionDown()
				}
			case evt := <-feedTyping:
				if sig, ok := evt.Payload.(feed.TypingSignal); ok {
					o.tracker.Set(sig.From, sig.Typing)
				}
			case evt := <-feedInserts:
				if msg, ok := evt.Payload.(platform.Message); ok {
					o.index.Record(msg, o.gate.UserID())
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (o *orchestrator) stop() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	if o.stopListen != nil {
		o.stopListen()
		o.stopListen = nil
	}
	o.stream.Stop()
	o.realtime.Close()
}

// sessionUp brings the session online: profile directory, activity
// warm-up, realtime feed. Partial failures degrade instead of failing
// the sign-in.
func (o *orchestrator) sessionUp(ctx context.Context, sess *platform.Session) {
	selfID := sess.User.ID
	o.store.SetSelf(selfID)
	o.dir.Refresh(ctx, selfID)

	degraded := false
	if recent, err := o.client.RecentMessagesTouching(ctx, selfID, activityWarmLimit); err != nil {
		o.logger.Warn("activity warm-up failed", zap.Error(err))
		degraded = true
	} else {
		o.index.Warm(recent, selfID)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := o.realtime.Dial(dialCtx, sess.AccessToken); err != nil {
		o.logger.Error("realtime dial failed", zap.Error(err))
		degraded = true
	} else if err := o.stream.Start(ctx, selfID); err != nil {
		o.logger.Error("feed start failed", zap.Error(err))
		degraded = true
	}

	if degraded {
		_ = o.machine.Transition(status.Degraded)
	} else {
		_ = o.machine.Transition(status.Ready)
	}
}

// sessionDown resets every in-memory store so nothing leaks into the
// next session.
func (o *orchestrator) sessionDown() {
	o.stream.Stop()
	o.realtime.Close()
	o.broadcaster.Reset()
	o.tracker.Reset()
	o.store.Reset()
	o.index.Reset()
	o.dir.Reset()
	o.logger.Info("session torn down")
}
