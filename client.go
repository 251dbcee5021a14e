package multipal

import (
	"context"
	"fmt"
)

// Deps are the collaborators a Client is composed from. Provider and
// Profiles are required; the rest default sensibly. Passing collaborators
// explicitly keeps the application state reachable only through the Client,
// with no ambient singletons.
type Deps struct {
	Provider  BackupProvider
	Profiles  RemoteProfileClient
	Catalog   Catalog   // nil: DefaultCatalog()
	Assistant Assistant // nil: selected from Config
	Notifier  Notifier  // nil: notices are discarded

	// OnProviderState, if set, observes provider readiness transitions in
	// addition to the sync engine.
	OnProviderState StateFunc
}

// Client is the composition root: it owns the instance store, sync engine,
// and session lifecycle, and exposes the operations the UI layers call.
type Client struct {
	config    Config
	store     *InstanceStore
	catalog   Catalog
	provider  BackupProvider
	profiles  RemoteProfileClient
	engine    *SyncEngine
	session   *SessionLifecycle
	assistant Assistant
	notifier  Notifier
	debug     *DebugLogger
}

// New creates a new Multipal client.
func New(cfg Config, deps Deps) (*Client, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Provider == nil {
		return nil, &ValidationError{Field: "Provider", Message: "required: backup provider"}
	}
	if deps.Profiles == nil {
		return nil, &ValidationError{Field: "Profiles", Message: "required: remote profile client"}
	}

	debug, err := NewDebugLogger(cfg.Debug, cfg.DebugLogPath)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	assistant := deps.Assistant
	if assistant == nil {
		assistant = NewAssistant(cfg)
	}

	store := NewInstanceStore()
	engine := NewSyncEngine(store, deps.Provider, deps.Profiles, notifier, debug, cfg.DebounceWindow)
	session := NewSessionLifecycle(store, deps.Profiles, engine, notifier, debug, cfg.HydrationGrace)
	engine.BindSession(session)

	c := &Client{
		config:    cfg,
		store:     store,
		catalog:   catalog,
		provider:  deps.Provider,
		profiles:  deps.Profiles,
		engine:    engine,
		session:   session,
		assistant: assistant,
		notifier:  notifier,
		debug:     debug,
	}

	onState := deps.OnProviderState
	if err := deps.Provider.Initialize(func(st ProviderState) {
		engine.SetProviderState(st)
		if onState != nil {
			onState(st)
		}
	}); err != nil {
		_ = debug.Close()
		return nil, fmt.Errorf("client: initialize backup provider: %w", err)
	}

	return c, nil
}

// Catalog returns the app catalog.
func (c *Client) Catalog() Catalog { return c.catalog }

// CloneApp creates a new instance of the named package. instanceName may be
// empty; the next auto-suffixed name is used then. Sensitive apps (banking
// and the like) are cloned anyway but surface a warning notice, mirroring
// the pre-clone warning the catalog flags them for.
func (c *Client) CloneApp(packageName, instanceName string) (ClonedInstance, error) {
	app, ok := c.catalog.Lookup(packageName)
	if !ok {
		return ClonedInstance{}, ErrUnknownPackage
	}

	if instanceName == "" {
		instanceName = c.store.NextInstanceName(app)
	}
	if app.Sensitive {
		c.notifier.Notify(Notice{Level: NoticeInfo, Message: app.Name + " may not work when cloned due to its own security measures."})
	}

	inst := c.store.Add(app, instanceName)
	c.notifier.Notify(Notice{Level: NoticeSuccess, Message: inst.InstanceName + " created!"})
	return inst, nil
}

// RenameInstance renames an instance. Empty names and unknown ids are
// silent no-ops.
func (c *Client) RenameInstance(id, newName string) {
	c.store.Rename(id, newName)
}

// RemoveInstance deletes an instance, stopping it first if it is running.
func (c *Client) RemoveInstance(id string) {
	c.store.Remove(id)
}

// ToggleInstance flips the running state of an instance.
func (c *Client) ToggleInstance(id string) (ToggleResult, error) {
	inst, ok := c.store.Get(id)
	if !ok {
		return ToggleRejected, fmt.Errorf("toggle: unknown instance %q", id)
	}

	res := c.store.Toggle(inst.ID, inst.PackageName)
	switch res {
	case ToggleStarted:
		c.notifier.Notify(Notice{Level: NoticeSuccess, Message: "Launching " + inst.InstanceName + "..."})
	case ToggleStopped:
		c.notifier.Notify(Notice{Level: NoticeSuccess, Message: inst.InstanceName + " stopped."})
	case ToggleRejected:
		name := inst.PackageName
		if app, ok := c.catalog.Lookup(inst.PackageName); ok {
			name = app.Name
		}
		c.notifier.Notify(Notice{Level: NoticeError, Message: "Another instance of " + name + " is running. Please stop it first."})
	}
	return res, nil
}

// Instances returns the catalog-joined projection of all instances.
// Instances whose package the catalog no longer knows are omitted from the
// view but stay in persisted data.
func (c *Client) Instances() []InstanceView {
	return JoinCatalog(c.store.Instances(), c.catalog)
}

// RawInstances returns the persisted sequence without the catalog join.
func (c *Client) RawInstances() []ClonedInstance {
	return c.store.Instances()
}

// Instance returns the instance with the given id.
func (c *Client) Instance(id string) (ClonedInstance, bool) {
	return c.store.Get(id)
}

// Running returns the running map: package name to running instance id.
func (c *Client) Running() map[string]string {
	return c.store.Running()
}

// Settings returns the current session settings.
func (c *Client) Settings() Settings {
	return c.session.Settings()
}

// SetTheme switches the color scheme.
func (c *Client) SetTheme(theme Theme) {
	c.session.SetTheme(theme)
}

// SetAutoBackup enables or disables automatic backups.
func (c *Client) SetAutoBackup(enabled bool) {
	c.session.SetAutoBackup(enabled)
}

// SignIn starts a session for uid and hydrates state from the profile.
func (c *Client) SignIn(ctx context.Context, uid string) {
	c.session.SignIn(ctx, uid)
}

// SignOut ends the session and resets all local state.
func (c *Client) SignOut() {
	c.session.SignOut()
}

// AuthenticateProvider signs in to the backup provider.
func (c *Client) AuthenticateProvider(ctx context.Context) error {
	return c.provider.Authenticate(ctx)
}

// SignOutProvider signs out of the backup provider.
func (c *Client) SignOutProvider(ctx context.Context) error {
	return c.provider.SignOut(ctx)
}

// ProviderState returns the last reported provider readiness.
func (c *Client) ProviderState() ProviderState {
	return c.engine.ProviderState()
}

// BackupNow uploads a snapshot immediately, independent of the debounce
// timer.
func (c *Client) BackupNow(ctx context.Context) error {
	return c.engine.Backup(ctx)
}

// RestoreLatest downloads and reconciles the latest backup, returning the
// restored snapshot. confirm is consulted before anything is replaced; see
// SyncEngine.Restore.
func (c *Client) RestoreLatest(ctx context.Context, confirm func(BackupSnapshot) bool) (*BackupSnapshot, error) {
	return c.engine.Restore(ctx, confirm)
}

// Ask forwards a support question to the help assistant. Stateless; the
// assistant keeps no conversation memory.
func (c *Client) Ask(ctx context.Context, prompt string) (string, error) {
	return c.assistant.Ask(ctx, prompt)
}

// Close tears the client down. Any pending automatic backup is cancelled so
// it can never fire against a dead session.
func (c *Client) Close() error {
	c.engine.Close()
	return c.debug.Close()
}
