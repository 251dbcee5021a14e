package multipal

// Catalog is the external, read-only list of clonable app templates. The
// core never treats catalog data as authoritative for persistence; instances
// reference entries by package name and are re-joined at read time.
type Catalog interface {
	// Lookup returns the catalog entry for a package name.
	Lookup(packageName string) (AppInfo, bool)

	// Apps returns all catalog entries in display order.
	Apps() []AppInfo
}

// StaticCatalog is an in-memory Catalog built from a fixed list.
type StaticCatalog struct {
	apps  []AppInfo
	index map[string]AppInfo
}

// NewStaticCatalog builds a catalog from the given entries. Later entries
// with a duplicate package name are ignored.
func NewStaticCatalog(apps []AppInfo) *StaticCatalog {
	c := &StaticCatalog{index: make(map[string]AppInfo, len(apps))}
	for _, app := range apps {
		if _, ok := c.index[app.PackageName]; ok {
			continue
		}
		c.apps = append(c.apps, app)
		c.index[app.PackageName] = app
	}
	return c
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(packageName string) (AppInfo, bool) {
	app, ok := c.index[packageName]
	return app, ok
}

// Apps implements Catalog.
func (c *StaticCatalog) Apps() []AppInfo {
	out := make([]AppInfo, len(c.apps))
	copy(out, c.apps)
	return out
}

// BuiltinApps returns the stock app catalog bundled with the client.
func BuiltinApps() []AppInfo {
	return []AppInfo{
		{Name: "SocialApp", PackageName: "com.social.app", Icon: "message-square", Size: "128 MB"},
		{Name: "PhotoSnap", PackageName: "com.camera.photosnap", Icon: "camera", Size: "256 MB"},
		{Name: "StreamTube", PackageName: "com.video.streamtube", Icon: "youtube", Size: "150 MB"},
		{Name: "Chirper", PackageName: "com.microblog.chirper", Icon: "twitter", Size: "98 MB"},
		{Name: "PixelQuest", PackageName: "com.game.pixelquest", Icon: "gamepad-2", Size: "512 MB"},
		{Name: "SecureBank", PackageName: "com.finance.securebank", Icon: "banknote", Size: "110 MB", Sensitive: true},
		{Name: "SafeAuth", PackageName: "com.security.safeauth", Icon: "shield", Size: "50 MB", Sensitive: true},
	}
}

// DefaultCatalog returns a catalog of the builtin apps.
func DefaultCatalog() *StaticCatalog {
	return NewStaticCatalog(BuiltinApps())
}
