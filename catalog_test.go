package multipal

import "testing"

func TestBuiltinCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	apps := catalog.Apps()
	if len(apps) != 7 {
		t.Fatalf("expected 7 builtin apps, got %d", len(apps))
	}

	app, ok := catalog.Lookup("com.finance.securebank")
	if !ok {
		t.Fatal("expected SecureBank in catalog")
	}
	if !app.Sensitive {
		t.Error("expected SecureBank flagged sensitive")
	}

	if _, ok := catalog.Lookup("com.ghost.app"); ok {
		t.Error("expected unknown package to miss")
	}
}

func TestStaticCatalogDeduplicates(t *testing.T) {
	catalog := NewStaticCatalog([]AppInfo{
		{Name: "A", PackageName: "com.a"},
		{Name: "A dup", PackageName: "com.a"},
		{Name: "B", PackageName: "com.b"},
	})

	if got := len(catalog.Apps()); got != 2 {
		t.Fatalf("expected duplicates dropped, got %d entries", got)
	}
	app, _ := catalog.Lookup("com.a")
	if app.Name != "A" {
		t.Errorf("expected first entry to win, got %q", app.Name)
	}
}
