package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsDevelopmentVersion(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"", true},
		{"unknown", true},
		{"dev", true},
		{"devel", true},
		{"devel+abc123", true},
		{"devel+abc+dirty", true},
		{"v0.1.0", false},
		{"1.0.0-beta", false},
		{"develop", false},
		{"DEV", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsDevelopmentVersion(tt.input); got != tt.expected {
				t.Errorf("IsDevelopmentVersion(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUpdateCommand(t *testing.T) {
	want := `go install -ldflags "-X main.Version=v1.2.3" github.com/maprix/maprix@v1.2.3 github.com/maprix/maprix/cmd/maprix-server@v1.2.3`
	if got := UpdateCommand("v1.2.3"); got != want {
		t.Errorf("UpdateCommand = %q", got)
	}
	for _, bad := range []string{"", "invalid", "v1.2.3; rm -rf /", "v1.2.3--", "v1.2"} {
		if got := UpdateCommand(bad); got != "" {
			t.Errorf("UpdateCommand(%q) = %q, want empty", bad, got)
		}
	}
}

func releaseServer(t *testing.T, status int, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	old := ReleaseURL
	ReleaseURL = srv.URL
	t.Cleanup(func() { ReleaseURL = old })
}

func TestCheck(t *testing.T) {
	releaseServer(t, http.StatusOK, `{"tag_name":"v1.4.0","html_url":"https://example.com/r"}`)

	res := Check(context.Background(), "v1.3.2")
	if res.Error != nil {
		t.Fatalf("Check: %v", res.Error)
	}
	if !res.HasUpdate || res.LatestVersion != "v1.4.0" || res.UpdateURL != "https://example.com/r" {
		t.Errorf("Check = %+v", res)
	}

	if res := Check(context.Background(), "dev"); res.HasUpdate || res.LatestVersion != "" {
		t.Errorf("dev build should skip the check: %+v", res)
	}
}

func TestCheckHTTPError(t *testing.T) {
	releaseServer(t, http.StatusServiceUnavailable, "")
	if res := Check(context.Background(), "v1.0.0"); res.Error == nil {
		t.Error("expected error for non-200 release response")
	}
}

func TestCachedCheck(t *testing.T) {
	t.Setenv("MAPRIX_CONFIG_DIR", t.TempDir())

	calls := 0
	check := func() CheckResult {
		calls++
		return CheckResult{CurrentVersion: "v1.0.0", LatestVersion: "v1.1.0", HasUpdate: true}
	}
	for i := 0; i < 3; i++ {
		res := CachedCheck("v1.0.0", check)
		if !res.HasUpdate || res.LatestVersion != "v1.1.0" {
			t.Fatalf("CachedCheck = %+v", res)
		}
	}
	if calls != 1 {
		t.Errorf("check ran %d times, want 1", calls)
	}

	// a different running version invalidates the entry
	CachedCheck("v1.1.0", check)
	if calls != 2 {
		t.Errorf("check ran %d times after upgrade, want 2", calls)
	}
}

func TestIsCacheValid(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name  string
		entry *CacheEntry
		want  bool
	}{
		{"nil entry", nil, false},
		{"recent", &CacheEntry{CurrentVersion: "v1.0.0", CheckedAt: now}, true},
		{"expired", &CacheEntry{CurrentVersion: "v1.0.0", CheckedAt: now.Add(-7 * time.Hour)}, false},
		{"version mismatch", &CacheEntry{CurrentVersion: "v0.9.0", CheckedAt: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCacheValid(tt.entry, "v1.0.0"); got != tt.want {
				t.Errorf("IsCacheValid = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckAsyncFromCache(t *testing.T) {
	t.Setenv("MAPRIX_CONFIG_DIR", t.TempDir())
	if err := SaveCache(&CacheEntry{LatestVersion: "v2.0.0", CurrentVersion: "v1.0.0", CheckedAt: time.Now(), HasUpdate: true}); err != nil {
		t.Fatal(err)
	}
	msg, ok := CheckAsync("v1.0.0")().(UpdateAvailableMsg)
	if !ok {
		t.Fatal("expected UpdateAvailableMsg")
	}
	if msg.LatestVersion != "v2.0.0" || msg.UpdateCommand == "" {
		t.Errorf("msg = %+v", msg)
	}
	if CheckAsync("dev")() != nil {
		t.Error("dev build should produce no message")
	}
}
