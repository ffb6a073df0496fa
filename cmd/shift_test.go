package cmd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/operator"
	"github.com/maprix/maprix/internal/store"
)

// fleetServer is a minimal backend recording every capture it receives.
type fleetServer struct {
	mu        sync.Mutex
	assets    []models.Asset
	questions []models.ChecklistQuestion
	received  []models.PendingReport
	batches   []string
}

func (f *fleetServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /api/ativos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.assets)
	})
	mux.HandleFunc("GET /api/checklist/config/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.questions)
	})
	mux.HandleFunc("POST /api/registrar", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if strings.HasPrefix(strings.TrimSpace(string(body)), "[") {
			var reports []models.PendingReport
			json.Unmarshal(body, &reports)
			f.received = append(f.received, reports...)
			f.batches = append(f.batches, r.Header.Get("Idempotency-Key"))
			json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "inseridos": len(reports)})
			return
		}
		var report models.PendingReport
		json.Unmarshal(body, &report)
		f.received = append(f.received, report)
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

type shiftEnv struct {
	t      *testing.T
	dir    string
	server *httptest.Server
	fleet  *fleetServer
}

func newShiftEnv(t *testing.T) *shiftEnv {
	t.Helper()
	t.Setenv("MAPRIX_CONFIG_DIR", t.TempDir())
	t.Setenv("MAPRIX_DIR", "")
	t.Setenv("MAPRIX_OFFLINE", "")
	fleet := &fleetServer{assets: []models.Asset{{ID: 1, Name: "TR-01"}}}
	srv := httptest.NewServer(fleet.handler())
	t.Cleanup(srv.Close)
	return &shiftEnv{t: t, dir: t.TempDir(), server: srv, fleet: fleet}
}

// run executes one CLI invocation against the env's store and server.
func (e *shiftEnv) run(offline bool, args ...string) error {
	e.t.Helper()
	off := "--offline=false"
	if offline {
		off = "--offline=true"
	}
	full := append(args, "--work-dir="+e.dir, "--server="+e.server.URL, off, "--json=true")
	rootCmd.SetArgs(full)
	_, err := rootCmd.ExecuteC()
	return err
}

func (e *shiftEnv) openStore() *store.Store {
	e.t.Helper()
	st, err := store.Open(e.dir)
	if err != nil {
		e.t.Fatalf("open store: %v", err)
	}
	e.t.Cleanup(func() { st.Close() })
	return st
}

func TestShiftCaptureOfflineThenSync(t *testing.T) {
	env := newShiftEnv(t)

	if err := env.run(false, "login", "tr-01", "Ana", "--no-register"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.run(true, "capture", "--lat=-23.5", "--lon=-46.6", "-o", "abastecido"); err != nil {
		t.Fatalf("offline capture: %v", err)
	}
	if err := env.run(true, "capture", "--lat=-23.6", "--lon=-46.7", "-o", ""); err != nil {
		t.Fatalf("offline capture: %v", err)
	}
	if n := len(env.fleet.received); n != 0 {
		t.Fatalf("server received %d captures while offline", n)
	}

	st := env.openStore()
	if n, _ := st.Count(); n != 2 {
		t.Fatalf("queued = %d, want 2", n)
	}
	st.Close()

	if err := env.run(false, "sync"); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(env.fleet.received) != 2 || len(env.fleet.batches) != 1 {
		t.Fatalf("received %d captures in %d batches", len(env.fleet.received), len(env.fleet.batches))
	}
	if env.fleet.batches[0] == "" {
		t.Error("bulk sync should carry an idempotency key")
	}
	if got := env.fleet.received[0]; got.Equipment != "tr-01" || got.Operator != "Ana" || got.Observation != "abastecido" {
		t.Errorf("first capture = %+v", got)
	}

	st = env.openStore()
	if n, _ := st.Count(); n != 0 {
		t.Errorf("queue should be empty after sync, got %d", n)
	}
}

func TestCaptureOnlineDelivers(t *testing.T) {
	env := newShiftEnv(t)

	if err := env.run(false, "login", "TR-01", "Ana", "--no-register"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.run(false, "capture", "--lat=1", "--lon=2", "-o", ""); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(env.fleet.received) != 1 {
		t.Fatalf("received %d captures, want 1", len(env.fleet.received))
	}
}

func TestCaptureWithoutShift(t *testing.T) {
	env := newShiftEnv(t)
	err := env.run(false, "capture", "--lat=1", "--lon=2", "-o", "")
	if !errors.Is(err, operator.ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestCaptureBlockedWithoutAnswers(t *testing.T) {
	env := newShiftEnv(t)
	typeID := int64(3)
	env.fleet.assets = []models.Asset{{ID: 1, Name: "TR-01", TypeID: &typeID}}
	env.fleet.questions = []models.ChecklistQuestion{{ID: 9, Text: "Pneus calibrados?"}}

	if err := env.run(false, "login", "TR-01", "Ana", "--no-register"); err != nil {
		t.Fatalf("login: %v", err)
	}
	err := env.run(false, "capture", "--lat=1", "--lon=2", "-o", "", "--answers=")
	if !errors.Is(err, gate.ErrBlocked) {
		t.Fatalf("err = %v, want blocked", err)
	}
	if len(env.fleet.received) != 0 {
		t.Error("blocked capture must not reach the server")
	}
}

func TestLogoutKeepsQueue(t *testing.T) {
	env := newShiftEnv(t)

	if err := env.run(false, "login", "TR-01", "Ana", "--no-register"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.run(true, "capture", "--lat=1", "--lon=2", "-o", ""); err != nil {
		t.Fatalf("capture: %v", err)
	}
	if err := env.run(false, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}

	st := env.openStore()
	sess, err := st.GetSession()
	if err != nil {
		t.Fatal(err)
	}
	if sess != nil {
		t.Errorf("session should be cleared, got %+v", sess)
	}
	if n, _ := st.Count(); n != 1 {
		t.Errorf("queued = %d, want 1", n)
	}
}

func TestStatusMarkdown(t *testing.T) {
	st := &operator.Status{
		Session:   &models.Session{Equipment: "TR-01", Operator: "Ana"},
		Online:    false,
		Pending:   1,
		Gate:      gate.Pending,
		Questions: 2,
	}
	pending := []models.PendingReport{{Equipment: "TR-01", Latitude: 1, Longitude: 2, Timestamp: "2024-01-01T00:00:00Z", Observation: "ok"}}
	md := statusMarkdown(st, pending)
	for _, want := range []string{"**Equipment:** TR-01", "pending (2 questions)", "**Connection:** offline", "## Queue", "1. TR-01 1.000000,2.000000 at 2024-01-01T00:00:00Z - ok"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	md = statusMarkdown(&operator.Status{Online: true}, nil)
	if !strings.Contains(md, "No active shift") {
		t.Errorf("markdown without session:\n%s", md)
	}
}

func TestFindType(t *testing.T) {
	types := []models.AssetType{{ID: 1, Name: "Trator"}, {ID: 2, Name: "Gerador"}}
	if got, ok := findType(types, "2"); !ok || got.Name != "Gerador" {
		t.Errorf("by id = %+v, %v", got, ok)
	}
	if got, ok := findType(types, " trator "); !ok || got.ID != 1 {
		t.Errorf("by name = %+v, %v", got, ok)
	}
	if _, ok := findType(types, "9"); ok {
		t.Error("unknown id should not match")
	}
}
