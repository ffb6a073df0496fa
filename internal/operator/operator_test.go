package operator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/gate"
	"github.com/maprix/maprix/internal/geo"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/pipeline"
	"github.com/maprix/maprix/internal/store"
)

// backend is a minimal in-memory server for the operator endpoints.
type backend struct {
	mu         sync.Mutex
	assets     []models.Asset
	questions  map[int64][]models.ChecklistQuestion
	created    []map[string]any
	registered []models.PendingReport
	checklists int
	calls      []string
	failAll    bool
	failSingle bool
}

func (b *backend) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	record := func(r *http.Request) bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls = append(b.calls, r.Method+" "+r.URL.Path)
		return b.failAll
	}
	fail := func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status":"erro","erro":"indisponivel"}`))
	}

	mux.HandleFunc("GET /api/ativos", func(w http.ResponseWriter, r *http.Request) {
		if record(r) {
			fail(w)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.assets)
	})
	mux.HandleFunc("POST /api/ativos", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.created = append(b.created, body)
		b.assets = append(b.assets, models.Asset{ID: int64(len(b.assets) + 1), Name: body["nome"].(string)})
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"sucesso","id":99}`))
	})
	mux.HandleFunc("GET /api/checklist/config/{id}", func(w http.ResponseWriter, r *http.Request) {
		if record(r) {
			fail(w)
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		var qs []models.ChecklistQuestion
		for id, list := range b.questions {
			if r.PathValue("id") == jsonNumber(id) {
				qs = list
			}
		}
		if qs == nil {
			qs = []models.ChecklistQuestion{}
		}
		json.NewEncoder(w).Encode(qs)
	})
	mux.HandleFunc("POST /api/checklist/submit", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		b.mu.Lock()
		b.checklists++
		b.mu.Unlock()
		w.Write([]byte(`{"status":"sucesso"}`))
	})
	mux.HandleFunc("POST /api/registrar", func(w http.ResponseWriter, r *http.Request) {
		if record(r) {
			fail(w)
			return
		}
		var raw json.RawMessage
		json.NewDecoder(r.Body).Decode(&raw)
		b.mu.Lock()
		defer b.mu.Unlock()
		if strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
			var list []models.PendingReport
			json.Unmarshal(raw, &list)
			b.registered = append(b.registered, list...)
		} else {
			if b.failSingle {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			var one models.PendingReport
			json.Unmarshal(raw, &one)
			b.registered = append(b.registered, one)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"sucesso"}`))
	})
	mux.HandleFunc("POST /api/operador/bateria", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["data"] != "2024-08-18" {
			t.Errorf("battery date = %q", body["data"])
		}
		w.Write([]byte(`{"status":"sucesso","novo_status":"ATENCAO","nova_cor":"#ffc107"}`))
	})
	return mux
}

func jsonNumber(n int64) string {
	data, _ := json.Marshal(n)
	return string(data)
}

func (b *backend) callCount(prefix string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type fakePrompter struct {
	answer      bool
	asked       string
	suggestions []string
}

func (p *fakePrompter) ConfirmRegister(ctx context.Context, equipment string, suggestions []string) (bool, error) {
	p.asked = equipment
	p.suggestions = suggestions
	return p.answer, nil
}

func typeID(n int64) *int64 { return &n }

func setup(t *testing.T, b *backend, prompter Prompter) (*Controller, *store.Store) {
	t.Helper()
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	c := New(Options{
		Store:    st,
		API:      apiclient.New(srv.URL),
		Locator:  geo.Fixed{Latitude: -23.5, Longitude: -46.6},
		Prompter: prompter,
	})
	c.now = func() time.Time { return time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC) }
	return c, st
}

func TestStartShiftAutoRegistersUnknownEquipment(t *testing.T) {
	b := &backend{assets: []models.Asset{{ID: 1, Name: "TR-02", TypeID: typeID(5)}}}
	p := &fakePrompter{answer: true}
	c, st := setup(t, b, p)

	res, err := c.StartShift(context.Background(), " TR-01 ", "Ana")
	if err != nil {
		t.Fatalf("StartShift: %v", err)
	}
	if p.asked != "TR-01" {
		t.Errorf("prompted for %q", p.asked)
	}
	if len(p.suggestions) == 0 || p.suggestions[0] != "TR-02" {
		t.Errorf("suggestions = %v", p.suggestions)
	}
	if len(b.created) != 1 {
		t.Fatalf("created %d assets, want 1", len(b.created))
	}
	if v, ok := b.created[0]["tipo_id"]; !ok || v != nil {
		t.Errorf("tipo_id = %v (present=%v), want null", v, ok)
	}
	if !res.Registered || res.Gate != gate.Exempt {
		t.Errorf("result = %+v", res)
	}
	if b.callCount("GET /api/checklist") != 0 {
		t.Error("untyped equipment must not fetch questions")
	}
	sess, _ := st.GetSession()
	if sess == nil || sess.Equipment != "TR-01" || sess.Operator != "Ana" {
		t.Errorf("persisted session = %+v", sess)
	}
}

func TestStartShiftDeclinedRegistration(t *testing.T) {
	b := &backend{}
	c, _ := setup(t, b, &fakePrompter{answer: false})
	res, err := c.StartShift(context.Background(), "GER-9", "Bia")
	if err != nil {
		t.Fatal(err)
	}
	if res.Registered || len(b.created) != 0 {
		t.Error("declined registration must not create an asset")
	}
	if res.Gate != gate.Exempt {
		t.Errorf("gate = %s", res.Gate)
	}
}

func TestStartShiftRequiresIdentity(t *testing.T) {
	c, _ := setup(t, &backend{}, nil)
	for _, in := range [][2]string{{"", "Ana"}, {"TR-01", "  "}} {
		if _, err := c.StartShift(context.Background(), in[0], in[1]); !errors.Is(err, ErrMissingIdentity) {
			t.Errorf("StartShift(%q, %q) err = %v", in[0], in[1], err)
		}
	}
}

func TestStartShiftAssetListFailureFailsClosed(t *testing.T) {
	b := &backend{failAll: true}
	c, st := setup(t, b, nil)
	res, err := c.StartShift(context.Background(), "TR-01", "Ana")
	if err == nil {
		t.Fatal("expected lookup error")
	}
	if res == nil || res.Gate != gate.Pending {
		t.Fatalf("result = %+v", res)
	}
	if sess, _ := st.GetSession(); sess == nil {
		t.Error("session should persist even when the lookup fails")
	}
	if _, err := c.Capture(context.Background(), CaptureRequest{}); !errors.Is(err, gate.ErrBlocked) {
		t.Errorf("capture err = %v, want ErrBlocked", err)
	}
}

func TestChecklistFlow(t *testing.T) {
	b := &backend{
		assets:    []models.Asset{{ID: 1, Name: "TR-01", TypeID: typeID(5)}},
		questions: map[int64][]models.ChecklistQuestion{5: {{ID: 11, Text: "Pneus"}, {ID: 12, Text: "Freios"}}},
	}
	c, _ := setup(t, b, nil)
	ctx := context.Background()

	res, err := c.StartShift(ctx, "tr-01", "Ana")
	if err != nil {
		t.Fatal(err)
	}
	if res.Gate != gate.Pending || len(res.Questions) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if b.callCount("GET /api/ativos") != 1 || b.callCount("GET /api/checklist/config/5") != 1 {
		t.Errorf("calls = %v", b.calls)
	}

	if _, err := c.Capture(ctx, CaptureRequest{}); !errors.Is(err, gate.ErrBlocked) {
		t.Fatalf("capture before checklist: %v", err)
	}

	// Non-conformant without evidence: rejected locally.
	err = c.SubmitChecklist(ctx, []models.ChecklistAnswer{{QuestionID: 12, Conformant: false}})
	var verr *checklist.ValidationError
	if !errors.As(err, &verr) || !verr.Has(12, checklist.MissingObservation) || !verr.Has(12, checklist.MissingPhoto) {
		t.Fatalf("SubmitChecklist err = %v", err)
	}
	if b.callCount("POST /api/checklist/submit") != 0 {
		t.Fatal("invalid checklist reached the network")
	}
	if c.Gate().State() != gate.Pending {
		t.Fatal("gate moved on invalid checklist")
	}

	// An observation alone is not enough evidence.
	err = c.SubmitChecklist(ctx, []models.ChecklistAnswer{{QuestionID: 12, Observation: "gastos"}})
	verr = nil
	if !errors.As(err, &verr) || !verr.Has(12, checklist.MissingPhoto) || verr.Has(12, checklist.MissingObservation) {
		t.Fatalf("SubmitChecklist without photo err = %v", err)
	}
	if b.callCount("POST /api/checklist/submit") != 0 {
		t.Fatal("checklist without photo reached the network")
	}
	if c.Gate().State() != gate.Pending {
		t.Fatal("gate moved on checklist without photo")
	}

	err = c.SubmitChecklist(ctx, []models.ChecklistAnswer{{QuestionID: 12, Observation: "gastos", Photo: []byte("jpg"), PhotoName: "f.jpg"}})
	if err != nil {
		t.Fatalf("SubmitChecklist: %v", err)
	}
	if c.Gate().State() != gate.Satisfied {
		t.Fatalf("gate = %s", c.Gate().State())
	}

	got, err := c.Capture(ctx, CaptureRequest{Observation: " abastecido "})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got.Outcome != pipeline.Delivered || got.Report.Observation != "abastecido" || got.Report.Timestamp != "2026-02-18T12:00:00Z" {
		t.Errorf("capture = %+v", got)
	}
}

func TestCaptureOfflineQueuesThenSync(t *testing.T) {
	b := &backend{}
	c, st := setup(t, b, nil)
	ctx := context.Background()
	if _, err := c.StartShift(ctx, "GER-1", "Bia"); err != nil {
		t.Fatal(err)
	}

	c.Monitor().Set(false)
	for i := 0; i < 3; i++ {
		res, err := c.Capture(ctx, CaptureRequest{Position: &geo.Position{Latitude: float64(i)}})
		if err != nil {
			t.Fatal(err)
		}
		if res.Outcome != pipeline.Queued {
			t.Errorf("capture %d outcome = %s", i, res.Outcome)
		}
	}
	if b.callCount("POST /api/registrar") != 0 {
		t.Fatal("offline capture touched the network")
	}

	st1, _ := c.Status()
	if st1.Pending != 3 || st1.Online {
		t.Errorf("status = %+v", st1)
	}

	c.Monitor().Set(true)
	sr, err := c.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if sr.Sent != 3 || sr.Remaining != 0 {
		t.Errorf("sync = %+v", sr)
	}
	if n, _ := st.Count(); n != 0 {
		t.Errorf("queue = %d after sync", n)
	}
	if len(b.registered) != 3 || b.registered[2].Latitude != 2 {
		t.Errorf("server got %+v", b.registered)
	}
}

func TestCaptureDeliveryFailureQueues(t *testing.T) {
	b := &backend{failSingle: true}
	c, st := setup(t, b, nil)
	ctx := context.Background()
	c.StartShift(ctx, "GER-1", "Bia")

	res, err := c.Capture(ctx, CaptureRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Outcome != pipeline.Queued || res.DeliveryErr == nil {
		t.Errorf("capture = %+v", res)
	}
	if n, _ := st.Count(); n != 1 {
		t.Errorf("queue = %d, want 1", n)
	}
}

func TestCaptureRejectsOutOfRangePosition(t *testing.T) {
	b := &backend{}
	c, st := setup(t, b, nil)
	ctx := context.Background()
	c.StartShift(ctx, "GER-1", "Bia")

	for _, pos := range []geo.Position{{Latitude: 95}, {Latitude: -90.5}, {Longitude: 181}, {Latitude: 10, Longitude: -200}} {
		if _, err := c.Capture(ctx, CaptureRequest{Position: &pos}); !errors.Is(err, geo.ErrOutOfRange) {
			t.Errorf("Capture(%+v) err = %v, want ErrOutOfRange", pos, err)
		}
	}
	c.Monitor().Set(false)
	if _, err := c.Capture(ctx, CaptureRequest{Position: &geo.Position{Latitude: 95}}); !errors.Is(err, geo.ErrOutOfRange) {
		t.Errorf("offline capture err = %v, want ErrOutOfRange", err)
	}
	if n, _ := st.Count(); n != 0 {
		t.Errorf("queue = %d, want 0", n)
	}
	if b.callCount("POST /api/registrar") != 0 {
		t.Error("out-of-range capture reached the network")
	}

	// A valid capture queued afterwards still syncs.
	if _, err := c.Capture(ctx, CaptureRequest{Position: &geo.Position{Latitude: 90, Longitude: -180}}); err != nil {
		t.Fatal(err)
	}
	c.Monitor().Set(true)
	if sr, err := c.Sync(ctx); err != nil || sr.Sent != 1 {
		t.Fatalf("Sync = %+v, %v", sr, err)
	}
}

func TestEndShiftKeepsQueue(t *testing.T) {
	b := &backend{}
	c, st := setup(t, b, nil)
	ctx := context.Background()
	c.StartShift(ctx, "GER-1", "Bia")
	c.Monitor().Set(false)
	c.Capture(ctx, CaptureRequest{})

	if err := c.EndShift(); err != nil {
		t.Fatal(err)
	}
	if c.Session() != nil || c.Gate().State() != gate.Unchecked {
		t.Error("shift state not cleared")
	}
	if n, _ := st.Count(); n != 1 {
		t.Errorf("queue = %d after logout, want 1", n)
	}
	if _, err := c.Capture(ctx, CaptureRequest{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("capture after logout err = %v", err)
	}
}

func TestRestore(t *testing.T) {
	b := &backend{
		assets:    []models.Asset{{ID: 1, Name: "TR-01", TypeID: typeID(5)}},
		questions: map[int64][]models.ChecklistQuestion{5: {{ID: 11, Text: "Pneus"}}},
	}
	c, st := setup(t, b, nil)
	if sess, err := c.Restore(context.Background()); sess != nil || err != nil {
		t.Fatalf("Restore on empty store = %v, %v", sess, err)
	}

	st.SaveSession(models.Session{Equipment: "TR-01", Operator: "Ana"})
	sess, err := c.Restore(context.Background())
	if err != nil || sess == nil {
		t.Fatalf("Restore = %v, %v", sess, err)
	}
	if c.Gate().State() != gate.Pending {
		t.Errorf("gate after restore = %s", c.Gate().State())
	}
}

func TestUpdateBattery(t *testing.T) {
	c, _ := setup(t, &backend{}, nil)
	if _, err := c.UpdateBattery(context.Background(), "2024-01-01"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
	c.StartShift(context.Background(), "GER-1", "Bia")
	resp, err := c.UpdateBattery(context.Background(), "-18m")
	if err != nil {
		t.Fatal(err)
	}
	if resp.NewStatus != "ATENCAO" {
		t.Errorf("resp = %+v", resp)
	}
	if _, err := c.UpdateBattery(context.Background(), "2099-01-01"); err == nil {
		t.Error("future date should be rejected")
	}
}
