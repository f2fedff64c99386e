package kg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/kgviz/pkg/errors"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations"
)

// fakeBackend routes /api/kg requests to canned responses and counts them.
type fakeBackend struct {
	*httptest.Server
	router *chi.Mux
	calls  atomic.Int32
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{router: chi.NewRouter()}
	fb.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fb.calls.Add(1)
			next.ServeHTTP(w, r)
		})
	})
	fb.Server = httptest.NewServer(fb.router)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) client() *Client {
	return NewClient(fb.URL, integrations.Options{})
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestFetchGraph(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/data", reply(`{"ret":0,"data":{"nodes":[{"id":"a","name":"Alice","type":"人物"}],"links":[]}}`))

	g, err := fb.client().FetchGraph(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatalf("FetchGraph() error = %v", err)
	}
	want := graph.Graph{
		Nodes: []graph.Entity{{ID: "a", Name: "Alice", Type: "人物"}},
		Links: []graph.Relationship{},
	}
	if !graph.Equal(g, want) {
		t.Errorf("FetchGraph() = %+v, want %+v", g, want)
	}
}

func TestFetchGraphNumericRelationshipIDs(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/data", reply(`{"ret":0,"data":{
		"nodes":[{"id":"a","name":"A","type":"x"},{"id":"b","name":"B","type":"x"}],
		"links":[{"id":12,"source":"a","target":"b","type":"knows","description":""}]}}`))

	g, err := fb.client().FetchGraph(context.Background(), FetchOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Links[0].ID.String(); got != "12" {
		t.Errorf("relationship id = %q, want 12", got)
	}
}

func TestFetchGraphDomain(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/data", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("domain"); got != "history" {
			t.Errorf("domain = %q", got)
		}
		w.Write([]byte(`{"ret":0,"data":{"nodes":[],"links":[]}}`))
	})

	if _, err := fb.client().FetchGraph(context.Background(), FetchOptions{Domain: "history"}); err != nil {
		t.Fatal(err)
	}
}

func TestFetchGraphErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		code    errors.Code
		message string
	}{
		{"application error keeps msg", http.StatusOK, `{"ret":1,"msg":"Finding data failed"}`, errors.ErrCodeApplication, "Finding data failed"},
		{"server error", http.StatusInternalServerError, `oops`, errors.ErrCodeTransport, ""},
		{"malformed", http.StatusOK, `{"ret":0,"data":`, errors.ErrCodeTransport, ""},
		{"wrong data shape", http.StatusOK, `{"ret":0,"data":[1,2]}`, errors.ErrCodeTransport, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.router.Get("/api/kg/data", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := fb.client().FetchGraph(context.Background(), FetchOptions{})
			if !errors.Is(err, tt.code) {
				t.Fatalf("FetchGraph() error = %v, want %s", err, tt.code)
			}
			if tt.message != "" && errors.UserMessage(err) != tt.message {
				t.Errorf("message = %q, want %q", errors.UserMessage(err), tt.message)
			}
		})
	}
}

func TestCreateEntityValidation(t *testing.T) {
	tests := []struct {
		name   string
		entity NewEntity
	}{
		{"empty id", NewEntity{ID: "", Name: "x"}},
		{"empty name", NewEntity{ID: "id", Name: ""}},
		{"blank id", NewEntity{ID: "   ", Name: "x"}},
		{"slash in id", NewEntity{ID: "a/b", Name: "x"}},
		{"cjk id over 100 characters", NewEntity{ID: strings.Repeat("李", 101), Name: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.router.Post("/api/kg/entities", reply(`{"ret":0}`))

			err := fb.client().CreateEntity(context.Background(), tt.entity)
			if !errors.Validation(err) {
				t.Fatalf("CreateEntity() error = %v, want validation error", err)
			}
			if n := fb.calls.Load(); n != 0 {
				t.Errorf("backend saw %d requests, want 0", n)
			}
		})
	}
}

func TestCreateEntity(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/entities", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["id"] != "libai" || body["name"] != "李白" || body["type"] != "人物" {
			t.Errorf("body = %v", body)
		}
		if _, ok := body["description"]; ok {
			t.Error("empty description should be omitted")
		}
		w.Write([]byte(`{"ret":0,"msg":"created"}`))
	})

	err := fb.client().CreateEntity(context.Background(), NewEntity{ID: "libai", Name: "李白", Type: "人物"})
	if err != nil {
		t.Fatalf("CreateEntity() error = %v", err)
	}
}

func TestCreateEntityDuplicate(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/entities", reply(`{"ret":1,"msg":"UNIQUE constraint failed"}`))

	err := fb.client().CreateEntity(context.Background(), NewEntity{ID: "a", Name: "A"})
	if !errors.Application(err) {
		t.Fatalf("CreateEntity() error = %v, want application error", err)
	}
}

func TestUpdateEntityPassesPayloadVerbatim(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Put("/api/kg/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "id"); id != "a" {
			t.Errorf("id = %q", id)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["name"] != "Alicia" || body["extra"] != float64(3) {
			t.Errorf("body = %v", body)
		}
		w.Write([]byte(`{"ret":0,"msg":"updated"}`))
	})

	ok := fb.client().UpdateEntity(context.Background(), "a", map[string]any{"name": "Alicia", "extra": 3})
	if !ok {
		t.Fatal("UpdateEntity() = false")
	}
}

func TestDeleteEntity(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Delete("/api/kg/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "missing" {
			w.Write([]byte(`{"ret":1,"msg":"entity not found"}`))
			return
		}
		w.Write([]byte(`{"ret":0,"msg":"deleted","deleted_relationships":2}`))
	})

	c := fb.client()
	if !c.DeleteEntity(context.Background(), "a") {
		t.Error("DeleteEntity(a) = false")
	}
	if c.DeleteEntity(context.Background(), "missing") {
		t.Error("DeleteEntity(missing) = true")
	}
	if c.DeleteEntity(context.Background(), "") {
		t.Error("DeleteEntity(\"\") = true")
	}
	if n := fb.calls.Load(); n != 2 {
		t.Errorf("backend saw %d requests, want 2", n)
	}
}

func TestLongCJKIDsReachBackend(t *testing.T) {
	// 40 characters, 120 bytes: within the backend's 100-character column.
	id := strings.Repeat("李", 40)

	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/entities", reply(`{"ret":0}`))
	fb.router.Put("/api/kg/entities/{id}", reply(`{"ret":0}`))
	fb.router.Delete("/api/kg/entities/{id}", reply(`{"ret":0}`))

	ctx := context.Background()
	c := fb.client()
	if err := c.CreateEntity(ctx, NewEntity{ID: id, Name: "李白"}); err != nil {
		t.Errorf("CreateEntity() error = %v", err)
	}
	if !c.UpdateEntity(ctx, id, map[string]any{"name": "李太白"}) {
		t.Error("UpdateEntity() = false")
	}
	if !c.DeleteEntity(ctx, id) {
		t.Error("DeleteEntity() = false")
	}
	if n := fb.calls.Load(); n != 3 {
		t.Errorf("backend saw %d requests, want 3", n)
	}
}

func TestCreateRelationship(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Created
		err  errors.Code
	}{
		{"string id", `{"ret":0,"data":{"id":"r1"}}`, Created{OK: true, ID: "r1"}, ""},
		{"numeric id", `{"ret":0,"msg":"created","data":{"id":42}}`, Created{OK: true, ID: "42"}, ""},
		{"rejected", `{"ret":1}`, Created{}, errors.ErrCodeApplication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.router.Post("/api/kg/relationships", func(w http.ResponseWriter, r *http.Request) {
				var body NewRelationship
				json.NewDecoder(r.Body).Decode(&body)
				if body.Source != "a" || body.Target != "b" || body.Type != "knows" {
					t.Errorf("body = %+v", body)
				}
				w.Write([]byte(tt.body))
			})

			got, err := fb.client().CreateRelationship(context.Background(),
				NewRelationship{Source: "a", Target: "b", Type: "knows"})
			if got != tt.want {
				t.Errorf("CreateRelationship() = %+v, want %+v", got, tt.want)
			}
			if tt.err == "" && err != nil {
				t.Errorf("unexpected error %v", err)
			}
			if tt.err != "" && !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %s", err, tt.err)
			}
		})
	}
}

func TestCreateRelationshipValidation(t *testing.T) {
	tests := []NewRelationship{
		{Source: "", Target: "b", Type: "t"},
		{Source: "a", Target: "", Type: "t"},
		{Source: "a", Target: "b", Type: " "},
		{Source: "a", Target: "a", Type: "t"},
	}
	for _, rel := range tests {
		fb := newFakeBackend(t)
		got, err := fb.client().CreateRelationship(context.Background(), rel)
		if !errors.Validation(err) || got.OK {
			t.Errorf("CreateRelationship(%+v) = %+v, %v; want validation error", rel, got, err)
		}
		if n := fb.calls.Load(); n != 0 {
			t.Errorf("backend saw %d requests, want 0", n)
		}
	}
}

func TestRelationshipUpdateDelete(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Put("/api/kg/relationships/{id}", reply(`{"ret":0,"msg":"updated"}`))
	fb.router.Delete("/api/kg/relationships/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "7" {
			t.Errorf("id = %q", chi.URLParam(r, "id"))
		}
		w.Write([]byte(`{"ret":0,"msg":"deleted"}`))
	})

	c := fb.client()
	if !c.UpdateRelationship(context.Background(), "7", map[string]any{"type": "likes"}) {
		t.Error("UpdateRelationship() = false")
	}
	if !c.DeleteRelationship(context.Background(), "7") {
		t.Error("DeleteRelationship() = false")
	}
}

func TestBoolOpsTransportFailure(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Delete("/api/kg/relationships/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if fb.client().DeleteRelationship(context.Background(), "1") {
		t.Error("DeleteRelationship() = true on 502")
	}
}

func TestListEntities(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/entities", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "li" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		w.Write([]byte(`{"ret":0,"data":[{"id":"libai","name":"李白","type":"人物","description":"","domain":"poetry"}]}`))
	})

	got, err := fb.client().ListEntities(context.Background(), "li")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "libai" || got[0].Domain != "poetry" {
		t.Errorf("ListEntities() = %+v", got)
	}
}

func TestExportRemote(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/export", reply(`{"ret":0,"data":{"nodes":[],"links":[]},"domain":"all"}`))

	g, err := fb.client().ExportRemote(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if g.Nodes == nil || g.Links == nil {
		t.Error("ExportRemote() should return non-nil slices")
	}
}

func TestImportRemote(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/import", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["strategy"] != "merge" || body["conflict_resolution"] != "skip" {
			t.Errorf("body = %v", body)
		}
		if nodes, _ := body["nodes"].([]any); len(nodes) != 1 {
			t.Errorf("nodes = %v", body["nodes"])
		}
		w.Write([]byte(`{"ret":0,"msg":"import completed","data":{
			"import_stats":{"entities":{"created":1,"updated":0,"skipped":0,"conflicts":0,"errors":0},
			"relationships":{"created":0,"skipped":0,"errors":0},"conflicts":[]},
			"entity_id_mapping":{},"domain":"default","strategy":"merge","conflict_resolution":"skip"}}`))
	})

	g := graph.Graph{Nodes: []graph.Entity{{ID: "a", Name: "A"}}}
	report, err := fb.client().ImportRemote(context.Background(), g,
		ImportOptions{Strategy: StrategyMerge, ConflictResolution: ResolveSkip})
	if err != nil {
		t.Fatal(err)
	}
	if report.Stats.Entities.Created != 1 || report.Strategy != "merge" {
		t.Errorf("report = %+v", report)
	}
}

func TestImportRemoteRejectsUnknownStrategy(t *testing.T) {
	fb := newFakeBackend(t)
	_, err := fb.client().ImportRemote(context.Background(), graph.Empty(), ImportOptions{Strategy: "overwrite"})
	if !errors.Validation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if fb.calls.Load() != 0 {
		t.Error("request sent despite invalid options")
	}
}

func TestClearAll(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/clear-all", reply(`{"ret":0,"success":true,"message":"数据已清空",
		"backup_data":{"nodes":[{"id":"a","name":"A","description":"","domain":"default"}],"links":[]},
		"deleted_count":{"entities":1,"relationships":0}}`))

	backup, err := fb.client().ClearAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(backup.Nodes) != 1 || backup.Nodes[0].ID != "a" {
		t.Errorf("backup = %+v", backup)
	}
}

func TestGetEntity(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/entities/{id}", func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "id"); id != "libai" {
			w.Write([]byte(`{"ret":1,"msg":"entity not found"}`))
			return
		}
		w.Write([]byte(`{"ret":0,"data":{"id":"libai","name":"李白","type":"人物","description":"诗仙","domain":"poetry"}}`))
	})

	e, err := fb.client().GetEntity(context.Background(), "libai")
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "李白" || e.Domain != "poetry" {
		t.Errorf("GetEntity() = %+v", e)
	}

	_, err = fb.client().GetEntity(context.Background(), "dufu")
	if !errors.Application(err) || errors.UserMessage(err) != "entity not found" {
		t.Errorf("missing entity error = %v", err)
	}

	before := fb.calls.Load()
	if _, err := fb.client().GetEntity(context.Background(), " "); !errors.Validation(err) {
		t.Errorf("blank id error = %v, want validation error", err)
	}
	if fb.calls.Load() != before {
		t.Error("request sent for blank id")
	}
}

func TestGetRelationship(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/relationships/{id}", reply(`{"ret":0,"data":{"id":12,"source":"libai","target":"dufu","type":"朋友","description":"","domain":"poetry"}}`))

	r, err := fb.client().GetRelationship(context.Background(), "12")
	if err != nil {
		t.Fatal(err)
	}
	if r.ID.String() != "12" || r.Source != "libai" || r.Target != "dufu" {
		t.Errorf("GetRelationship() = %+v", r)
	}
}

func TestListRelationships(t *testing.T) {
	tests := []struct {
		name   string
		filter RelationshipFilter
		want   string
	}{
		{"all", RelationshipFilter{}, ""},
		{"by source", RelationshipFilter{Source: "libai"}, "source=libai"},
		{"every field", RelationshipFilter{Source: "libai", Target: "dufu", Type: "朋友"}, "source=libai&target=dufu&type=%E6%9C%8B%E5%8F%8B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.router.Get("/api/kg/relationships", func(w http.ResponseWriter, r *http.Request) {
				if r.URL.RawQuery != tt.want {
					t.Errorf("query = %q, want %q", r.URL.RawQuery, tt.want)
				}
				w.Write([]byte(`{"ret":0,"data":[{"id":3,"source":"libai","target":"dufu","type":"朋友","description":"","domain":"default"}]}`))
			})

			got, err := fb.client().ListRelationships(context.Background(), tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1 || got[0].ID.String() != "3" {
				t.Errorf("ListRelationships() = %+v", got)
			}
		})
	}
}

func TestListRelationshipsEmpty(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Get("/api/kg/relationships", reply(`{"ret":0,"data":[]}`))

	got, err := fb.client().ListRelationships(context.Background(), RelationshipFilter{Type: "敌人"})
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListRelationships() = %#v, want empty slice", got)
	}
}

func TestSaveData(t *testing.T) {
	tests := []struct {
		name       string
		domain     string
		wantDomain string
	}{
		{"whole graph", "", "all"},
		{"one domain", "poetry", "poetry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := newFakeBackend(t)
			fb.router.Post("/api/kg/save-data", func(w http.ResponseWriter, r *http.Request) {
				var body struct {
					Nodes         []map[string]any `json:"nodes"`
					Links         []map[string]any `json:"links"`
					CurrentDomain string           `json:"currentDomain"`
				}
				json.NewDecoder(r.Body).Decode(&body)
				if body.CurrentDomain != tt.wantDomain {
					t.Errorf("currentDomain = %q, want %q", body.CurrentDomain, tt.wantDomain)
				}
				if len(body.Nodes) != 2 || body.Links == nil {
					t.Errorf("body = %+v", body)
				}
				w.Write([]byte(`{"ret":0,"msg":"数据保存成功","data":{"saved_entities":2,"saved_relationships":1}}`))
			})

			g := graph.Graph{
				Nodes: []graph.Entity{{ID: "libai", Name: "李白"}, {ID: "dufu", Name: "杜甫"}},
				Links: []graph.Relationship{{Source: "libai", Target: "dufu", Type: "朋友"}},
			}
			res, err := fb.client().SaveData(context.Background(), g, tt.domain)
			if err != nil {
				t.Fatal(err)
			}
			if res != (SaveResult{SavedEntities: 2, SavedRelationships: 1}) {
				t.Errorf("SaveData() = %+v", res)
			}
		})
	}
}

func TestChat(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/ai-chat", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["message"] != "李白是谁" || body["currentDomain"] != "all" || body["useExternalAI"] != false {
			t.Errorf("body = %v", body)
		}
		node, _ := body["selectedNode"].(map[string]any)
		if node["id"] != "libai" {
			t.Errorf("selectedNode = %v", body["selectedNode"])
		}
		if body["selectedLink"] != nil {
			t.Errorf("selectedLink = %v, want null", body["selectedLink"])
		}
		w.Write([]byte(`{"ret":0,"response":"李白是唐代诗人。"}`))
	})

	answer, err := fb.client().Chat(context.Background(), ChatRequest{
		Message:      "李白是谁",
		GraphData:    graph.Empty(),
		SelectedNode: &graph.Entity{ID: "libai", Name: "李白"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if answer != "李白是唐代诗人。" {
		t.Errorf("Chat() = %q", answer)
	}
}

func TestChatErrors(t *testing.T) {
	fb := newFakeBackend(t)
	fb.router.Post("/api/kg/ai-chat", reply(`{"ret":1,"msg":"AI聊天失败: timeout"}`))
	client := fb.client()

	if _, err := client.Chat(context.Background(), ChatRequest{Message: "  "}); !errors.Validation(err) {
		t.Errorf("blank message error = %v, want validation error", err)
	}
	if fb.calls.Load() != 0 {
		t.Error("request sent for blank message")
	}

	_, err := client.Chat(context.Background(), ChatRequest{Message: "hi"})
	if !errors.Application(err) || errors.UserMessage(err) != "AI聊天失败: timeout" {
		t.Errorf("Chat() error = %v", err)
	}
}
