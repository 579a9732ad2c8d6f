package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/frame"
	"github.com/matzehuels/flowspace/pkg/physics"
	"github.com/matzehuels/flowspace/pkg/scene"
)

func testScene(t *testing.T) *scene.Scene {
	t.Helper()
	fc, err := flowchart.Build(flowchart.Diagram{
		Name:     "orders",
		Vertices: []flowchart.Vertex{{ID: "cart"}, {ID: "pay"}, {ID: "ship"}},
		Edges: []flowchart.EdgeRecord{
			{Start: "cart", End: "pay"},
			{Start: "pay", End: "ship"},
		},
	}, flowchart.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	sc := scene.New()
	sc.Publish(fc)
	return sc
}

// startServer runs the tick loop and waits for the first frame.
func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(testScene(t), physics.DefaultParams(), Options{FPS: 200})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, ok := srv.Latest(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no frame within 5s")
		}
		time.Sleep(5 * time.Millisecond)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestHealth(t *testing.T) {
	_, ts := startServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got["status"] != "ok" || got["flowcharts"] != float64(1) {
		t.Errorf("health = %v", got)
	}
}

func TestGetFrame(t *testing.T) {
	_, ts := startServer(t)
	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/frame", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	f, err := frame.Unmarshal(body)
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if f.Tick == 0 || len(f.Flowcharts) != 1 || len(f.Flowcharts[0].Nodes) != 3 {
		t.Errorf("frame = tick %d, %d flowcharts", f.Tick, len(f.Flowcharts))
	}
}

func TestNoFrameYet(t *testing.T) {
	srv := New(testScene(t), physics.DefaultParams(), Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/v1/frame", "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestListAndGetFlowchart(t *testing.T) {
	_, ts := startServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var list []Summary
	if err := json.Unmarshal(body, &list); err != nil || len(list) != 1 {
		t.Fatalf("list = %s, %v", body, err)
	}
	if list[0].Name != "orders" || list[0].Nodes != 3 || list[0].Edges != 2 {
		t.Errorf("summary = %+v", list[0])
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/orders", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get by name status = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/"+list[0].ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get by id status = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/nope", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown flowchart status = %d, want 404", resp.StatusCode)
	}
}

func TestIsolate(t *testing.T) {
	srv, ts := startServer(t)
	url := ts.URL + "/api/v1/flowcharts/orders/isolate"

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"isolate", `{"entity":"cart"}`, http.StatusNoContent},
		{"unknown entity", `{"entity":"ghost"}`, http.StatusNotFound},
		{"bad body", `{"entity":`, http.StatusBadRequest},
		{"unknown field", `{"node":"cart"}`, http.StatusBadRequest},
		{"control character", `{"entity":"ca\u0001rt"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, url, tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.status, body)
			}
		})
	}

	// Wait for a frame produced after the isolation.
	deadline := time.Now().Add(5 * time.Second)
	for {
		f, _ := srv.Latest()
		fc := f.Flowcharts[0]
		if fc.Isolated == "cart" {
			visible := map[string]bool{}
			for _, n := range fc.Nodes {
				visible[n.ID] = n.Visible
			}
			if !visible["cart"] || !visible["pay"] || visible["ship"] {
				t.Errorf("visibility after isolate = %v", visible)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("isolation never reached a frame")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, _ := do(t, http.MethodPost, url, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("show all status = %d", resp.StatusCode)
	}
}

func TestRender(t *testing.T) {
	_, ts := startServer(t)

	resp, body := do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/orders/render?format=dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(string(body), `digraph "orders"`) {
		t.Errorf("DOT = %s", body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("Content-Type = %s", ct)
	}

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/v1/flowcharts/orders/render?format=pdf", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("pdf status = %d, want 400", resp.StatusCode)
	}
}

func TestPutView(t *testing.T) {
	_, ts := startServer(t)
	url := ts.URL + "/api/v1/view"

	resp, _ := do(t, http.MethodPut, url, `{"orientation":[0,0.7071,0,0.7071]}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPut, url, `{"orientation":[0,0,0,0]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero quaternion status = %d, want 400", resp.StatusCode)
	}
}

func TestCommandAfterStop(t *testing.T) {
	srv := New(testScene(t), physics.DefaultParams(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = srv.Run(ctx)

	if err := srv.Isolate(context.Background(), "orders", "cart"); err != ErrStopped {
		t.Errorf("Isolate after stop = %v, want ErrStopped", err)
	}
}
