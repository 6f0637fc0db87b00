package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/routesim/routesim/sim"
	"github.com/routesim/routesim/sim/topo"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	desc, err := topo.Ring(4)
	if err != nil {
		t.Fatalf("Ring failed: %v", err)
	}
	d, err := sim.NewDriver(sim.Config{Protocol: sim.ProtocolDV, Horizon: 300, Seed: 42}, desc)
	if err != nil {
		t.Fatalf("NewDriver failed: %v", err)
	}
	s := New(d)
	mux := http.NewServeMux()
	s.Routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return s, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s response: %v", url, err)
		}
	}
	return resp
}

func TestServer_Snapshot(t *testing.T) {
	s, ts := newTestServer(t)
	s.driver.Run()

	var snap sim.Snapshot
	resp := getJSON(t, ts.URL+"/snapshot", &snap)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /snapshot = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if len(snap.Nodes) != 4 || len(snap.Links) != 4 {
		t.Errorf("snapshot has %d nodes and %d links, want 4 and 4", len(snap.Nodes), len(snap.Links))
	}
	if snap.Protocol != sim.ProtocolDV {
		t.Errorf("snapshot protocol = %q", snap.Protocol)
	}
}

func TestServer_LinkControl(t *testing.T) {
	_, ts := newTestServer(t)

	var ok map[string]any
	resp := getJSON(t, ts.URL+"/control/fail?a=A&b=B", &ok)
	if resp.StatusCode != http.StatusOK || ok["ok"] != true {
		t.Errorf("fail A--B = %d %v", resp.StatusCode, ok)
	}
	if resp := getJSON(t, ts.URL+"/control/restore?a=A&b=B", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("restore A--B = %d", resp.StatusCode)
	}

	// absent link and missing parameters are client errors
	if resp := getJSON(t, ts.URL+"/control/fail?a=A&b=C", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("fail on absent link = %d, want 400", resp.StatusCode)
	}
	if resp := getJSON(t, ts.URL+"/control/fail?a=A", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("fail without b = %d, want 400", resp.StatusCode)
	}
}

func TestServer_PauseResumeSpeed(t *testing.T) {
	s, ts := newTestServer(t)

	getJSON(t, ts.URL+"/control/pause", nil)
	if !s.driver.Paused() {
		t.Error("pause endpoint did not pause the driver")
	}
	getJSON(t, ts.URL+"/control/resume", nil)
	if s.driver.Paused() {
		t.Error("resume endpoint did not resume the driver")
	}

	if resp := getJSON(t, ts.URL+"/control/speed?factor=4", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("speed factor=4 = %d", resp.StatusCode)
	}
	if got := s.driver.Speed(); got != 4 {
		t.Errorf("driver speed = %v, want 4", got)
	}
	if resp := getJSON(t, ts.URL+"/control/speed?factor=-1", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("speed factor=-1 = %d, want 400", resp.StatusCode)
	}
	if resp := getJSON(t, ts.URL+"/control/speed?factor=fast", nil); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("speed factor=fast = %d, want 400", resp.StatusCode)
	}
}

func TestServer_WebsocketPushesSnapshots(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap sim.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("websocket read failed: %v", err)
	}
	if len(snap.Nodes) != 4 {
		t.Errorf("pushed snapshot has %d nodes, want 4", len(snap.Nodes))
	}
}

func TestServer_RunLoopFinishes(t *testing.T) {
	s, _ := newTestServer(t)
	if err := s.driver.SetSpeed(1000); err != nil {
		t.Fatalf("SetSpeed failed: %v", err)
	}
	go s.runLoop()

	select {
	case <-s.Done():
	case <-time.After(30 * time.Second):
		t.Fatal("run loop did not finish")
	}
	if !s.driver.Converged() {
		t.Error("simulation ended without converging")
	}
}
