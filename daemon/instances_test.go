package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"skypanel/model"
)

func testNode(srv *httptest.Server) *model.Node {
	u, _ := url.Parse(srv.URL)
	return &model.Node{
		ID:      "node-1",
		Address: u.Hostname(),
		Port:    u.Port(),
		APIKey:  "node-secret",
	}
}

func TestExpandPortsBothProtocols(t *testing.T) {
	exposed := map[string]struct{}{}
	bindings := map[string][]PortBinding{}
	expandPorts("25565:25565", exposed, bindings)

	for _, key := range []string{"25565/tcp", "25565/udp"} {
		if _, ok := exposed[key]; !ok {
			t.Errorf("missing exposed port %s", key)
		}
		b, ok := bindings[key]
		if !ok || len(b) != 1 || b[0].HostPort != "25565" {
			t.Errorf("bindings[%s] = %v", key, b)
		}
	}
}

func TestExpandPortsMultiplePairs(t *testing.T) {
	exposed := map[string]struct{}{}
	bindings := map[string][]PortBinding{}
	expandPorts("8080:80, 9090:90", exposed, bindings)

	if len(exposed) != 4 {
		t.Fatalf("got %d exposed entries, want 4", len(exposed))
	}
	if b := bindings["8080/udp"]; len(b) != 1 || b[0].HostPort != "80" {
		t.Errorf("bindings[8080/udp] = %v", b)
	}
	if b := bindings["9090/tcp"]; len(b) != 1 || b[0].HostPort != "90" {
		t.Errorf("bindings[9090/tcp] = %v", b)
	}
}

func TestExpandPortsMalformedEntrySkipped(t *testing.T) {
	exposed := map[string]struct{}{}
	bindings := map[string][]PortBinding{}
	expandPorts("bogus,8080:80", exposed, bindings)

	if len(exposed) != 2 {
		t.Errorf("got %d exposed entries, want 2", len(exposed))
	}
}

func TestBuildCreateRequestOmitsAbsentSizes(t *testing.T) {
	req := BuildCreateRequest("mc", "abc123", "java:21", "", "garbage", "", nil, nil)

	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]interface{}
	json.Unmarshal(raw, &m)

	if _, ok := m["Memory"]; ok {
		t.Error("Memory should be omitted when absent")
	}
	if _, ok := m["Cpu"]; ok {
		t.Error("Cpu should be omitted when unparseable")
	}
}

func TestBuildCreateRequestWithImageData(t *testing.T) {
	img := &model.Image{
		Name:        "Java 21",
		Image:       "java:21",
		Env:         map[string]string{"EULA": "true"},
		AltImages:   []string{"java:17"},
		StopCommand: "stop",
	}
	req := BuildCreateRequest("mc", "abc123", "java:21", "1024", "2", "25565:25565", nil, img)

	if req.Memory == nil || *req.Memory != 1024 {
		t.Errorf("Memory = %v", req.Memory)
	}
	if req.CPU == nil || *req.CPU != 2 {
		t.Errorf("Cpu = %v", req.CPU)
	}
	if req.StopCommand != "stop" {
		t.Errorf("StopCommand = %q", req.StopCommand)
	}
	if len(req.AltImages) != 1 {
		t.Errorf("AltImages = %v", req.AltImages)
	}
	if req.Env["EULA"] != "true" {
		t.Errorf("Env = %v", req.Env)
	}
}

func TestBuildCreateRequestNilImageData(t *testing.T) {
	req := BuildCreateRequest("mc", "abc123", "java:21", "1024", "2", "", nil, nil)

	if req.Env != nil || req.Scripts != nil || req.StopCommand != "" {
		t.Error("optional fields should stay unset without image metadata")
	}
	if req.AltImages == nil || len(req.AltImages) != 0 {
		t.Errorf("AltImages should be an empty list, got %v", req.AltImages)
	}
}

func TestCreateInstanceAuthAndDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != Principal || pass != "node-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/instances/create" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body CreateRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.ID != "abc123" {
			t.Errorf("Id = %q", body.ID)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"containerId": "ctr-9",
			"volumeId":    "abc123",
			"state":       "INSTALLING",
			"Env":         map[string]string{"EULA": "true"},
		})
	}))
	defer srv.Close()

	c := New(nil)
	resp, err := c.CreateInstance(context.Background(), testNode(srv), BuildCreateRequest("mc", "abc123", "java:21", "1024", "2", "25565:25565", nil, nil))
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	if resp.ContainerID != "ctr-9" || resp.VolumeID != "abc123" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.State != "INSTALLING" {
		t.Errorf("State = %q", resp.State)
	}
}

func TestCreateInstanceRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"image not available"}`))
	}))
	defer srv.Close()

	c := New(nil)
	_, err := c.CreateInstance(context.Background(), testNode(srv), CreateRequest{})

	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Status != http.StatusBadRequest {
		t.Errorf("Status = %d", rejected.Status)
	}
	if !strings.Contains(string(rejected.Body), "image not available") {
		t.Errorf("Body = %s", rejected.Body)
	}
}

func TestCreateInstanceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	node := testNode(srv)
	srv.Close()

	c := New(nil)
	_, err := c.CreateInstance(context.Background(), node, CreateRequest{})

	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
	if unreachable.Node != "node-1" {
		t.Errorf("Node = %q", unreachable.Node)
	}
}

func TestGetAndSetState(t *testing.T) {
	var setPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/instances/abc123/states/get":
			json.NewEncoder(w).Encode(map[string]string{"state": "RUNNING"})
		case strings.HasPrefix(r.URL.Path, "/instances/abc123/states/set/"):
			setPath = r.URL.Path
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(nil)
	node := testNode(srv)

	state, err := c.GetState(context.Background(), node, "abc123")
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if state != model.StateRunning {
		t.Errorf("state = %q", state)
	}

	if err := c.SetState(context.Background(), node, "abc123", state); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if setPath != "/instances/abc123/states/set/RUNNING" {
		t.Errorf("set path = %q", setPath)
	}
}

func TestPowerAction(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
	}))
	defer srv.Close()

	c := New(nil)
	if err := c.Power(context.Background(), testNode(srv), "abc123", model.PowerRestart); err != nil {
		t.Fatalf("Power: %v", err)
	}
	if gotPath != "/instances/abc123/restart" || gotMethod != http.MethodPost {
		t.Errorf("got %s %s", gotMethod, gotPath)
	}
}

func TestDeleteInstancePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
	}))
	defer srv.Close()

	c := New(nil)
	if err := c.DeleteInstance(context.Background(), testNode(srv), "ctr-9"); err != nil {
		t.Fatalf("DeleteInstance: %v", err)
	}
	if gotPath != "/instances/ctr-9/delete" {
		t.Errorf("path = %q", gotPath)
	}
}
