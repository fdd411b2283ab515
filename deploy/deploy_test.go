package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"skypanel/daemon"
	"skypanel/model"
	"skypanel/store"
)

func validRequest(nodeID string) Request {
	return Request{
		Image:     "java:21",
		ImageName: "Java 21",
		Memory:    "1024",
		CPU:       "2",
		Disk:      "10",
		Ports:     "25565:25565",
		NodeID:    nodeID,
		Name:      "mc",
		UserID:    "u1",
		Primary:   true,
	}
}

// newTestOrchestrator wires a mem store and a fake node daemon. The
// returned counter tracks every request the node received.
func newTestOrchestrator(t *testing.T, nodeHandler http.HandlerFunc) (*Orchestrator, *store.Store, *int) {
	t.Helper()

	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		nodeHandler(w, r)
	}))
	t.Cleanup(srv.Close)

	u, _ := url.Parse(srv.URL)
	st := store.New(store.NewMem())
	node := &model.Node{ID: "n1", Address: u.Hostname(), Port: u.Port(), APIKey: "k", Status: model.NodeOnline}
	if err := st.SaveNode(context.Background(), node); err != nil {
		t.Fatal(err)
	}
	st.SaveNodeIDs(context.Background(), []string{"n1"})

	return New(st, daemon.New(nil)), st, calls
}

func createOK(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"containerId": "ctr-1",
		"volumeId":    "vol-1",
		"state":       "INSTALLING",
	})
}

func TestDeployPersistsThreeLocations(t *testing.T) {
	o, st, _ := newTestOrchestrator(t, createOK)
	ctx := context.Background()

	inst, err := o.Deploy(ctx, validRequest("n1"))
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if inst.ContainerID != "ctr-1" || inst.VolumeID != "vol-1" {
		t.Errorf("instance = %+v", inst)
	}
	if inst.State != model.StateInstalling {
		t.Errorf("State = %q", inst.State)
	}

	global, _ := st.Instances(ctx)
	if len(global) != 1 || global[0].ContainerID != "ctr-1" {
		t.Errorf("global list = %+v", global)
	}
	owned, _ := st.UserInstances(ctx, "u1")
	if len(owned) != 1 || owned[0].ContainerID != "ctr-1" {
		t.Errorf("owner list = %+v", owned)
	}
	keyed, _ := st.Instance(ctx, inst.ID)
	if keyed == nil || keyed.ContainerID != "ctr-1" {
		t.Errorf("keyed record = %+v", keyed)
	}
}

func TestDeployMissingParameters(t *testing.T) {
	o, st, calls := newTestOrchestrator(t, createOK)

	req := validRequest("n1")
	req.Image = ""
	_, err := o.Deploy(context.Background(), req)

	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if *calls != 0 {
		t.Errorf("node received %d calls, want 0", *calls)
	}
	global, _ := st.Instances(context.Background())
	if len(global) != 0 {
		t.Error("no record should be written")
	}
}

func TestDeployPrimaryRequired(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, createOK)

	req := validRequest("n1")
	req.Primary = false
	var invalid *ValidationError
	if _, err := o.Deploy(context.Background(), req); !errors.As(err, &invalid) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeployUnknownNode(t *testing.T) {
	o, _, calls := newTestOrchestrator(t, createOK)

	_, err := o.Deploy(context.Background(), validRequest("missing"))
	if !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("err = %v, want ErrNodeNotFound", err)
	}
	if *calls != 0 {
		t.Errorf("node received %d calls, want 0", *calls)
	}
}

func TestDeployNodeRejectionWritesNothing(t *testing.T) {
	o, st, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"volume provisioning failed"}`))
	})
	ctx := context.Background()

	_, err := o.Deploy(ctx, validRequest("n1"))
	var rejected *daemon.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}

	global, _ := st.Instances(ctx)
	owned, _ := st.UserInstances(ctx, "u1")
	if len(global) != 0 || len(owned) != 0 {
		t.Error("no record should exist in any location after a rejection")
	}
}

func TestDeployUsesImageMetadata(t *testing.T) {
	var got daemon.CreateRequest
	o, st, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		createOK(w, r)
	})
	ctx := context.Background()

	st.SaveImages(ctx, []model.Image{{
		Name:        "Java 21",
		Image:       "java:21",
		StopCommand: "stop",
		AltImages:   []string{"java:17"},
	}})

	inst, err := o.Deploy(ctx, validRequest("n1"))
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if got.StopCommand != "stop" {
		t.Errorf("dispatched StopCommand = %q", got.StopCommand)
	}
	if inst.StopCommand != "stop" || len(inst.AltImages) != 1 {
		t.Errorf("instance metadata = %+v", inst)
	}
}

func TestDeployUnknownImageTolerated(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, createOK)

	req := validRequest("n1")
	req.ImageName = "No Such Image"
	if _, err := o.Deploy(context.Background(), req); err != nil {
		t.Fatalf("unknown image name should not fail deployment: %v", err)
	}
}

func TestNewInstanceIDAvoidsCollisions(t *testing.T) {
	o, st, _ := newTestOrchestrator(t, createOK)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := o.newInstanceID(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
		instances, _ := st.Instances(ctx)
		st.SaveInstances(ctx, append(instances, model.Instance{ID: id}))
	}

	for id := range seen {
		if len(id) != 8 {
			t.Errorf("id %q is not a short uuid segment", id)
		}
	}
}

func TestDeleteRemovesAllLocations(t *testing.T) {
	o, st, _ := newTestOrchestrator(t, createOK)
	ctx := context.Background()

	inst, err := o.Deploy(ctx, validRequest("n1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := o.Delete(ctx, inst.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	global, _ := st.Instances(ctx)
	owned, _ := st.UserInstances(ctx, "u1")
	keyed, _ := st.Instance(ctx, inst.ID)
	if len(global) != 0 || len(owned) != 0 || keyed != nil {
		t.Error("all three locations should be pruned after deletion")
	}
}

func TestDeleteAbortsWhenNodeFails(t *testing.T) {
	deleteFails := false
	o, st, _ := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		if deleteFails {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		createOK(w, r)
	})
	ctx := context.Background()

	inst, err := o.Deploy(ctx, validRequest("n1"))
	if err != nil {
		t.Fatal(err)
	}

	deleteFails = true
	if err := o.Delete(ctx, inst.ID); err == nil {
		t.Fatal("expected error when node delete fails")
	}

	// The container may still be live: keep every record.
	global, _ := st.Instances(ctx)
	owned, _ := st.UserInstances(ctx, "u1")
	keyed, _ := st.Instance(ctx, inst.ID)
	if len(global) != 1 || len(owned) != 1 || keyed == nil {
		t.Error("records must remain in all locations after a failed node delete")
	}
}

func TestDeleteMissingInstance(t *testing.T) {
	o, _, calls := newTestOrchestrator(t, createOK)

	if err := o.Delete(context.Background(), "ghost"); !errors.Is(err, ErrInstanceNotFound) {
		t.Fatalf("err = %v, want ErrInstanceNotFound", err)
	}
	if *calls != 0 {
		t.Errorf("node received %d calls, want 0", *calls)
	}
}
