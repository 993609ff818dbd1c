package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestController starts a fake controller daemon serving canned responses
func newTestController(t *testing.T, token string) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-ZT1-Auth") != token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"address": "a1b2c3d4e5",
			"online": true,
			"version": "1.14.2",
			"versionMajor": 1, "versionMinor": 14, "versionRev": 2,
			"clock": 1700000000000,
			"planetWorldId": 149604618,
			"planetWorldTimestamp": 1567191349589,
			"config": {"settings": {"portMappingEnabled": true, "primaryPort": 9993}}
		}`))
	})
	mux.HandleFunc("/controller/network", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["a1b2c3d4e5000001","a1b2c3d4e5000002"]`))
	})
	mux.HandleFunc("/controller/network/a1b2c3d4e5000001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "a1b2c3d4e5000001",
			"nwid": "a1b2c3d4e5000001",
			"name": "lab",
			"private": true,
			"creationTime": 1690000000000,
			"revision": 7,
			"routes": [{"target": "10.10.0.0/24"}]
		}`))
	})
	mux.HandleFunc("/controller/network/a1b2c3d4e5000001/member", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"1122334455": 3, "aabbccddee": 12}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv, New(srv.URL, token)
}

// TestStatus tests decoding of the node status endpoint
func TestStatus(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch status: %v", err)
	}

	if status.Address != "a1b2c3d4e5" {
		t.Errorf("expected address a1b2c3d4e5, got %s", status.Address)
	}
	if !status.Online {
		t.Error("expected node to be online")
	}
	if status.PlanetWorldID != 149604618 {
		t.Errorf("expected planet world ID 149604618, got %d", status.PlanetWorldID)
	}
	if status.Config.Settings.PrimaryPort != 9993 {
		t.Errorf("expected primary port 9993, got %d", status.Config.Settings.PrimaryPort)
	}
}

// TestAuthHeader tests that the auth token travels with every request
func TestAuthHeader(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	wrong := New(client.BaseURL(), "wrong-token")
	_, err := wrong.Status(context.Background())
	if err == nil {
		t.Fatal("expected an error with a wrong token")
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected an unauthorized error, got %v", err)
	}
}

// TestNetworks tests the network ID listing
func TestNetworks(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	ids, err := client.Networks(context.Background())
	if err != nil {
		t.Fatalf("failed to list networks: %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(ids))
	}
	if ids[0] != "a1b2c3d4e5000001" {
		t.Errorf("unexpected first network ID: %s", ids[0])
	}
}

// TestNetworksEmpty tests that an empty listing decodes to a non-nil slice
func TestNetworksEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := New(srv.URL, "")
	ids, err := client.Networks(context.Background())
	if err != nil {
		t.Fatalf("failed to list networks: %v", err)
	}
	if ids == nil {
		t.Fatal("expected a non-nil slice for an empty listing")
	}
	if len(ids) != 0 {
		t.Errorf("expected no networks, got %d", len(ids))
	}
}

// TestNetworkDetail tests decoding of a single network
func TestNetworkDetail(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	detail, err := client.Network(context.Background(), "a1b2c3d4e5000001")
	if err != nil {
		t.Fatalf("failed to fetch network: %v", err)
	}

	if detail.Name != "lab" {
		t.Errorf("expected name lab, got %q", detail.Name)
	}
	if !detail.Private {
		t.Error("expected a private network")
	}
	if detail.Revision != 7 {
		t.Errorf("expected revision 7, got %d", detail.Revision)
	}
	if len(detail.Routes) != 1 || detail.Routes[0].Target != "10.10.0.0/24" {
		t.Errorf("unexpected routes: %+v", detail.Routes)
	}
}

// TestNetworkNotFound tests the 404 mapping
func TestNetworkNotFound(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	_, err := client.Network(context.Background(), "ffffffffffffffff")
	if err == nil {
		t.Fatal("expected an error for an unknown network")
	}
	if !IsNotFound(err) {
		t.Errorf("expected a not-found error, got %v", err)
	}
	if IsUnreachable(err) {
		t.Error("a 404 must not be classified as unreachable")
	}
}

// TestMembers tests decoding of the member revision map
func TestMembers(t *testing.T) {
	_, client := newTestController(t, "sekrit")

	members, err := client.Members(context.Background(), "a1b2c3d4e5000001")
	if err != nil {
		t.Fatalf("failed to fetch members: %v", err)
	}

	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if members["aabbccddee"] != 12 {
		t.Errorf("expected revision 12 for aabbccddee, got %d", members["aabbccddee"])
	}
}

// TestUnreachable tests the transport error classification
func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := New(srv.URL, "")
	_, err := client.Status(context.Background())
	if err == nil {
		t.Fatal("expected an error against a closed server")
	}
	if !IsUnreachable(err) {
		t.Errorf("expected an unreachable error, got %v", err)
	}

	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatal("expected *UnreachableError in the chain")
	}
	if ue.Endpoint == "" {
		t.Error("expected the endpoint to be recorded")
	}
}
