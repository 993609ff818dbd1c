package world

import (
	"encoding/json"
	"testing"
)

func int64p(v int64) *int64 {
	return &v
}

// TestBuildConfigValidation tests the rejection rules for generation parameters
func TestBuildConfigValidation(t *testing.T) {
	identity := "a1b2c3d4e5:0:aabbccdd"

	tests := []struct {
		name     string
		req      GenerateRequest
		identity string
		wantCode string
	}{
		{
			name:     "no endpoints",
			req:      GenerateRequest{Recommend: true},
			identity: identity,
			wantCode: ErrCodeNoEndpoints,
		},
		{
			name:     "endpoint without port",
			req:      GenerateRequest{Recommend: true, Endpoints: []string{"203.0.113.10"}},
			identity: identity,
			wantCode: ErrCodeBadEndpoint,
		},
		{
			name:     "endpoint with bad ip",
			req:      GenerateRequest{Recommend: true, Endpoints: []string{"not-an-ip/9993"}},
			identity: identity,
			wantCode: ErrCodeBadEndpoint,
		},
		{
			name:     "endpoint with port out of range",
			req:      GenerateRequest{Recommend: true, Endpoints: []string{"203.0.113.10/70000"}},
			identity: identity,
			wantCode: ErrCodeBadEndpoint,
		},
		{
			name:     "missing identity",
			req:      GenerateRequest{Recommend: true, Endpoints: []string{"203.0.113.10/9993"}},
			identity: "   ",
			wantCode: ErrCodeMissingIdentity,
		},
		{
			name: "reserved earth id",
			req: GenerateRequest{
				PlanetID:    int64p(ReservedEarthID),
				PlanetBirth: int64p(ReservedBirth + 1),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeReservedID,
		},
		{
			name: "reserved mars id",
			req: GenerateRequest{
				PlanetID:    int64p(ReservedMarsID),
				PlanetBirth: int64p(ReservedBirth + 1),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeReservedID,
		},
		{
			name: "reserved birth",
			req: GenerateRequest{
				PlanetID:    int64p(7777777),
				PlanetBirth: int64p(ReservedBirth),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeReservedBirth,
		},
		{
			name: "birth before the reserved timestamp",
			req: GenerateRequest{
				PlanetID:    int64p(7777777),
				PlanetBirth: int64p(ReservedBirth - 1),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeBirthTooOld,
		},
		{
			name: "custom world without parameters",
			req: GenerateRequest{
				Endpoints: []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeMissingParams,
		},
		{
			name: "custom world with id but no birth",
			req: GenerateRequest{
				PlanetID:  int64p(7777777),
				Endpoints: []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeMissingParams,
		},
		{
			name: "custom world with birth but no id",
			req: GenerateRequest{
				PlanetBirth: int64p(ReservedBirth + 1),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeMissingParams,
		},
		{
			name: "explicit zero birth",
			req: GenerateRequest{
				PlanetID:    int64p(7777777),
				PlanetBirth: int64p(0),
				Endpoints:   []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeBirthTooOld,
		},
		{
			name: "explicit values with recommend",
			req: GenerateRequest{
				Recommend: true,
				PlanetID:  int64p(7),
				Endpoints: []string{"203.0.113.10/9993"},
			},
			identity: identity,
			wantCode: ErrCodeConflictingParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildConfig(tt.req, tt.identity)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !IsValidation(err) {
				t.Errorf("expected a validation class error, got %v", err)
			}
			if !HasCode(err, tt.wantCode) {
				t.Errorf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

// TestBuildConfigCustomValues tests a fully specified custom world
func TestBuildConfigCustomValues(t *testing.T) {
	req := GenerateRequest{
		PlanetID:    int64p(7777777),
		PlanetBirth: int64p(ReservedBirth + 1),
		Endpoints:   []string{"203.0.113.10/9993", "[2001:db8::1]/9993"},
		Comment:     "site root",
	}

	cfg, err := BuildConfig(req, "a1b2c3d4e5:0:aabbccdd")
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	if cfg.PlanetID != 7777777 {
		t.Errorf("expected planet ID 7777777, got %d", cfg.PlanetID)
	}
	if cfg.PlanetBirth != ReservedBirth+1 {
		t.Errorf("expected planet birth %d, got %d", ReservedBirth+1, cfg.PlanetBirth)
	}
	if cfg.PlanetRecommend {
		t.Error("expected recommend to be false")
	}
	if len(cfg.RootNodes) != 1 {
		t.Fatalf("expected 1 root node, got %d", len(cfg.RootNodes))
	}
	root := cfg.RootNodes[0]
	if root.Identity != "a1b2c3d4e5:0:aabbccdd" {
		t.Errorf("unexpected identity: %s", root.Identity)
	}
	if root.Comments != "site root" {
		t.Errorf("unexpected comments: %s", root.Comments)
	}
	if len(root.Endpoints) != 2 || root.Endpoints[1] != "[2001:db8::1]/9993" {
		t.Errorf("unexpected endpoints: %v", root.Endpoints)
	}
	if cfg.Output != "planet.custom" {
		t.Errorf("unexpected output name: %s", cfg.Output)
	}
	if len(cfg.Signing) != 2 || cfg.Signing[0] != "previous.c25519" || cfg.Signing[1] != "current.c25519" {
		t.Errorf("unexpected signing pair: %v", cfg.Signing)
	}
}

// TestBuildConfigRecommended tests the recommended-values mode
func TestBuildConfigRecommended(t *testing.T) {
	cfg, err := BuildConfig(GenerateRequest{
		Recommend: true,
		Endpoints: []string{"198.51.100.1/443"},
	}, "a1b2c3d4e5:0:aabbccdd")
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	if !cfg.PlanetRecommend {
		t.Error("expected recommend to be true")
	}
	if cfg.PlanetID != 0 || cfg.PlanetBirth != 0 {
		t.Errorf("expected zeroed planet values in recommend mode, got %d/%d", cfg.PlanetID, cfg.PlanetBirth)
	}
}

// TestMkworldConfigJSON tests the exact wire field names of the generator contract
func TestMkworldConfigJSON(t *testing.T) {
	cfg, err := BuildConfig(GenerateRequest{
		PlanetID:    int64p(9),
		PlanetBirth: int64p(ReservedBirth + 100),
		Endpoints:   []string{"203.0.113.10/9993"},
	}, "a1b2c3d4e5:0:aabbccdd")
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("failed to marshal config: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("failed to unmarshal config: %v", err)
	}

	for _, key := range []string{"rootNodes", "signing", "output", "plID", "plBirth", "plRecommend"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing contract field %q", key)
		}
	}

	roots, ok := raw["rootNodes"].([]interface{})
	if !ok || len(roots) != 1 {
		t.Fatalf("unexpected rootNodes shape: %v", raw["rootNodes"])
	}
	root, ok := roots[0].(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected root node shape: %v", roots[0])
	}
	for _, key := range []string{"comments", "identity", "endpoints"} {
		if _, ok := root[key]; !ok {
			t.Errorf("missing root node field %q", key)
		}
	}
}

// TestValidateEndpoint tests accepted and rejected endpoint forms
func TestValidateEndpoint(t *testing.T) {
	valid := []string{
		"203.0.113.10/9993",
		"198.51.100.1/1",
		"203.0.113.10/65535",
		"[2001:db8::1]/9993",
		"2001:db8::1/9993",
	}
	for _, ep := range valid {
		if err := validateEndpoint(ep); err != nil {
			t.Errorf("expected %q to validate, got %v", ep, err)
		}
	}

	invalid := []string{
		"",
		"203.0.113.10",
		"/9993",
		"203.0.113.10/",
		"203.0.113.10/0",
		"203.0.113.10/65536",
		"203.0.113.10/abc",
		"example.com/9993",
	}
	for _, ep := range invalid {
		if err := validateEndpoint(ep); err == nil {
			t.Errorf("expected %q to be rejected", ep)
		}
	}
}
