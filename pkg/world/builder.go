package world

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Reserved values of the stock planet shipped with the upstream daemon.
// A custom world must never collide with them.
const (
	// ReservedEarthID is the world ID of the public "earth" planet.
	ReservedEarthID int64 = 149604618

	// ReservedMarsID is the world ID of the public "mars" planet.
	ReservedMarsID int64 = 227883110

	// ReservedBirth is the revision timestamp of the public planet.
	// Custom birth timestamps must be strictly greater.
	ReservedBirth int64 = 1567191349589
)

// Artifact names inside the staging directory, fixed by the generator's
// contract.
const (
	configFileName = "mkworld.config.json"
	outputFileName = "planet.custom"
)

// GenerateRequest carries the parameters for building a custom world.
type GenerateRequest struct {
	// PlanetID is the custom world ID. Required unless Recommend is true,
	// in which case it must be absent.
	PlanetID *int64 `json:"planet_id,omitempty"`

	// PlanetBirth is the custom revision timestamp in milliseconds since
	// the Unix epoch. Required unless Recommend is true, in which case it
	// must be absent.
	PlanetBirth *int64 `json:"planet_birth,omitempty"`

	// Recommend selects generator-recommended ID and birth values.
	Recommend bool `json:"recommend"`

	// Identity is an optional caller-supplied public identity for the root
	// node. When empty the controller's identity.public is used.
	Identity string `json:"identity,omitempty"`

	// Endpoints are the root node's physical endpoints as "ip/port".
	Endpoints []string `json:"endpoints"`

	// Comment is a free-form label stored in the root node definition.
	Comment string `json:"comment,omitempty"`
}

// RootNode is one root server entry of the generator config.
type RootNode struct {
	Comments  string   `json:"comments"`
	Identity  string   `json:"identity"`
	Endpoints []string `json:"endpoints"`
}

// MkworldConfig is the JSON document consumed by the world generator. Field
// names are fixed by the generator's contract.
type MkworldConfig struct {
	RootNodes       []RootNode `json:"rootNodes"`
	Signing         []string   `json:"signing"`
	Output          string     `json:"output"`
	PlanetID        int64      `json:"plID"`
	PlanetBirth     int64      `json:"plBirth"`
	PlanetRecommend bool       `json:"plRecommend"`
}

// BuildConfig validates the request and renders the generator config.
// identity is the resolved public identity of the root node. Validation
// order: endpoints, identity, then ID and birth constraints.
func BuildConfig(req GenerateRequest, identity string) (*MkworldConfig, error) {
	if len(req.Endpoints) == 0 {
		return nil, NewValidationError("at least one endpoint is required", nil).
			WithCode(ErrCodeNoEndpoints)
	}
	for _, ep := range req.Endpoints {
		if err := validateEndpoint(ep); err != nil {
			return nil, NewValidationError(fmt.Sprintf("invalid endpoint %q", ep), err).
				WithCode(ErrCodeBadEndpoint)
		}
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, NewValidationError("root node identity is required", nil).
			WithCode(ErrCodeMissingIdentity)
	}

	var planetID, planetBirth int64
	if req.Recommend {
		if req.PlanetID != nil || req.PlanetBirth != nil {
			return nil, NewValidationError("explicit planet ID or birth cannot be combined with recommended values", nil).
				WithCode(ErrCodeConflictingParams)
		}
	} else {
		// A custom world requires an explicit identity: both values must
		// be present when the generator is not asked to recommend them.
		if req.PlanetID == nil || req.PlanetBirth == nil {
			return nil, NewValidationError("planet ID and birth are required unless recommended values are requested", nil).
				WithCode(ErrCodeMissingParams)
		}
		if *req.PlanetID == ReservedEarthID || *req.PlanetID == ReservedMarsID {
			return nil, NewValidationError(fmt.Sprintf("world ID %d is reserved by the public planet", *req.PlanetID), nil).
				WithCode(ErrCodeReservedID)
		}
		planetID = *req.PlanetID
		if *req.PlanetBirth == ReservedBirth {
			return nil, NewValidationError(fmt.Sprintf("birth timestamp %d is reserved by the public planet", ReservedBirth), nil).
				WithCode(ErrCodeReservedBirth)
		}
		if *req.PlanetBirth < ReservedBirth {
			return nil, NewValidationError(fmt.Sprintf("birth timestamp must be greater than %d", ReservedBirth), nil).
				WithCode(ErrCodeBirthTooOld)
		}
		planetBirth = *req.PlanetBirth
	}

	return &MkworldConfig{
		RootNodes: []RootNode{
			{
				Comments:  req.Comment,
				Identity:  identity,
				Endpoints: req.Endpoints,
			},
		},
		Signing:         []string{"previous.c25519", "current.c25519"},
		Output:          outputFileName,
		PlanetID:        planetID,
		PlanetBirth:     planetBirth,
		PlanetRecommend: req.Recommend,
	}, nil
}

// validateEndpoint checks the "ip/port" endpoint form. IPv6 addresses may be
// bracketed: "[2001:db8::1]/9993".
func validateEndpoint(ep string) error {
	idx := strings.LastIndex(ep, "/")
	if idx <= 0 || idx == len(ep)-1 {
		return fmt.Errorf("expected ip/port")
	}

	host := ep[:idx]
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	if net.ParseIP(host) == nil {
		return fmt.Errorf("invalid IP address %q", host)
	}

	port, err := strconv.Atoi(ep[idx+1:])
	if err != nil {
		return fmt.Errorf("invalid port %q", ep[idx+1:])
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}

	return nil
}
