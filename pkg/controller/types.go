package controller

// NodeStatus is the controller daemon's self-description from GET /status.
type NodeStatus struct {
	// Address is the 10-hex-digit node address of the controller.
	Address string `json:"address"`

	// Online reports whether the node has upstream connectivity.
	Online bool `json:"online"`

	// TCPFallbackActive reports whether the node fell back to TCP relaying.
	TCPFallbackActive bool `json:"tcpFallbackActive"`

	// Version is the daemon version string, e.g. "1.14.2".
	Version string `json:"version"`

	// VersionMajor, VersionMinor and VersionRev are the numeric version parts.
	VersionMajor int `json:"versionMajor"`
	VersionMinor int `json:"versionMinor"`
	VersionRev   int `json:"versionRev"`

	// Clock is the node's wall clock in milliseconds since the Unix epoch.
	Clock int64 `json:"clock"`

	// PlanetWorldID is the ID of the root-server definition the node follows.
	PlanetWorldID int64 `json:"planetWorldId"`

	// PlanetWorldTimestamp is the revision timestamp of that definition.
	PlanetWorldTimestamp int64 `json:"planetWorldTimestamp"`

	// PublicIdentity is the node's public identity string.
	PublicIdentity string `json:"publicIdentity"`

	// Config carries the local configuration subset the daemon reports.
	Config NodeConfig `json:"config"`
}

// NodeConfig is the local configuration block of a node status response.
type NodeConfig struct {
	// Settings holds the daemon's runtime settings.
	Settings NodeSettings `json:"settings"`
}

// NodeSettings is the settings subset reported under config.settings.
type NodeSettings struct {
	// PortMappingEnabled reports whether UPnP/NAT-PMP mapping is on.
	PortMappingEnabled bool `json:"portMappingEnabled"`

	// PrimaryPort is the UDP port the daemon binds.
	PrimaryPort int `json:"primaryPort"`

	// AllowTCPFallbackRelay reports whether TCP relay fallback is permitted.
	AllowTCPFallbackRelay bool `json:"allowTcpFallbackRelay"`
}

// NetworkDetail is the configuration of a controller-hosted network from
// GET /controller/network/{id}.
type NetworkDetail struct {
	// ID is the 16-hex-digit network ID.
	ID string `json:"id"`

	// NWID mirrors ID; the controller reports both fields.
	NWID string `json:"nwid"`

	// Name is the operator-assigned network name, possibly empty.
	Name string `json:"name"`

	// Private reports whether members must be authorized before joining.
	Private bool `json:"private"`

	// CreationTime is the network creation time in milliseconds since the
	// Unix epoch.
	CreationTime int64 `json:"creationTime"`

	// Revision is the controller's change counter for this network.
	Revision int64 `json:"revision"`

	// MulticastLimit is the maximum recipients of a multicast packet.
	MulticastLimit int `json:"multicastLimit"`

	// EnableBroadcast reports whether ff:ff:ff:ff:ff:ff broadcast works.
	EnableBroadcast bool `json:"enableBroadcast"`

	// V4AssignMode configures managed IPv4 assignment.
	V4AssignMode AssignModeV4 `json:"v4AssignMode"`

	// V6AssignMode configures managed IPv6 assignment.
	V6AssignMode AssignModeV6 `json:"v6AssignMode"`

	// IPAssignmentPools are the address ranges used for auto-assignment.
	IPAssignmentPools []IPAssignmentPool `json:"ipAssignmentPools"`

	// Routes are the managed routes pushed to members.
	Routes []Route `json:"routes"`
}

// AssignModeV4 is the IPv4 auto-assign configuration of a network.
type AssignModeV4 struct {
	// ZT enables assignment from the network's IP pools.
	ZT bool `json:"zt"`
}

// AssignModeV6 is the IPv6 auto-assign configuration of a network.
type AssignModeV6 struct {
	// ZT enables assignment from the network's IP pools.
	ZT bool `json:"zt"`

	// SixPlane enables 6PLANE addressing.
	SixPlane bool `json:"6plane"`

	// RFC4193 enables RFC 4193 addressing.
	RFC4193 bool `json:"rfc4193"`
}

// IPAssignmentPool is a contiguous address range used for auto-assignment.
type IPAssignmentPool struct {
	// IPRangeStart is the first address of the pool.
	IPRangeStart string `json:"ipRangeStart"`

	// IPRangeEnd is the last address of the pool.
	IPRangeEnd string `json:"ipRangeEnd"`
}

// Route is a managed route entry of a network.
type Route struct {
	// Target is the destination CIDR.
	Target string `json:"target"`

	// Via is the gateway address, empty for on-link routes.
	Via string `json:"via,omitempty"`
}
