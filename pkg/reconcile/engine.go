package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ztadmin/ztadmin/pkg/controller"
	"github.com/ztadmin/ztadmin/pkg/stores"
)

// defaultWorkers bounds the concurrent detail fetches per reconciliation.
const defaultWorkers = 4

// UnlinkedNetwork is a controller-resident network with no store record,
// enriched with the controller's detail for it.
type UnlinkedNetwork struct {
	// ID is the 16-hex-digit network ID.
	ID string `json:"id"`

	// Name is the controller-side network name, possibly empty.
	Name string `json:"name"`

	// Private reports whether members require authorization.
	Private bool `json:"private"`

	// MemberCount is the number of members the controller knows.
	MemberCount int `json:"member_count"`

	// CreationTime is the network creation time in epoch milliseconds.
	CreationTime int64 `json:"creation_time"`

	// Revision is the controller's change counter for the network.
	Revision int64 `json:"revision"`
}

// FetchFailure records a network whose detail could not be fetched during
// reconciliation. The network stays out of the result but the failure is
// reported instead of discarding the whole run.
type FetchFailure struct {
	// ID is the network the fetch failed for.
	ID string `json:"id"`

	// Err is the fetch error.
	Err error `json:"-"`
}

// Result is the outcome of one reconciliation pass.
type Result struct {
	// Networks are the unlinked networks with detail, sorted by ID.
	Networks []UnlinkedNetwork `json:"networks"`

	// Failed lists networks whose detail fetch failed, sorted by ID.
	Failed []FetchFailure `json:"failed,omitempty"`

	// ControllerTotal is the number of networks the controller reported.
	ControllerTotal int `json:"controller_total"`

	// StoreTotal is the number of network records in the store.
	StoreTotal int `json:"store_total"`
}

// Engine computes the difference between controller-resident networks and
// store records.
type Engine struct {
	client  *controller.Client
	store   stores.Store
	workers int
	logger  zerolog.Logger
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Client talks to the controller daemon. Required.
	Client *controller.Client

	// Store holds the linked network records. Required.
	Store stores.Store

	// Workers bounds concurrent detail fetches. Defaults to 4.
	Workers int

	// Logger is the parent logger.
	Logger zerolog.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("controller client is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	return &Engine{
		client:  cfg.Client,
		store:   cfg.Store,
		workers: cfg.Workers,
		logger:  cfg.Logger.With().Str("component", "reconcile").Logger(),
	}, nil
}

// FindUnlinked returns the networks resident on the controller that have no
// record in the store. The controller network list and the store records are
// fetched concurrently; an unreachable controller aborts the whole call. A
// detail fetch failing for one network is contained: that network moves to
// Failed and the others still come back.
func (e *Engine) FindUnlinked(ctx context.Context) (*Result, error) {
	var (
		wg            sync.WaitGroup
		controllerIDs []string
		controllerErr error
		records       []*stores.Network
		storeErr      error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		controllerIDs, controllerErr = e.client.Networks(ctx)
	}()
	go func() {
		defer wg.Done()
		records, storeErr = e.store.ListNetworks(ctx)
	}()
	wg.Wait()

	// The controller list is the baseline; without it no partial result
	// is meaningful.
	if controllerErr != nil {
		return nil, controllerErr
	}
	if storeErr != nil {
		return nil, fmt.Errorf("failed to list stored networks: %w", storeErr)
	}

	linked := make(map[string]struct{}, len(records))
	for _, record := range records {
		linked[record.ID] = struct{}{}
	}

	unlinked := make([]string, 0)
	for _, id := range controllerIDs {
		if _, ok := linked[id]; !ok {
			unlinked = append(unlinked, id)
		}
	}

	result := &Result{
		Networks:        []UnlinkedNetwork{},
		ControllerTotal: len(controllerIDs),
		StoreTotal:      len(records),
	}

	if len(unlinked) == 0 {
		e.logger.Debug().
			Int("controller_total", result.ControllerTotal).
			Int("store_total", result.StoreTotal).
			Msg("No unlinked networks")
		return result, nil
	}

	e.fetchDetails(ctx, unlinked, result)

	sort.Slice(result.Networks, func(i, j int) bool {
		return result.Networks[i].ID < result.Networks[j].ID
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		return result.Failed[i].ID < result.Failed[j].ID
	})

	e.logger.Info().
		Int("unlinked", len(result.Networks)).
		Int("failed", len(result.Failed)).
		Int("controller_total", result.ControllerTotal).
		Int("store_total", result.StoreTotal).
		Msg("Reconciliation completed")

	return result, nil
}

// fetchDetails enriches the unlinked IDs through a bounded worker pool.
func (e *Engine) fetchDetails(ctx context.Context, ids []string, result *Result) {
	workers := e.workers
	if workers > len(ids) {
		workers = len(ids)
	}

	jobs := make(chan string)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				network, err := e.fetchOne(ctx, id)

				mu.Lock()
				if err != nil {
					result.Failed = append(result.Failed, FetchFailure{ID: id, Err: err})
				} else {
					result.Networks = append(result.Networks, *network)
				}
				mu.Unlock()
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
}

// fetchOne loads detail and member count for a single network.
func (e *Engine) fetchOne(ctx context.Context, id string) (*UnlinkedNetwork, error) {
	detail, err := e.client.Network(ctx, id)
	if err != nil {
		e.logger.Warn().Err(err).Str("network", id).Msg("Failed to fetch network detail")
		return nil, err
	}

	members, err := e.client.Members(ctx, id)
	if err != nil {
		e.logger.Warn().Err(err).Str("network", id).Msg("Failed to fetch network members")
		return nil, err
	}

	return &UnlinkedNetwork{
		ID:           id,
		Name:         detail.Name,
		Private:      detail.Private,
		MemberCount:  len(members),
		CreationTime: detail.CreationTime,
		Revision:     detail.Revision,
	}, nil
}

// Adopt links a controller-resident network into the store. The network
// must exist on the controller and must not already have a store record.
// An empty name falls back to the controller-side network name.
func (e *Engine) Adopt(ctx context.Context, id, name, ownerID string) (*stores.Network, error) {
	if _, err := e.store.GetNetwork(ctx, id); err == nil {
		return nil, fmt.Errorf("network %s is already linked", id)
	} else if !errors.Is(err, stores.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing record: %w", err)
	}

	detail, err := e.client.Network(ctx, id)
	if err != nil {
		if controller.IsNotFound(err) {
			return nil, fmt.Errorf("network %s is not resident on the controller", id)
		}
		return nil, err
	}

	if name == "" {
		name = detail.Name
	}

	now := time.Now().UTC()
	network := &stores.Network{
		ID:        id,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.SaveNetwork(ctx, network); err != nil {
		return nil, fmt.Errorf("failed to save network record: %w", err)
	}

	e.logger.Info().
		Str("network", id).
		Str("name", name).
		Str("owner", ownerID).
		Msg("Network adopted")

	return network, nil
}
