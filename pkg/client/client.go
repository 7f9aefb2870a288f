// Package client provides a fluent builder for reaction-network
// configurations and an HTTP client for driving them against a running
// achem-ssa-server instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/daniacca/achem-ssa/internal/ssa"
)

// NetworkBuilder provides a fluent API for building reaction-network
// configurations. Use it to define species populations and the reactions
// that move mass between them.
type NetworkBuilder struct {
	name      string
	species   []ssa.SpeciesConfig
	reactions []*ReactionBuilder
}

// NewNetwork creates a new network builder with the given name.
func NewNetwork(name string) *NetworkBuilder {
	return &NetworkBuilder{name: name}
}

// Species adds a species definition to the network. count is the initial
// population; volume, if non-zero, enables the concentration view.
func (nb *NetworkBuilder) Species(name, description string, count int64, volume float64) *NetworkBuilder {
	nb.species = append(nb.species, ssa.SpeciesConfig{
		Name:        name,
		Description: description,
		Count:       count,
		Volume:      volume,
	})
	return nb
}

// Reaction adds a reaction definition to the network.
func (nb *NetworkBuilder) Reaction(rb *ReactionBuilder) *NetworkBuilder {
	nb.reactions = append(nb.reactions, rb)
	return nb
}

// Build converts the builder to a NetworkConfig that can be used with
// CreateNetwork or any other achem-ssa-server API.
func (nb *NetworkBuilder) Build() ssa.NetworkConfig {
	reactions := make([]ssa.ReactionConfig, 0, len(nb.reactions))
	for _, rb := range nb.reactions {
		reactions = append(reactions, rb.Build())
	}

	return ssa.NetworkConfig{
		Name:      nb.name,
		Species:   nb.species,
		Reactions: reactions,
	}
}

// ReactionBuilder provides a fluent API for building reaction
// configurations: reactants, products, modifiers, and the rate law that
// governs how often the reaction fires.
type ReactionBuilder struct {
	id        string
	name      string
	reactants []ssa.StoichEdgeConfig
	products  []ssa.StoichEdgeConfig
	modifiers []string
	params    map[string]float64
	rateLaw   ssa.RateLawConfig
}

// NewReaction creates a new reaction builder with the given ID. The name
// defaults to the ID but can be overridden with Name.
func NewReaction(id string) *ReactionBuilder {
	return &ReactionBuilder{id: id, name: id}
}

// Name sets the human-readable name for the reaction.
func (rb *ReactionBuilder) Name(name string) *ReactionBuilder {
	rb.name = name
	return rb
}

// Reactant adds a reactant edge with the given stoichiometric coefficient.
func (rb *ReactionBuilder) Reactant(species string, stoichiometry int) *ReactionBuilder {
	rb.reactants = append(rb.reactants, ssa.StoichEdgeConfig{Species: species, Stoichiometry: stoichiometry})
	return rb
}

// Product adds a product edge with the given stoichiometric coefficient.
func (rb *ReactionBuilder) Product(species string, stoichiometry int) *ReactionBuilder {
	rb.products = append(rb.products, ssa.StoichEdgeConfig{Species: species, Stoichiometry: stoichiometry})
	return rb
}

// Modifier lists a species on the reaction without it being consumed or
// produced. The server checks that the species exists; mass_action rates
// do not depend on it.
func (rb *ReactionBuilder) Modifier(species string) *ReactionBuilder {
	rb.modifiers = append(rb.modifiers, species)
	return rb
}

// Param binds a named parameter for use by a compiled or interpreted
// rate-law formula.
func (rb *ReactionBuilder) Param(key string, value float64) *ReactionBuilder {
	if rb.params == nil {
		rb.params = make(map[string]float64)
	}
	rb.params[key] = value
	return rb
}

// MassAction sets the reaction's rate law to the standard elementary
// mass-action propensity with rate constant k.
func (rb *ReactionBuilder) MassAction(k float64) *ReactionBuilder {
	rb.rateLaw = ssa.RateLawConfig{Kind: "mass_action", K: k}
	return rb
}

// CompiledFormula sets the reaction's rate law to an ECMAScript
// expression compiled once and reused across identical formula text.
func (rb *ReactionBuilder) CompiledFormula(formula string) *ReactionBuilder {
	rb.rateLaw = ssa.RateLawConfig{Kind: "compiled_formula", Formula: formula}
	return rb
}

// InterpretedExpression sets the reaction's rate law to an ECMAScript
// expression recompiled on every evaluation, for rarely-fired reactions.
func (rb *ReactionBuilder) InterpretedExpression(formula string) *ReactionBuilder {
	rb.rateLaw = ssa.RateLawConfig{Kind: "interpreted_expression", Formula: formula}
	return rb
}

// Build converts the builder to a ReactionConfig.
func (rb *ReactionBuilder) Build() ssa.ReactionConfig {
	return ssa.ReactionConfig{
		ID:        rb.id,
		Name:      rb.name,
		Reactants: rb.reactants,
		Products:  rb.products,
		Modifiers: rb.modifiers,
		Params:    rb.params,
		RateLaw:   rb.rateLaw,
	}
}

// Client is a thin HTTP wrapper around an achem-ssa-server instance's
// /networks and /notifiers API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client targeting the server at baseURL (e.g.
// "http://localhost:8080").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, httpClient: &http.Client{}}
}

// StateResponse mirrors the JSON body returned by GET /networks/{id}/state.
type StateResponse struct {
	RunID   string           `json:"run_id"`
	Status  string           `json:"status"`
	SimTime float64          `json:"sim_time"`
	SimIter int64            `json:"sim_iter"`
	Counts  map[string]int64 `json:"counts"`
}

// CreateNetwork builds the network on the server and returns its run ID.
// maxIter/maxTime are firm ceilings: 0 halts the run before its first
// firing, so pass ssa.UnboundedIter/ssa.UnboundedTime to leave one or the
// other uncapped.
func (c *Client) CreateNetwork(ctx context.Context, network ssa.NetworkConfig, seed uint64, maxIter int64, maxTime float64) (string, error) {
	body := struct {
		Network ssa.NetworkConfig `json:"network"`
		Seed    uint64            `json:"seed"`
		MaxIter int64             `json:"max_iter"`
		MaxTime float64           `json:"max_time"`
	}{Network: network, Seed: seed, MaxIter: maxIter, MaxTime: maxTime}

	var resp struct {
		RunID string `json:"run_id"`
	}
	if err := c.postJSON(ctx, "/networks", body, &resp); err != nil {
		return "", err
	}
	return resp.RunID, nil
}

// Seed sets initial species counts on an existing run, overriding the
// counts the network was built with.
func (c *Client) Seed(ctx context.Context, runID string, counts map[string]int64) error {
	body := struct {
		Counts map[string]int64 `json:"counts"`
	}{Counts: counts}
	return c.postJSON(ctx, "/networks/"+runID+"/seed", body, nil)
}

// Run starts the run's scheduler. When async is false, Run blocks until
// the server reports the run has reached a terminal status.
func (c *Client) Run(ctx context.Context, runID string, async bool) (string, error) {
	u, err := url.Parse(c.baseURL + "/networks/" + runID + "/run")
	if err != nil {
		return "", fmt.Errorf("building run URL: %w", err)
	}
	q := u.Query()
	q.Set("async", fmt.Sprintf("%t", async))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("building run request: %w", err)
	}

	var resp struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	if err := c.do(req, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// State fetches the run's current species counts and scheduler progress.
func (c *Client) State(ctx context.Context, runID string) (StateResponse, error) {
	var resp StateResponse
	err := c.getJSON(ctx, "/networks/"+runID+"/state", &resp)
	return resp, err
}

// Report fetches the run's final-state summary, rendered as HTML.
func (c *Client) Report(ctx context.Context, runID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/networks/"+runID+"/report", nil)
	if err != nil {
		return nil, fmt.Errorf("building report request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending report request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

// SaveSnapshot asks the server to durably persist the run's current state.
func (c *Client) SaveSnapshot(ctx context.Context, runID string) (ssa.Snapshot, error) {
	var snap ssa.Snapshot
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/networks/"+runID+"/snapshot", nil)
	if err != nil {
		return snap, fmt.Errorf("building snapshot request: %w", err)
	}
	err = c.do(req, http.StatusOK, &snap)
	return snap, err
}

// GetSnapshot fetches the durable snapshot with the highest sim_iter for a
// run.
func (c *Client) GetSnapshot(ctx context.Context, runID string) (ssa.Snapshot, error) {
	var snap ssa.Snapshot
	err := c.getJSON(ctx, "/networks/"+runID+"/snapshot", &snap)
	return snap, err
}

// ListNetworks returns the run IDs of every network currently known to
// the server.
func (c *Client) ListNetworks(ctx context.Context) ([]string, error) {
	var resp struct {
		Runs []string `json:"runs"`
	}
	err := c.getJSON(ctx, "/networks", &resp)
	return resp.Runs, err
}

// DeleteNetwork stops (if running) and discards a run.
func (c *Client) DeleteNetwork(ctx context.Context, runID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/networks/"+runID, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	return c.do(req, http.StatusOK, nil)
}

// RegisterNotifier registers a webhook, websocket, or mqtt notifier with
// the server so it receives NotificationEvent fan-out from every run
// created after registration.
func (c *Client) RegisterNotifier(ctx context.Context, notifierType, id string, config map[string]any) error {
	body := struct {
		Type   string         `json:"type"`
		ID     string         `json:"id"`
		Config map[string]any `json:"config"`
	}{Type: notifierType, ID: id, Config: config}
	return c.postJSON(ctx, "/notifiers", body, nil)
}

// UnregisterNotifier removes a previously registered notifier.
func (c *Client) UnregisterNotifier(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/notifiers/"+id, nil)
	if err != nil {
		return fmt.Errorf("building unregister request: %w", err)
	}
	return c.do(req, http.StatusOK, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}

	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("building URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var statusOverride int
	if path == "/networks" {
		statusOverride = http.StatusCreated
	} else {
		statusOverride = http.StatusOK
	}
	return c.do(req, statusOverride, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return fmt.Errorf("building URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
