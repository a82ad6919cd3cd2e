// Package remote is the HTTP client for the calculation/materials service.
// All request paths are relative; the base address is whatever proxy the
// deployment hands the composition root, and nothing in here reads a
// base-URL override of its own.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/packlane/epr-estimator/internal/feecore"
)

// Error is a transport or remote-status failure. It is surfaced inline near
// the affected control and never retried: a calculation request either
// resolves, fails, or is superseded by a newer one.
type Error struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s failed status=%d body=%s", e.Op, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Subcategory is one rate-bearing leaf of a grouped (hierarchical) material
// taxonomy.
type Subcategory struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	RatePerLb float64 `json:"rate_per_lb"`
}

// Category is one top-level node of a grouped taxonomy.
type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// CalculateRequest is the jurisdiction-generic calculation payload. The
// material identification fields vary by jurisdiction: grouped taxonomies
// send category+subcategory, flat ones send a material code.
type CalculateRequest struct {
	Jurisdiction string  `json:"jurisdiction"`
	MaterialCode string  `json:"material_code,omitempty"`
	Category     string  `json:"category,omitempty"`
	Subcategory  string  `json:"subcategory,omitempty"`
	WeightLbs    float64 `json:"weight_lbs"`
}

// Phase2CalculateRequest is the layered-adjustment specialization: the two
// bonus percentages and the flat credit travel with the request.
type Phase2CalculateRequest struct {
	GroupKey             string  `json:"group_key"`
	WeightLbs            float64 `json:"weight_lbs"`
	EcoModulationPercent float64 `json:"eco_modulation_percent"`
	LCABonusPercent      float64 `json:"lca_bonus_percent"`
	ReuseCreditAmount    float64 `json:"reuse_credit_amount"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GroupedMaterials fetches the hierarchical category list for a grouped
// jurisdiction.
func (c *Client) GroupedMaterials(ctx context.Context, jurisdiction string) ([]Category, error) {
	code, err := feecore.NormalizeStateCode(jurisdiction)
	if err != nil {
		return nil, err
	}
	var out []Category
	if err := c.getJSON(ctx, "/materials/"+url.PathEscape(code)+"/grouped", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Phase2Groups fetches the flat phase-2 group list. The payload shape varies
// across deployments, so it is returned decoded-but-unshaped for
// feecore.NormalizeGroups to canonicalize.
func (c *Client) Phase2Groups(ctx context.Context, jurisdiction string) (any, error) {
	code, err := feecore.NormalizeStateCode(jurisdiction)
	if err != nil {
		return nil, err
	}
	var out any
	if err := c.getJSON(ctx, "/materials/"+url.PathEscape(code)+"/phase2/groups", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Calculate posts the jurisdiction-generic calculation request.
func (c *Client) Calculate(ctx context.Context, req CalculateRequest) (feecore.CalculationResponse, error) {
	var out feecore.CalculationResponse
	if err := c.postJSON(ctx, "/calculate", req, &out); err != nil {
		return feecore.CalculationResponse{}, err
	}
	return out, nil
}

// CalculatePhase2 posts the layered-adjustment calculation request.
func (c *Client) CalculatePhase2(ctx context.Context, jurisdiction string, req Phase2CalculateRequest) (feecore.CalculationResponse, error) {
	code, err := feecore.NormalizeStateCode(jurisdiction)
	if err != nil {
		return feecore.CalculationResponse{}, err
	}
	var out feecore.CalculationResponse
	if err := c.postJSON(ctx, "/calculate/"+url.PathEscape(code)+"/phase2", req, &out); err != nil {
		return feecore.CalculationResponse{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, dst)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, dst any) error {
	blob, err := json.Marshal(payload)
	if err != nil {
		return &Error{Op: "POST " + path, Err: err}
	}
	return c.doJSON(ctx, http.MethodPost, path, blob, dst)
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload []byte, dst any) error {
	op := method + " " + path
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()
	blob, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return &Error{Op: op, Status: resp.StatusCode, Body: string(blob)}
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
