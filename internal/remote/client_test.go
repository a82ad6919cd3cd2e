package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/packlane/epr-estimator/internal/feecore"
)

func TestPhase2GroupsNormalizesStateCodeIntoPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"groups":[{"group_key":"newspapers","group_name":"Newspapers","base_rate_per_lb":"0.0134"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	raw, err := c.Phase2Groups(context.Background(), "  CO ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/materials/co/phase2/groups" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	groups, drops := feecore.NormalizeGroups(raw)
	if len(drops) != 0 || len(groups) != 1 {
		t.Fatalf("unexpected normalization: %v %v", groups, drops)
	}
	if groups[0].BaseRatePerLb != 0.0134 {
		t.Fatalf("string rate not coerced: %v", groups[0].BaseRatePerLb)
	}
}

func TestPhase2GroupsRejectsBlankJurisdiction(t *testing.T) {
	c := NewClient("http://unused")
	if _, err := c.Phase2Groups(context.Background(), "   "); !errors.Is(err, feecore.ErrInvalidStateCode) {
		t.Fatalf("expected ErrInvalidStateCode, got %v", err)
	}
}

func TestCalculatePhase2RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/calculate/co/phase2" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %q", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"base_amount": 13.40,
			"eco_modulation_percent": 0.10,
			"lca_bonus_percent": 0.05,
			"final_payable": 11.39,
			"timeline": [
				{"label":"Base","amount":0,"running_total":13.40},
				{"label":"Eco-modulation bonus","amount":-1.34,"running_total":12.06},
				{"label":"LCA bonus","amount":-0.67,"running_total":11.39},
				{"label":"Final","amount":0,"running_total":11.39,"is_final":true}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.CalculatePhase2(context.Background(), "CO", Phase2CalculateRequest{
		GroupKey: "newspapers", WeightLbs: 1000,
		EcoModulationPercent: 0.10, LCABonusPercent: 0.05,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.BaseAmount != 13.40 {
		t.Fatalf("base: got %v", resp.BaseAmount)
	}
	if len(resp.Timeline) != 4 || !resp.Timeline[3].IsFinal {
		t.Fatalf("timeline not decoded: %+v", resp.Timeline)
	}
}

func TestRemoteStatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate schedule not published"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Calculate(context.Background(), CalculateRequest{Jurisdiction: "ca"})
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if re.Status != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", re.Status)
	}
}

func TestGroupedMaterials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/materials/ca/grouped" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"Paper","subcategories":[{"code":"news","name":"Newsprint","rate_per_lb":0.011}]}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	cats, err := c.GroupedMaterials(context.Background(), "CA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 1 || len(cats[0].Subcategories) != 1 {
		t.Fatalf("unexpected categories: %+v", cats)
	}
	if cats[0].Subcategories[0].RatePerLb != 0.011 {
		t.Fatalf("rate: got %v", cats[0].Subcategories[0].RatePerLb)
	}
}
