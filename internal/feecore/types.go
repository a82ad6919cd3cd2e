package feecore

// MaterialGroup is one jurisdiction-specific fee category, normalized from
// whatever shape the materials API returned it in. Rebuilt on every fetch,
// never mutated.
type MaterialGroup struct {
	GroupKey      string  `json:"group_key"`
	GroupName     string  `json:"group_name"`
	Status        string  `json:"status,omitempty"`
	BaseRatePerLb float64 `json:"base_rate_per_lb"`
}

// TimelineStep is one entry of the remote's optional ordered adjustment list.
// RunningTotal is the cumulative payable after the step; Amount is the signed
// delta the step applied (zero on the starting step).
type TimelineStep struct {
	Label        string  `json:"label"`
	Description  string  `json:"description,omitempty"`
	Amount       float64 `json:"amount"`
	RunningTotal float64 `json:"running_total"`
	IsFinal      bool    `json:"is_final"`
}

// CalculationResponse is one remote answer to "what does this weight of this
// material cost". The echoed RatePerLb and FinalPayable fields are treated as
// untrusted display hints: the resolver and Derive are the source of record.
type CalculationResponse struct {
	Jurisdiction string `json:"jurisdiction,omitempty"`
	GroupKey     string `json:"group_key,omitempty"`
	MaterialCode string `json:"material_code,omitempty"`

	WeightLbs  float64 `json:"weight_lbs"`
	RatePerLb  float64 `json:"rate_per_lb,omitempty"`
	BaseAmount float64 `json:"base_amount"`

	EcoModulationPercent float64 `json:"eco_modulation_percent,omitempty"`
	LCABonusPercent      float64 `json:"lca_bonus_percent,omitempty"`
	ReuseCreditAmount    float64 `json:"reuse_credit_amount,omitempty"`

	FinalPayable float64 `json:"final_payable"`

	Timeline []TimelineStep `json:"timeline,omitempty"`
}

// DerivedValues is the client-side recomputation of a CalculationResponse
// into its layered deltas. Every renderer displays these numbers; the
// remote's own final_payable is never shown directly.
type DerivedValues struct {
	Base        float64
	EcoDelta    float64
	AfterEco    float64
	LCADelta    float64
	AfterLCA    float64
	ReuseCredit float64
	BeforeFloor float64

	// FinalPayable is max(0, BeforeFloor). Floored reports whether the
	// floor actually clamped a negative figure.
	FinalPayable float64
	Floored      bool

	EcoPercent float64
	LCAPercent float64
}

// NodeRole tags a timeline node's position.
type NodeRole string

const (
	NodeStart NodeRole = "start"
	NodeDelta NodeRole = "delta"
	NodeFinal NodeRole = "final"
)

// Canonical labels for the endpoints of every timeline, regardless of what
// the remote called its own first and last steps.
const (
	StartLabel = "Base dues"
	FinalLabel = "Final payable"
)

// TimelineNode is a renderer-agnostic projection of one adjustment step.
// Value carries the running total for start/final nodes and is zero on delta
// nodes; Delta is the signed adjustment and is zero on start/final nodes.
type TimelineNode struct {
	Label        string   `json:"label"`
	Role         NodeRole `json:"role"`
	Delta        float64  `json:"delta"`
	Value        float64  `json:"value"`
	ValueDisplay string   `json:"value_display,omitempty"`
	DeltaDisplay string   `json:"delta_display,omitempty"`
}

// Timeline is the full node sequence plus the scaling magnitude consumers
// divide bar heights by. DeltaMagnitude is never below 1.
type Timeline struct {
	Nodes          []TimelineNode `json:"nodes"`
	DeltaMagnitude float64        `json:"delta_magnitude"`
}
