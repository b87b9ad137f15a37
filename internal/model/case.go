package model

// CaseItem is one possible container drop with its estimated
// probability.
type CaseItem struct {
	Name        string  `json:"name" yaml:"name"`
	Rarity      string  `json:"rarity" yaml:"rarity"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Case is one container definition from the static catalog.
type Case struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Image       string     `json:"image,omitempty" yaml:"image"`
	RequiresKey bool       `json:"requires_key" yaml:"requires_key"`
	KeyPrice    float64    `json:"key_price" yaml:"key_price"`
	Items       []CaseItem `json:"items" yaml:"items"`
}

// EvaluatedDrop is one catalog drop with its resolved market price.
type EvaluatedDrop struct {
	CaseItem
	Price         float64 `json:"price"`
	ExpectedValue float64 `json:"expected_value"`
}

// CaseEvaluation is the opening economics of one container.
type CaseEvaluation struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Image         string          `json:"image,omitempty"`
	CasePrice     float64         `json:"case_price"`
	KeyPrice      float64         `json:"key_price"`
	OpeningCost   float64         `json:"opening_cost"`
	ExpectedValue float64         `json:"expected_value"`
	ExpectedNet   float64         `json:"expected_net"`
	Drops         []EvaluatedDrop `json:"drops"`
}
