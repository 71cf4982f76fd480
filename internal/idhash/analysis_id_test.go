package idhash

import (
	"testing"

	"github.com/mr-tron/base58"

	"risklo/internal/domain"
)

func baseConfig() domain.PositionConfig {
	return domain.PositionConfig{
		SheetName:    "Alpha",
		AccountSize:  50000,
		Contracts:    1,
		ContractType: domain.ContractNQ,
		MaxDrawdown:  domain.Some(2500.0),
	}
}

func TestComputeAnalysisID_Deterministic(t *testing.T) {
	id1 := ComputeAnalysisID("run", "PA-1", baseConfig(), 1700000000000)
	id2 := ComputeAnalysisID("run", "PA-1", baseConfig(), 1700000000000)

	if id1 != id2 {
		t.Errorf("Same inputs produced different ids: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("Hash length = %d, want 64", len(id1))
	}
}

func TestComputeAnalysisID_InputsChangeHash(t *testing.T) {
	base := ComputeAnalysisID("", "", baseConfig(), 1)

	tests := []struct {
		name   string
		mutate func(*domain.PositionConfig)
		runID  string
		at     int64
	}{
		{name: "run id", runID: "other", at: 1},
		{name: "created at", at: 2},
		{name: "contracts", mutate: func(c *domain.PositionConfig) { c.Contracts = 2 }, at: 1},
		{name: "contract type", mutate: func(c *domain.PositionConfig) { c.ContractType = domain.ContractMNQ }, at: 1},
		{name: "drawdown absent", mutate: func(c *domain.PositionConfig) { c.MaxDrawdown = domain.None[float64]() }, at: 1},
		{name: "safety net present", mutate: func(c *domain.PositionConfig) { c.SafetyNet = domain.Some(0.0) }, at: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			if got := ComputeAnalysisID(tt.runID, "", cfg, tt.at); got == base {
				t.Errorf("Expected different id when %s changes", tt.name)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	id := ComputeAnalysisID("", "", baseConfig(), 1)
	short := ShortID(id)

	decoded, err := base58.Decode(short)
	if err != nil {
		t.Fatalf("ShortID is not base58: %v", err)
	}
	if len(decoded) != 8 {
		t.Errorf("Decoded length = %d, want 8", len(decoded))
	}
	if ShortID(id) != short {
		t.Error("ShortID not deterministic")
	}
	if got := ShortID("not-hex"); got != "not-hex" {
		t.Errorf("ShortID(non-hex) = %q, want input unchanged", got)
	}
}
