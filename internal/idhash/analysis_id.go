package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/mr-tron/base58"

	"risklo/internal/domain"
)

// ComputeAnalysisID computes a deterministic analysis id using SHA256.
// Formula: SHA256(run_id|sheet|account|contract_type|contracts|account_size|max_dd|sod_profit|safety_net|payout_profit|created_at)
// Absent optional inputs hash as "-". Returns hex-encoded hash (64 characters).
func ComputeAnalysisID(runID, accountName string, cfg domain.PositionConfig, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%s|%s|%s|%s|%s|%d",
		runID,
		cfg.SheetName,
		accountName,
		string(cfg.ContractType),
		cfg.Contracts,
		formatFloat(cfg.AccountSize),
		formatOption(cfg.MaxDrawdown),
		formatOption(cfg.StartOfDayProfit),
		formatOption(cfg.SafetyNet),
		formatOption(cfg.ProfitSinceLastPayout),
		createdAt,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortID encodes the first 8 bytes of a hex id in base58 for display.
// Ids that are not hex are returned unchanged.
func ShortID(id string) string {
	raw, err := hex.DecodeString(id)
	if err != nil || len(raw) < 8 {
		return id
	}
	return base58.Encode(raw[:8])
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOption(o domain.Option[float64]) string {
	if v, ok := o.Get(); ok {
		return formatFloat(v)
	}
	return "-"
}
