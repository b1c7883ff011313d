// Package risk provides the stateless position-sizing and trade-plan
// validation rules shared by the scanner callers and the backtester.
package risk

import "fmt"

// DefaultRiskPerTrade is the fraction of account value risked per trade.
const DefaultRiskPerTrade = 0.02

// SizeResult is the outcome of a position-size calculation.
type SizeResult struct {
	Shares     int     `json:"shares"`
	RiskAmount float64 `json:"risk_amount"`
	TotalCost  float64 `json:"total_cost"`
}

// PositionSize computes how many shares to buy so that a stop-out loses at
// most riskPerTrade of account value. Zero or negative per-share risk yields
// zero shares; the caller skips the entry rather than aborting.
func PositionSize(accountValue, entryPrice, stopLoss, riskPerTrade float64) SizeResult {
	riskAmount := accountValue * riskPerTrade
	perShareRisk := entryPrice - stopLoss
	if perShareRisk < 0 {
		perShareRisk = -perShareRisk
	}
	if perShareRisk <= 0 {
		return SizeResult{}
	}

	shares := int(riskAmount / perShareRisk)
	return SizeResult{
		Shares:     shares,
		RiskAmount: riskAmount,
		TotalCost:  float64(shares) * entryPrice,
	}
}

// ValidatePlan checks a manual trade plan against the house rules and
// returns the list of violations, empty when the plan is acceptable.
func ValidatePlan(entryPrice, stopLoss, targetPrice, riskRewardRatio, maxLossPct float64) []string {
	var errs []string
	if riskRewardRatio < 2.0 {
		errs = append(errs, fmt.Sprintf("risk/reward %.2f below 2.0", riskRewardRatio))
	}
	if maxLossPct >= 10.0 {
		errs = append(errs, fmt.Sprintf("max loss %.1f%% at or above 10%%", maxLossPct))
	}
	if stopLoss >= entryPrice {
		errs = append(errs, "stop loss at or above entry")
	}
	if targetPrice <= entryPrice {
		errs = append(errs, "target at or below entry")
	}
	return errs
}
