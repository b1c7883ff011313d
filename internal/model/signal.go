package model

// SignalType identifies which chart structure produced a buy signal.
type SignalType string

const (
	SignalTwoB          SignalType = "2B_STRUCTURE"
	SignalConcentration SignalType = "MA_CONCENTRATION_BREAKOUT"
	SignalMATurnUp      SignalType = "MA_TURN_UP"
)

// PositionAdvice indicates how aggressively a signal should be sized.
type PositionAdvice string

const (
	// AdviceProbe suggests a light probing position pending confirmation.
	AdviceProbe PositionAdvice = "PROBE"
	// AdviceConfirm suggests a full position on a confirmed setup.
	AdviceConfirm PositionAdvice = "CONFIRM"
)

// BuySignal is an actionable entry produced by the signal synthesizer.
// Immutable once produced; ordering among signals for one symbol is
// insertion order (2B, concentration, turn-up), never re-sorted.
type BuySignal struct {
	SignalType      SignalType     `json:"signal_type"`
	PositionAdvice  PositionAdvice `json:"position_advice"`
	EntryPrice      float64        `json:"entry_price"`
	StopLoss        float64        `json:"stop_loss"`
	TargetPrice     float64        `json:"target_price"`
	RiskRewardRatio float64        `json:"risk_reward_ratio"`
	Reasoning       string         `json:"reasoning"`
}
