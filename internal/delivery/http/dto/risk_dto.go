package dto

// PositionSizeRequest asks for a suggested size under the user's risk settings
type PositionSizeRequest struct {
	Balance float64 `json:"balance"` // optional, defaults to the paper balance
	Entry   float64 `json:"entry"`
	Stop    float64 `json:"stop"`
}

// PositionSizeOutput is the suggested size in base units and its notional
type PositionSizeOutput struct {
	Units    float64 `json:"units"`
	Notional float64 `json:"notional"`
	Rule     string  `json:"rule"`
}
