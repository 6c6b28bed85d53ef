package compensation

// MaxAmount caps bonus and deduction amounts.
const MaxAmount = 500000

type BonusItem struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type" validate:"required"`
	Amount float64 `json:"amount" validate:"min=0,max=500000"`
}

type DeductionItem struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type" validate:"required"`
	Amount float64 `json:"amount" validate:"min=0,max=500000"`
}
