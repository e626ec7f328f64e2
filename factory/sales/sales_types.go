package sales

import (
	"time"

	"stoneyard/models"
)

// AreaSaleInput sells finished square feet out of a block with slab
// output.
type AreaSaleInput struct {
	SqFt   float64 `json:"sqft"`
	SoldTo string  `json:"soldTo"`
	BillNo string  `json:"billNo"`
}

// WeightSaleInput sells raw tonnage out of a gantry block.
type WeightSaleInput struct {
	Tons   float64 `json:"tons"`
	SoldTo string  `json:"soldTo"`
	BillNo string  `json:"billNo"`
}

// CorrectionInput amends a committed sale. Empty strings keep the
// stored value; a nil SoldAt keeps the stored date.
type CorrectionInput struct {
	SoldTo string     `json:"soldTo"`
	BillNo string     `json:"billNo"`
	SoldAt *time.Time `json:"soldAt"`
}

// SaleResult carries the updated original and, for partial sales, the
// split record that left as Sold.
type SaleResult struct {
	Block models.Block  `json:"block"`
	Split *models.Block `json:"split,omitempty"`
}
