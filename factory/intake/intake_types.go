package intake

import "time"

// PurchaseInput is one block bought at the quarry. Dimensions are not
// known yet; logistics fields track the shipment until it arrives.
type PurchaseInput struct {
	JobNo      string  `json:"jobNo"`
	Company    string  `json:"company"`
	Material   string  `json:"material"`
	WeightTons float64 `json:"weightTons"`
	MinesMark  string  `json:"minesMarka"`
	MSP        string  `json:"msp"`

	Country             string     `json:"country"`
	Supplier            string     `json:"supplier"`
	Forwarder           string     `json:"forwarder"`
	ShipmentGroup       string     `json:"shipmentGroup"`
	LoadingDate         *time.Time `json:"loadingDate"`
	ExpectedArrivalDate *time.Time `json:"expectedArrivalDate"`
}

// ArrivalInput is one block bought at the factory gate, entering the
// yard directly at the gantry with measurements already taken.
type ArrivalInput struct {
	JobNo       string     `json:"jobNo"`
	Company     string     `json:"company"`
	Material    string     `json:"material"`
	WeightTons  float64    `json:"weightTons"`
	MinesMark   string     `json:"minesMarka"`
	MSP         string     `json:"msp"`
	LengthIn    float64    `json:"lengthIn"`
	WidthIn     float64    `json:"widthIn"`
	HeightIn    float64    `json:"heightIn"`
	ArrivalDate *time.Time `json:"arrivalDate"`
}

// ArrivalDims records the gantry measurement of a previously purchased
// block. A nil ArrivalDate means the block arrived just now.
type ArrivalDims struct {
	LengthIn    float64    `json:"lengthIn"`
	WidthIn     float64    `json:"widthIn"`
	HeightIn    float64    `json:"heightIn"`
	MinesMark   string     `json:"minesMarka"`
	ArrivalDate *time.Time `json:"arrivalDate"`
}

// DeleteResult reports a bulk delete the way the floor reads it: how
// many rows went away and how many could not.
type DeleteResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}
