package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Block is a stone block tracked from purchase to sale. A row is the
// single source of truth for the block's lifecycle position; production
// history (machine, times, slab output) accumulates on it as the block
// moves through the factory.
type Block struct {
	bun.BaseModel `bun:"table:blocks,alias:b"`

	ID        int64  `bun:"id,pk,autoincrement" json:"id"`
	JobNo     string `bun:"job_no,notnull" json:"jobNo"`
	Company   string `bun:"company,notnull" json:"company"`
	Material  string `bun:"material,notnull" json:"material"`
	MinesMark string `bun:"mines_marka" json:"minesMarka"`
	Status    Status `bun:"status,notnull" json:"status"`
	EnteredBy string `bun:"entered_by,notnull" json:"enteredBy"`

	ArrivalDate *time.Time `bun:"arrival_date" json:"arrivalDate"`

	// Raw block measurements, recorded at gantry arrival.
	LengthIn   float64 `bun:"length_in,notnull,default:0" json:"lengthIn"`
	WidthIn    float64 `bun:"width_in,notnull,default:0" json:"widthIn"`
	HeightIn   float64 `bun:"height_in,notnull,default:0" json:"heightIn"`
	WeightTons float64 `bun:"weight_tons,notnull,default:0" json:"weightTons"`

	// Slab output, recorded when cutting finishes.
	SlabLengthIn float64 `bun:"slab_length_in,notnull,default:0" json:"slabLengthIn"`
	SlabWidthIn  float64 `bun:"slab_width_in,notnull,default:0" json:"slabWidthIn"`
	SlabCount    int64   `bun:"slab_count,notnull,default:0" json:"slabCount"`
	TotalSqFt    float64 `bun:"total_sqft,notnull,default:0" json:"totalSqFt"`

	PreCuttingProcess string `bun:"pre_cutting_process,notnull,default:'None'" json:"preCuttingProcess"`
	Thickness         string `bun:"thickness" json:"thickness"`
	AssignedMachineID string `bun:"assigned_machine" json:"assignedMachineId"`
	CutByMachine      string `bun:"cut_by_machine" json:"cutByMachine"`

	ProcessingStage    string `bun:"processing_stage" json:"processingStage"`
	IsSentToResin      bool   `bun:"is_sent_to_resin,notnull,default:false" json:"isSentToResin"`
	ResinTreatmentType string `bun:"resin_treatment_type" json:"resinTreatmentType"`
	StockyardLocation  string `bun:"stockyard_location" json:"stockyardLocation"`

	StartTime           *time.Time `bun:"start_time" json:"startTime"`
	EndTime             *time.Time `bun:"end_time" json:"endTime"`
	TotalCuttingMinutes int64      `bun:"total_cutting_minutes,notnull,default:0" json:"totalCuttingTimeMinutes"`
	ResinStartTime      *time.Time `bun:"resin_start_time" json:"resinStartTime"`
	ResinEndTime        *time.Time `bun:"resin_end_time" json:"resinEndTime"`

	SoldTo string     `bun:"sold_to" json:"soldTo"`
	BillNo string     `bun:"bill_no" json:"billNo"`
	SoldAt *time.Time `bun:"sold_at" json:"soldAt"`
	MSP    string     `bun:"msp" json:"msp"`

	// Logistics fields carried while the block is in transit. Cleared
	// when the block physically arrives at the gantry.
	Country             string     `bun:"country" json:"country"`
	Supplier            string     `bun:"supplier" json:"supplier"`
	Forwarder           string     `bun:"forwarder" json:"forwarder"`
	ShipmentGroup       string     `bun:"shipment_group" json:"shipmentGroup"`
	LoadingDate         *time.Time `bun:"loading_date" json:"loadingDate"`
	ExpectedArrivalDate *time.Time `bun:"expected_arrival_date" json:"expectedArrivalDate"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Recovery returns finished square feet per ton, rounded to two
// decimals. Blocks with no recorded weight report zero rather than
// dividing by it.
func (b Block) Recovery() float64 {
	if b.WeightTons <= 0 {
		return 0
	}
	return Round2(b.TotalSqFt / b.WeightTons)
}

// PowerCutPhase says which production stage a power cut interrupted.
type PowerCutPhase string

const (
	PhaseCutting PowerCutPhase = "cutting"
	PhaseResin   PowerCutPhase = "resin"
)

// PowerCut is a logged mains outage window attributed to one block.
// Duration is always derived from the window, never stored.
type PowerCut struct {
	bun.BaseModel `bun:"table:power_cuts,alias:pc"`

	ID        int64         `bun:"id,pk,autoincrement" json:"id"`
	BlockID   int64         `bun:"block_id,notnull" json:"blockId"`
	Phase     PowerCutPhase `bun:"phase,notnull" json:"phase"`
	StartAt   time.Time     `bun:"start_at,notnull" json:"start"`
	EndAt     time.Time     `bun:"end_at,notnull" json:"end"`
	CreatedAt time.Time     `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// StaffMember is a named operator who can sign in with a PIN.
type StaffMember struct {
	bun.BaseModel `bun:"table:staff,alias:st"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	PinHash   string    `bun:"pin_hash,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        string      `bun:"id,pk" json:"-"`
	StaffID   int64       `bun:"staff_id,notnull" json:"staffId"`
	Staff     StaffMember `bun:"rel:belongs-to,join:staff_id=id" json:"staff"`
	ExpiresAt time.Time   `bun:"expires_at,notnull" json:"expiresAt"`
	CreatedAt time.Time   `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// AuditLog captures immutable change history for key operations.
// Operator is the staff name at the time of the action so the trail
// survives staff deletion.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Operator   string    `bun:"operator,notnull" json:"operator"`
	Action     string    `bun:"action,notnull" json:"action"`
	EntityType string    `bun:"entity_type,notnull" json:"entityType"`
	EntityID   string    `bun:"entity_id,notnull" json:"entityId"`
	BeforeJSON string    `bun:"before_json" json:"beforeJson"`
	AfterJSON  string    `bun:"after_json" json:"afterJson"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}

// NormalizeJobNo canonicalizes a job number for storage and lookup:
// surrounding whitespace is dropped and letters are uppercased, so
// "  gr-101 " and "GR-101" name the same block.
func NormalizeJobNo(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
