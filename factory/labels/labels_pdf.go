package labels

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"
)

// BlockLabelData carries everything a printed job card shows. Machine
// holds whichever machine is relevant for the block's stage, the one
// it sits on while cutting or the one that cut it afterwards.
type BlockLabelData struct {
	BlockID     int64
	JobNo       string
	Company     string
	Material    string
	MinesMark   string
	Status      string
	Thickness   string
	Machine     string
	WeightTons  float64
	SlabCount   int64
	TotalSqFt   float64
	ArrivalDate *time.Time
}

func renderBlockLabelPDF(label BlockLabelData, printedAt time.Time) ([]byte, error) {
	return renderBlockLabelsPDF([]BlockLabelData{label}, printedAt)
}

// renderBlockLabelsPDF lays out one A5 job card per block, each with a
// scannable code128 of the job number.
func renderBlockLabelsPDF(labels []BlockLabelData, printedAt time.Time) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels to render")
	}

	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("Block Job Cards", false)
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		jobNo := strings.TrimSpace(label.JobNo)
		if jobNo == "" {
			return nil, fmt.Errorf("block %d has no job number", label.BlockID)
		}
		barcodePNG, err := renderCode128PNG(jobNo, 1200, 260)
		if err != nil {
			return nil, err
		}

		pdf.AddPage()
		company := strings.TrimSpace(label.Company)
		if company == "" {
			company = "Unknown Company"
		}
		stone := strings.TrimSpace(label.Material)
		if stone == "" {
			stone = "Unknown Material"
		}
		if marka := strings.TrimSpace(label.MinesMark); marka != "" {
			stone += " / " + marka
		}
		arrivalText := "N/A"
		if label.ArrivalDate != nil && !label.ArrivalDate.IsZero() {
			arrivalText = label.ArrivalDate.Format("02/01/2006")
		}

		pageW, _ := pdf.GetPageSize()

		companyFont := fitFontSizeForWidth(pdf, "Helvetica", "B", 26, 14, company, pageW-20)
		pdf.SetFont("Helvetica", "B", companyFont)
		pdf.CellFormat(0, 14, company, "", 1, "C", false, 0, "")

		jobLine := "JOB NO: " + jobNo
		jobFont := fitFontSizeForWidth(pdf, "Helvetica", "B", 34, 18, jobLine, pageW-20)
		pdf.SetFont("Helvetica", "B", jobFont)
		pdf.CellFormat(0, 16, jobLine, "", 1, "C", false, 0, "")

		stoneFont := fitFontSizeForWidth(pdf, "Helvetica", "", 14, 9, stone, pageW-20)
		pdf.SetFont("Helvetica", "", stoneFont)
		pdf.CellFormat(0, 8, stone, "", 1, "C", false, 0, "")

		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, fmt.Sprintf("Weight: %.2f t    Slabs: %d    Area: %.2f sq ft",
			label.WeightTons, label.SlabCount, label.TotalSqFt), "", 1, "C", false, 0, "")

		stageLine := "Status: " + label.Status
		if machine := strings.TrimSpace(label.Machine); machine != "" {
			stageLine += "    Machine: " + machine
		}
		if thickness := strings.TrimSpace(label.Thickness); thickness != "" {
			stageLine += "    Thickness: " + thickness
		}
		pdf.CellFormat(0, 7, stageLine, "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 7, "Arrived: "+arrivalText+"    Printed: "+printedAt.Format("02/01/2006"), "", 1, "C", false, 0, "")

		opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		imageName := fmt.Sprintf("block-barcode-%d-%d", label.BlockID, i)
		pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
		imgW := 150.0
		imgH := 36.0
		x := (pageW - imgW) / 2
		y := 86.0
		pdf.ImageOptions(imageName, x, y, imgW, imgH, false, opt, 0, "")

		pdf.SetY(y + imgH + 4)
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 9, jobNo, "", 1, "C", false, 0, "")
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	normalized := toNRGBA(scaled)
	var barcodePNG bytes.Buffer
	if err := png.Encode(&barcodePNG, normalized); err != nil {
		return nil, err
	}
	return barcodePNG.Bytes(), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}
