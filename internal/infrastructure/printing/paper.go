package printing

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4          PaperSize = "A4"           // 210mm x 297mm
	PaperSizeA5          PaperSize = "A5"           // 148mm x 210mm
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM" // 80mm thermal roll
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeReceipt80MM:
		return true
	}
	return false
}

// Dimensions returns width and height in millimeters. A thermal roll has no
// fixed height and reports 0.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeReceipt80MM:
		return 80, 0
	}
	return 0, 0
}

// IsRoll reports whether the paper is a continuous roll
func (p PaperSize) IsRoll() bool {
	return p == PaperSizeReceipt80MM
}

// Margins represents the page margins in millimeters
type Margins struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// DefaultMargins returns the margins used for sheet paper
func DefaultMargins() Margins {
	return Margins{Top: 12, Right: 12, Bottom: 12, Left: 12}
}

// RollMargins returns the minimal margins used on a thermal roll
func RollMargins() Margins {
	return Margins{Top: 2, Right: 2, Bottom: 2, Left: 2}
}
