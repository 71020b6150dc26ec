package render

import "fmt"

// OverflowTolerance is how far, in CSS pixels, content may run past the
// page before it counts as overflowing.
const OverflowTolerance = 20

// Measurement is the rendered height of the A4 container and of the capture
// element inside it.
type Measurement struct {
	Container float64 `json:"container"`
	Content   float64 `json:"content"`
}

// OverflowWarning says the document will not fit on one page. It never
// blocks rendering or export; only the first page is ever produced.
type OverflowWarning struct {
	Container float64 `json:"container"`
	Content   float64 `json:"content"`
	Message   string  `json:"message"`
}

func (w *OverflowWarning) String() string {
	return fmt.Sprintf("%s (content %.0fpx, page %.0fpx)", w.Message, w.Content, w.Container)
}

// CheckOverflow returns a warning when content-OverflowTolerance exceeds
// the container, nil otherwise.
func CheckOverflow(m Measurement) *OverflowWarning {
	if m.Content-OverflowTolerance <= m.Container {
		return nil
	}
	return &OverflowWarning{
		Container: m.Container,
		Content:   m.Content,
		Message:   "Your data may overflow. Only one page can be rendered at the moment.",
	}
}
