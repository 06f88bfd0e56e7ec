package service

// PVHistory keeps the last N PV voltage samples, oldest first.
type PVHistory struct {
	capacity int
	values   []float64
}

func NewPVHistory(capacity int) *PVHistory {
	if capacity < 1 {
		capacity = 1
	}
	return &PVHistory{
		capacity: capacity,
		values:   make([]float64, 0, capacity),
	}
}

func (h *PVHistory) Append(value float64) {
	if len(h.values) == h.capacity {
		copy(h.values, h.values[1:])
		h.values = h.values[:h.capacity-1]
	}
	h.values = append(h.values, value)
}

func (h *PVHistory) Values() []float64 {
	return append([]float64{}, h.values...)
}
