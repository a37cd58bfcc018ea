package shop

// View is a render frame: a deep copy of everything the presentation layer
// draws. It shares nothing with the shop.
type View struct {
	Phase         Phase           `json:"phase"`
	TimeRemaining int             `json:"timeRemainingSec"`
	Revenue       int             `json:"revenue"`
	Goal          int             `json:"goal"`
	PricePerUnit  int             `json:"pricePerUnit"`
	Slots         []SlotView      `json:"slots"`
	Customers     []CustomerView  `json:"customers"`
	Plate         map[Filling]int `json:"plate"`
	Serving       uint64          `json:"serving,omitempty"`
}

type SlotView struct {
	ID          int       `json:"id"`
	State       SlotState `json:"state"`
	Filling     Filling   `json:"filling,omitempty"`
	RemainingMs int64     `json:"remainingMs"`
}

type CustomerView struct {
	ID            uint64  `json:"id"`
	Order         Order   `json:"order"`
	PatienceMs    int64   `json:"patienceMs"`
	MaxPatienceMs int64   `json:"maxPatienceMs"`
	Satisfaction  float64 `json:"satisfaction"`
}

func (s *Shop) View() View {
	v := View{
		Phase:         s.day.Phase(),
		TimeRemaining: s.day.TimeRemaining(),
		Revenue:       s.day.Revenue(),
		Goal:          s.day.Goal(),
		PricePerUnit:  s.day.PricePerUnit(),
		Slots:         make([]SlotView, 0, s.station.Len()),
		Customers:     make([]CustomerView, 0, s.queue.Len()),
		Plate:         s.plate.Counts(),
	}
	for _, slot := range s.station.Slots() {
		v.Slots = append(v.Slots, SlotView{
			ID:          slot.ID,
			State:       slot.State,
			Filling:     slot.Filling,
			RemainingMs: slot.Remaining.Milliseconds(),
		})
	}
	for _, c := range s.queue.Customers() {
		v.Customers = append(v.Customers, CustomerView{
			ID:            c.ID,
			Order:         c.Order,
			PatienceMs:    c.Patience.Milliseconds(),
			MaxPatienceMs: c.MaxPatience.Milliseconds(),
			Satisfaction:  c.Satisfaction(),
		})
	}
	if s.matcher != nil {
		v.Serving, _ = s.matcher.Serving()
	}
	return v
}
