package shop

import "fmt"

// Filling is the ingredient baked into a bungeoppang. The zero value means
// no filling.
type Filling uint8

const (
	NoFilling Filling = iota
	RedBean
	ChouxCream
	Pizza
	SweetPotato
	Chocolate
	Strawberry
	Blueberry
	Honey
)

// Fillings lists every real filling in enumeration order. Tie-breaks that
// depend on ordering use this order.
var Fillings = [...]Filling{
	RedBean,
	ChouxCream,
	Pizza,
	SweetPotato,
	Chocolate,
	Strawberry,
	Blueberry,
	Honey,
}

var fillingNames = [...]string{
	NoFilling:   "",
	RedBean:     "RED_BEAN",
	ChouxCream:  "CHOUX_CREAM",
	Pizza:       "PIZZA",
	SweetPotato: "SWEET_POTATO",
	Chocolate:   "CHOCOLATE",
	Strawberry:  "STRAWBERRY",
	Blueberry:   "BLUEBERRY",
	Honey:       "HONEY",
}

func (f Filling) Valid() bool {
	return f >= RedBean && f <= Honey
}

func (f Filling) String() string {
	if int(f) >= len(fillingNames) {
		return fmt.Sprintf("Filling(%d)", f)
	}
	return fillingNames[f]
}

func ParseFilling(s string) (Filling, error) {
	for _, f := range Fillings {
		if fillingNames[f] == s {
			return f, nil
		}
	}
	return NoFilling, fmt.Errorf("unknown filling %q", s)
}

func (f Filling) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Filling) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*f = NoFilling
		return nil
	}
	parsed, err := ParseFilling(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Order maps a filling to the quantity a customer wants. Absent fillings
// mean zero.
type Order map[Filling]int

// Units is the total number of bungeoppang in the order.
func (o Order) Units() int {
	n := 0
	for _, q := range o {
		n += q
	}
	return n
}

func (o Order) clone() Order {
	c := make(Order, len(o))
	for f, q := range o {
		c[f] = q
	}
	return c
}

