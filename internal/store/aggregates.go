package store

type Economy struct {
	Income   float64
	Expenses float64
}

func (e Economy) Profit() float64 { return e.Income - e.Expenses }

type BDI struct {
	Beliefs    []string
	Desires    []string
	Intentions []string
}

type Prediction struct {
	Liters     float64
	Confidence float64
	Samples    int
}

type Weather struct {
	Condition   string
	Icon        string
	Evaporation float64
	RainChance  float64
}

type Clock struct {
	Day     int
	Hour    int
	Display string
}

func (c Clock) Night() bool { return c.Hour >= 18 || c.Hour < 6 }

type Inventory struct {
	Water     float64
	Fungicide float64
	Seeds     float64
	Crops     float64
	Money     float64
}

// Aggregates holds the whole-snapshot values. Each member is replaced
// wholesale; the Has flags record whether one has arrived yet.
type Aggregates struct {
	Economy    Economy
	BDI        BDI
	Prediction Prediction
	Weather    Weather
	Clock      Clock
	Inventory  Inventory

	HasEconomy    bool
	HasBDI        bool
	HasPrediction bool
	HasWeather    bool
	HasClock      bool
	HasInventory  bool
}

// Balance is the spendable amount reported by the latest inventory.
func (a Aggregates) Balance() float64 { return a.Inventory.Money }

func (a Aggregates) clone() Aggregates {
	a.BDI = BDI{
		Beliefs:    cloneStrings(a.BDI.Beliefs),
		Desires:    cloneStrings(a.BDI.Desires),
		Intentions: cloneStrings(a.BDI.Intentions),
	}
	return a
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
