package store

type Counterparty struct {
	Name      string
	Wins      int
	Paid      float64
	Budget    float64
	HasBudget bool
}

type CounterpartyPatch struct {
	Wins   *int
	Paid   *float64
	Budget *float64
}

func (c Counterparty) apply(p CounterpartyPatch) Counterparty {
	if p.Wins != nil {
		c.Wins = *p.Wins
	}
	if p.Paid != nil {
		c.Paid = *p.Paid
	}
	if p.Budget != nil {
		c.Budget = *p.Budget
		c.HasBudget = true
	}
	return c
}

// Remaining is budget minus paid, or false when no budget is known.
func (c Counterparty) Remaining() (float64, bool) {
	if !c.HasBudget {
		return 0, false
	}
	return c.Budget - c.Paid, true
}
