package reconcile

import (
	"sort"
	"time"

	"farmview.ai/internal/history"
	"farmview.ai/internal/protocol"
	"farmview.ai/internal/store"
)

func (e *Engine) onHarvest(m protocol.HarvestComplete, at time.Time) {
	crop := m.Crop
	if crop == "" {
		crop = "crops"
	}
	field := orUnknown(string(m.Field))
	if m.Amount > 0 {
		e.hist.Appendf(history.Harvester, at, history.CatHarvest, "Harvested %.0f %s from Field %s", m.Amount, crop, field)
	} else {
		e.hist.Appendf(history.Harvester, at, history.CatHarvest, "Harvested %s from Field %s", crop, field)
	}
	e.hist.Appendf(history.Market, at, history.CatAuction, "Starting auction for %s from Field %s", crop, field)
}

func (e *Engine) onSupplierEvent(m protocol.SupplierEvent, at time.Time) {
	switch m.Tag() {
	case protocol.TypeSupplierProposal:
		e.st.UpsertCounterparty(m.Supplier, store.CounterpartyPatch{})
		e.hist.Appendf(history.Market, at, history.CatBid, "%s bids $%.2f", m.Supplier, m.Price)
	case protocol.TypeSupplierWon:
		// Read-modify-write: the store never accumulates by itself.
		c, _ := e.st.Counterparty(m.Supplier)
		wins := c.Wins + 1
		paid := c.Paid + m.Price
		e.st.UpsertCounterparty(m.Supplier, store.CounterpartyPatch{Wins: &wins, Paid: &paid})
		e.hist.Appendf(history.Market, at, history.CatWin, "%s WINS! Pays $%.2f", m.Supplier, m.Price)
	case protocol.TypeSupplierLost:
		e.st.UpsertCounterparty(m.Supplier, store.CounterpartyPatch{})
		e.hist.Appendf(history.Market, at, history.CatLose, "%s lost auction", m.Supplier)
	}
}

// onSupplierRoster overwrites standings with the simulation's own totals.
func (e *Engine) onSupplierRoster(m protocol.SupplierRoster) {
	for _, s := range m.Suppliers {
		wins := s.Wins
		paid := s.Spent
		e.st.UpsertCounterparty(s.Name, store.CounterpartyPatch{
			Wins:   &wins,
			Paid:   &paid,
			Budget: s.Budget.Ptr(),
		})
	}
}

func (e *Engine) onAuctionStart(m protocol.AuctionStart, at time.Time) {
	text := "Water auction started"
	if m.Message != "" {
		text = m.Message
	}
	if m.Suppliers > 0 {
		e.hist.Appendf(history.Market, at, history.CatCNP, "%s (%d suppliers)", text, m.Suppliers)
		return
	}
	e.hist.Append(history.Market, at, history.CatCNP, text)
}

func (e *Engine) onAuctionProposal(m protocol.AuctionProposal, at time.Time) {
	e.st.UpsertCounterparty(m.Supplier, store.CounterpartyPatch{})
	e.hist.Appendf(history.Market, at, history.CatBid, "  %s: $%.2f", m.Supplier, m.Price)
}

// onAuctionAccept logs the round result. Winner standings are only
// credited by SUPPLIER_WON so a round is never counted twice.
func (e *Engine) onAuctionAccept(m protocol.AuctionAccept, at time.Time) {
	if len(m.Bids) == 0 {
		e.hist.Appendf(history.Market, at, history.CatAccept, "%s @ $%.2f", m.Winner, m.Payment)
		return
	}
	e.hist.Appendf(history.Market, at, history.CatAuction, "Auction complete - %d bids received:", len(m.Bids))
	bids := append([]protocol.Bid(nil), m.Bids...)
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Amount > bids[j].Amount })
	for _, b := range bids {
		if b.Supplier == m.Winner {
			e.hist.Appendf(history.Market, at, history.CatWin, "  %s: $%.2f (WINNER - pays $%.2f)", b.Supplier, b.Amount, m.Payment)
			continue
		}
		e.hist.Appendf(history.Market, at, history.CatBid, "    %s: $%.2f", b.Supplier, b.Amount)
	}
	if m.WinningBid != m.Payment {
		e.hist.Appendf(history.Market, at, history.CatAccept,
			"Second-price auction: winner bid $%.2f, pays $%.2f", m.WinningBid, m.Payment)
	}
}

func (e *Engine) onAuctionReject(m protocol.AuctionReject) {
	e.st.UpsertCounterparty(m.Supplier, store.CounterpartyPatch{})
}
