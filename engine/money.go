package engine

import "fmt"

// The economy is two closed pools (bank, government) plus player balances.
// Every transition below moves money between them; nothing is minted, so
// TotalMoney is invariant across any sequence of actions.

// creditFromGov pays a player out of the government pool.
func (d *GameDocument) creditFromGov(p *PlayerState, amount int) {
	d.GovMoney -= amount
	p.Money += amount
}

// creditFromBank pays a player out of the bank pool.
func (d *GameDocument) creditFromBank(p *PlayerState, amount int) {
	d.BankMoney -= amount
	p.Money += amount
}

// payToGov debits the player toward the government. A shortfall bankrupts
// the payer: the government receives only what was available and the rest
// of the debt is forfeited.
func (d *GameDocument) payToGov(p *PlayerState, amount int) (paid int) {
	paid = d.debit(p, amount)
	d.GovMoney += paid
	return paid
}

// payToBank debits the player toward the bank, with the same shortfall rule.
func (d *GameDocument) payToBank(p *PlayerState, amount int) (paid int) {
	paid = d.debit(p, amount)
	d.BankMoney += paid
	return paid
}

// payToPlayer transfers between players, with the same shortfall rule.
func (d *GameDocument) payToPlayer(payer, payee *PlayerState, amount int) (paid int) {
	paid = d.debit(payer, amount)
	payee.Money += paid
	return paid
}

// debit removes up to amount from the player. If the balance cannot cover
// it the player goes bankrupt in the same transition, never as a separate
// step, and only the available balance is returned.
func (d *GameDocument) debit(p *PlayerState, amount int) int {
	if p.Money >= amount {
		p.Money -= amount
		return amount
	}
	available := p.Money
	p.Money = 0
	d.declareBankrupt(p)
	return available
}

// declareBankrupt marks the player bankrupt and releases every property
// they own back to unowned. Development levels survive the release; a later
// buyer picks the property up as-is.
func (d *GameDocument) declareBankrupt(p *PlayerState) {
	p.IsBankrupt = true
	for _, id := range p.Properties {
		if prop, err := d.Property(id); err == nil {
			prop.Owner = ""
		}
	}
	p.Properties = nil
	if d.CurrentSwapProposal != nil &&
		(d.CurrentSwapProposal.InitiatorID == p.ID || d.CurrentSwapProposal.TargetID == p.ID) {
		d.CurrentSwapProposal = nil
	}
	d.LastActionMessage = fmt.Sprintf("%s is bankrupt", p.Name)
	d.checkGameEnd()
}

// checkGameEnd finishes the game once at most one non-bankrupt player (or,
// in team mode, one surviving team) remains.
func (d *GameDocument) checkGameEnd() {
	if d.Status == StatusFinished {
		return
	}
	alive := d.NonBankruptPlayers()
	if d.TeamMode {
		teams := make(map[string]bool)
		for _, p := range alive {
			teams[p.Team] = true
		}
		if len(teams) <= 1 {
			d.Status = StatusFinished
			if len(alive) > 0 {
				d.WinnerTeam = alive[0].Team
				d.Winner = alive[0].ID
				d.LastActionMessage = fmt.Sprintf("team %s wins", alive[0].Team)
			}
		}
		return
	}
	if len(alive) <= 1 {
		d.Status = StatusFinished
		if len(alive) == 1 {
			d.Winner = alive[0].ID
			d.LastActionMessage = fmt.Sprintf("%s wins the game", alive[0].Name)
		}
	}
}
