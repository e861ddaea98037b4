package engine

// Board geometry and the fixed economy constants.
const (
	BoardSize         = 40
	StartPosition     = 0
	VisitingPosition  = 10
	PayoutPosition    = 20
	DetentionPosition = 30

	PassStartBonus = 200
	DetentionFine  = 50
	MaxTenancies   = 4

	StartingMoney = 1500
	BankReserve   = 20000
	GovReserve    = 20000

	// VoucherDiscountQuarter: a housing voucher knocks 25% off a purchase.
	VoucherDiscountQuarter = 4

	MaxSeats = 6
)

// Street groups in board order. The two flat-rent groups are the
// auto-consolidating "special sets" of three.
const (
	GroupDockside  = "dockside"
	GroupOldTown   = "old-town"
	GroupMarket    = "market"
	GroupMidtown   = "midtown"
	GroupTheatre   = "theatre"
	GroupUptown    = "uptown"
	GroupParkside  = "parkside"
	GroupHilltop   = "hilltop"
	GroupTransit   = "transit"
	GroupUtilities = "utilities"
)

// autoConsolidating lists the special flat-rent sets that collapse toward a
// single owner (see BuyProperty).
var autoConsolidating = map[string]bool{
	GroupTransit:   true,
	GroupUtilities: true,
}

// IsAutoConsolidating reports whether a group follows the collapse rule.
func IsAutoConsolidating(group string) bool { return autoConsolidating[group] }

func street(id int, name, group string, price int, rent [6]int, devCost int) BoardSpace {
	return BoardSpace{
		ID: id, Name: name, Type: SpaceStreet, Group: group,
		Price: price, Rent: rent[:], DevCost: devCost,
	}
}

func flat(id int, name, group string, price, perUnit int) BoardSpace {
	return BoardSpace{
		ID: id, Name: name, Type: SpaceFlat, Group: group,
		Price: price, PerUnit: perUnit,
	}
}

// NewBoard returns the fixed 40-space ring: 22 tiered streets across eight
// color groups, two flat-rent special sets of three, and the event spaces.
func NewBoard() []BoardSpace {
	return []BoardSpace{
		{ID: 0, Name: "Start", Type: SpaceStart},
		street(1, "Cannery Row", GroupDockside, 60, [6]int{2, 10, 30, 90, 160, 250}, 50),
		{ID: 2, Name: "Welfare Office", Type: SpaceWelfare},
		street(3, "Harbour Lane", GroupDockside, 60, [6]int{4, 20, 60, 180, 320, 450}, 50),
		{ID: 4, Name: "Income Levy", Type: SpaceTax, Amount: 200},
		flat(5, "South Station", GroupTransit, 200, 25),
		street(6, "Cooper Street", GroupOldTown, 100, [6]int{6, 30, 90, 270, 400, 550}, 50),
		{ID: 7, Name: "Opportunity", Type: SpaceOpportunity},
		street(8, "Tanner's Walk", GroupOldTown, 100, [6]int{6, 30, 90, 270, 400, 550}, 50),
		street(9, "Guild Row", GroupOldTown, 120, [6]int{8, 40, 100, 300, 450, 600}, 50),
		{ID: 10, Name: "Detention (Visiting)", Type: SpaceVisiting},
		street(11, "Foundry Road", GroupMarket, 140, [6]int{10, 50, 150, 450, 625, 750}, 100),
		flat(12, "Water Works", GroupUtilities, 150, 20),
		street(13, "Mill Street", GroupMarket, 140, [6]int{10, 50, 150, 450, 625, 750}, 100),
		street(14, "Grange Square", GroupMarket, 160, [6]int{12, 60, 180, 500, 700, 900}, 100),
		flat(15, "Central Station", GroupTransit, 200, 25),
		street(16, "Weaver's End", GroupMidtown, 180, [6]int{14, 70, 200, 550, 750, 950}, 100),
		{ID: 17, Name: "Welfare Office", Type: SpaceWelfare},
		street(18, "Ropewalk", GroupMidtown, 180, [6]int{14, 70, 200, 550, 750, 950}, 100),
		street(19, "Tenter Yard", GroupMidtown, 200, [6]int{16, 80, 220, 600, 800, 1000}, 100),
		{ID: 20, Name: "City Grant", Type: SpacePayout, Amount: 100},
		street(21, "Playhouse Lane", GroupTheatre, 220, [6]int{18, 90, 250, 700, 875, 1050}, 150),
		{ID: 22, Name: "Opportunity", Type: SpaceOpportunity},
		street(23, "Gallery Walk", GroupTheatre, 220, [6]int{18, 90, 250, 700, 875, 1050}, 150),
		street(24, "Promenade", GroupTheatre, 240, [6]int{20, 100, 300, 750, 925, 1100}, 150),
		flat(25, "North Station", GroupTransit, 200, 25),
		street(26, "Arcadia Avenue", GroupUptown, 260, [6]int{22, 110, 330, 800, 975, 1150}, 150),
		street(27, "Belmont Rise", GroupUptown, 260, [6]int{22, 110, 330, 800, 975, 1150}, 150),
		flat(28, "Gas Works", GroupUtilities, 150, 20),
		street(29, "Crescent Gardens", GroupUptown, 280, [6]int{24, 120, 360, 850, 1025, 1200}, 150),
		{ID: 30, Name: "Go To Detention", Type: SpaceDetention},
		street(31, "Regent Terrace", GroupParkside, 300, [6]int{26, 130, 390, 900, 1100, 1275}, 200),
		street(32, "Kingfisher Court", GroupParkside, 300, [6]int{26, 130, 390, 900, 1100, 1275}, 200),
		{ID: 33, Name: "Welfare Office", Type: SpaceWelfare},
		street(34, "Summit Close", GroupParkside, 320, [6]int{28, 150, 450, 1000, 1200, 1400}, 200),
		flat(35, "Power Station", GroupUtilities, 150, 20),
		{ID: 36, Name: "Opportunity", Type: SpaceOpportunity},
		street(37, "Lakeshore Drive", GroupHilltop, 350, [6]int{35, 175, 500, 1100, 1300, 1500}, 200),
		{ID: 38, Name: "Code Violation", Type: SpacePenalty, Amount: 150},
		street(39, "Observatory Hill", GroupHilltop, 400, [6]int{50, 200, 600, 1400, 1700, 2000}, 200),
	}
}

// newPropertyData builds one ownership record per ownable space.
func newPropertyData(board []BoardSpace) []PropertyState {
	var props []PropertyState
	for i := range board {
		if board[i].Ownable() {
			props = append(props, PropertyState{ID: board[i].ID})
		}
	}
	return props
}
