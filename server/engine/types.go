package engine

type Seat string

const (
	P1     Seat = "P1"
	P2     Seat = "P2"
	Dealer Seat = "DEALER"
)

type ActionKind string

const (
	Hit       ActionKind = "hit"
	Stand     ActionKind = "stand"
	Double    ActionKind = "double"
	Surrender ActionKind = "surrender"
)

type Action struct {
	Seat Seat       `json:"seat"`
	Kind ActionKind `json:"action"`
	Card string     `json:"card,omitempty"` // card drawn by hit/double
}

type Card struct {
	Rank int
	Suit byte
} // e.g. "As" => rank 14, suit 's'
