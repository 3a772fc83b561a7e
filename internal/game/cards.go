package game

import (
	"encoding/json"
	"fmt"
)

type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

var suitString = map[Suit]string{
	Hearts:   "hearts",
	Diamonds: "diamonds",
	Clubs:    "clubs",
	Spades:   "spades",
}

var suitFromString = map[string]Suit{
	"hearts":   Hearts,
	"diamonds": Diamonds,
	"clubs":    Clubs,
	"spades":   Spades,
}

func (s Suit) String() string {
	return suitString[s]
}

func (s Suit) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	suit, ok := suitFromString[name]
	if !ok {
		return fmt.Errorf("unknown suit %q", name)
	}
	*s = suit
	return nil
}

// Rank values double as the A-high ordering (Two=2 ... Ace=14).
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankString = map[Rank]string{
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "J",
	Queen: "Q",
	King:  "K",
	Ace:   "A",
}

var rankFromString = map[string]Rank{
	"2": Two, "3": Three, "4": Four, "5": Five, "6": Six, "7": Seven,
	"8": Eight, "9": Nine, "10": Ten, "J": Jack, "Q": Queen, "K": King, "A": Ace,
}

func (r Rank) String() string {
	return rankString[r]
}

func (r Rank) Value() int {
	return int(r)
}

func (r Rank) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Rank) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	rank, ok := rankFromString[name]
	if !ok {
		return fmt.Errorf("unknown rank %q", name)
	}
	*r = rank
	return nil
}

type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

func (c Card) IsJack() bool {
	return c.Rank == Jack
}
