package game

import "math/rand"

type Deck struct {
	cards []Card
}

// NewDeck builds the standard 52-card deck in suit/rank order.
func NewDeck() *Deck {
	cards := make([]Card, 0, 52)
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			cards = append(cards, Card{Suit: suit, Rank: rank})
		}
	}
	return &Deck{cards: cards}
}

func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal distributes the whole deck round-robin across numPlayers hands.
// Hands are uneven by at most one card when 52 does not divide evenly.
func (d *Deck) Deal(numPlayers int) [][]Card {
	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, 52/numPlayers+1)
	}
	for i, card := range d.cards {
		hands[i%numPlayers] = append(hands[i%numPlayers], card)
	}
	return hands
}

func (d *Deck) Count() int {
	return len(d.cards)
}
