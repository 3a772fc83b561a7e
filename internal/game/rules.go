package game

// SlapReason names the pile condition that makes a slap valid.
type SlapReason string

const (
	SlapReasonJack     SlapReason = "jack"
	SlapReasonDoubles  SlapReason = "doubles"
	SlapReasonSandwich SlapReason = "sandwich"
	SlapReasonInvalid  SlapReason = "invalid"
)

type Rules struct {
	EnableDoubles  bool
	EnableSandwich bool
}

func NewRules(enableDoubles, enableSandwich bool) *Rules {
	return &Rules{
		EnableDoubles:  enableDoubles,
		EnableSandwich: enableSandwich,
	}
}

// CheckSlap evaluates the pile top-down; the first matching condition wins.
// A jack on top is always slappable regardless of the variant toggles.
func (r *Rules) CheckSlap(pile []Card) SlapReason {
	if len(pile) == 0 {
		return SlapReasonInvalid
	}

	if pile[len(pile)-1].IsJack() {
		return SlapReasonJack
	}

	if r.EnableDoubles && len(pile) >= 2 {
		if pile[len(pile)-1].Rank == pile[len(pile)-2].Rank {
			return SlapReasonDoubles
		}
	}

	if r.EnableSandwich && len(pile) >= 3 {
		if pile[len(pile)-1].Rank == pile[len(pile)-3].Rank {
			return SlapReasonSandwich
		}
	}

	return SlapReasonInvalid
}

func (r *Rules) IsValidSlap(pile []Card) bool {
	return r.CheckSlap(pile) != SlapReasonInvalid
}
