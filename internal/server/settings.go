package server

// Settings is the per-room rule configuration, host-editable in the lobby.
type Settings struct {
	MaxPlayers     int  `json:"maxPlayers"`
	SlapCooldownMs int  `json:"slapCooldownMs"`
	TurnTimeoutMs  int  `json:"turnTimeoutMs"`
	EnableSandwich bool `json:"enableSandwich"`
	EnableDoubles  bool `json:"enableDoubles"`
	BurnPenalty    int  `json:"burnPenalty"`
	EnableSlapIn   bool `json:"enableSlapIn"`
	MaxSlapIns     int  `json:"maxSlapIns"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:     4,
		SlapCooldownMs: 200,
		TurnTimeoutMs:  10000,
		EnableSandwich: true,
		EnableDoubles:  true,
		BurnPenalty:    1,
		EnableSlapIn:   true,
		MaxSlapIns:     3,
	}
}

// Apply overwrites s from the payload, clamping numeric fields to their
// allowed ranges. Out-of-range values keep the current setting.
func (s *Settings) Apply(p UpdateSettingsPayload) {
	if p.MaxPlayers >= 2 && p.MaxPlayers <= 8 {
		s.MaxPlayers = p.MaxPlayers
	}
	if p.SlapCooldownMs >= 0 && p.SlapCooldownMs <= 1000 {
		s.SlapCooldownMs = p.SlapCooldownMs
	}
	if p.TurnTimeoutMs >= 5000 && p.TurnTimeoutMs <= 60000 {
		s.TurnTimeoutMs = p.TurnTimeoutMs
	}
	s.EnableSandwich = p.EnableSandwich
	s.EnableDoubles = p.EnableDoubles
	if p.BurnPenalty >= 0 && p.BurnPenalty <= 5 {
		s.BurnPenalty = p.BurnPenalty
	}
	s.EnableSlapIn = p.EnableSlapIn
	if p.MaxSlapIns >= 1 && p.MaxSlapIns <= 10 {
		s.MaxSlapIns = p.MaxSlapIns
	}
}
