package server

// MarkFinished moves a room straight to the finished state so sweep and
// lobby-listing tests can exercise it without driving a full game.
func MarkFinished(r *Room) {
	r.setStatus(StatusFinished)
}
