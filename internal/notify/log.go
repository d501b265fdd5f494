package notify

import "log/slog"

// LogEvents writes every event to slog. It returns a func that removes the
// subscriptions.
func LogEvents(b *Bus, logger *slog.Logger) func() {
	cancels := []func(){
		Subscribe(b, func(ev MatchUpcoming) {
			logger.Info("match upcoming", "tournament_id", ev.TournamentID, "match_id", ev.MatchID,
				"player1_id", ev.Player1ID, "player2_id", ev.Player2ID)
		}),
		Subscribe(b, func(ev MatchResult) {
			logger.Info("match result", "tournament_id", ev.TournamentID, "match_id", ev.MatchID,
				"winner_id", ev.WinnerID, "score_p1", ev.ScoreP1, "score_p2", ev.ScoreP2, "override", ev.Override)
		}),
		Subscribe(b, func(ev ScoreDisputed) {
			logger.Warn("score disputed", "tournament_id", ev.TournamentID, "match_id", ev.MatchID, "game_id", ev.GameID)
		}),
		Subscribe(b, func(ev TournamentCompleted) {
			logger.Info("tournament completed", "tournament_id", ev.TournamentID)
		}),
		Subscribe(b, func(ev IntegrityWarning) {
			logger.Warn("bracket integrity", "tournament_id", ev.TournamentID, "match_id", ev.MatchID, "reason", ev.Reason)
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
