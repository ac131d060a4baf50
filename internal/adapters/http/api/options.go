package api

// Option configures a Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps the number of rows a leaderboard request may return.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxBodyBytes limits the size of JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}
