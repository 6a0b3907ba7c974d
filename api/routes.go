package api

func (s *Server) bindRoutes() *Server {
	r := s.router

	r.HandleFunc("/governance", s.handleGovernance()).
		Methods("GET")

	r.HandleFunc("/proposals", s.handleListProposals()).
		Methods("GET")
	r.HandleFunc("/proposals", s.handleSubmitProposal()).
		Methods("POST")
	r.HandleFunc("/proposals/{id:[0-9]+}", s.handleProposal()).
		Methods("GET")
	r.HandleFunc("/proposals/{id:[0-9]+}/voters", s.handleVoters()).
		Methods("GET")
	r.HandleFunc("/proposals/{id:[0-9]+}/tally", s.handleTally()).
		Methods("GET")
	r.HandleFunc("/proposals/{id:[0-9]+}/stakes/{voter}/{asset:[0-9]+}", s.handleStakes()).
		Methods("GET")
	r.HandleFunc("/proposals/{id:[0-9]+}/votes", s.handleVote()).
		Methods("POST")
	r.HandleFunc("/proposals/{id:[0-9]+}/close", s.handleClose()).
		Methods("POST")
	r.HandleFunc("/proposals/{id:[0-9]+}/cancel", s.handleCancel()).
		Methods("POST")

	r.Handle("/metrics", s.metrics.handler()).
		Methods("GET")

	return s
}
