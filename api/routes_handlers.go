package api

import "ticket-desk/api/handlers"

type routeHandlers struct {
	tickets *handlers.TicketsHandler
	reports *handlers.ReportsHandler
}

func (s *Server) newRouteHandlers() routeHandlers {
	return routeHandlers{
		tickets: handlers.NewTicketsHandler(s.tickets, s.logger),
		reports: handlers.NewReportsHandler(s.tickets, s.logger),
	}
}
