package routegroups

import (
	"ticket-desk/api/handlers"

	"github.com/go-chi/chi/v5"
)

func RegisterTickets(apiRouter chi.Router, g Guards, tickets *handlers.TicketsHandler) {
	apiRouter.Route("/tickets", func(ticketsRouter chi.Router) {
		ticketsRouter.MethodFunc("GET", "/", g.RolePerm("tickets.view", tickets.List))
		ticketsRouter.MethodFunc("POST", "/", g.RolePerm("tickets.create", tickets.Create))
		ticketsRouter.MethodFunc("GET", "/{id:[0-9]+}", g.RolePerm("tickets.view", tickets.Get))
		ticketsRouter.MethodFunc("PUT", "/{id:[0-9]+}", g.RolePerm("tickets.update", tickets.Update))
		ticketsRouter.MethodFunc("DELETE", "/{id:[0-9]+}", g.RolePerm("tickets.delete", tickets.Delete))
		ticketsRouter.MethodFunc("POST", "/{id:[0-9]+}/admin-notes", g.RolePerm("tickets.notes.append", tickets.AppendAdminNote))
		ticketsRouter.MethodFunc("POST", "/{id:[0-9]+}/request-info", g.RolePerm("tickets.info.request", tickets.RequestInfo))
		ticketsRouter.MethodFunc("POST", "/{id:[0-9]+}/reply-info", g.RolePerm("tickets.info.reply", tickets.ReplyInfo))
	})
}

func RegisterReports(apiRouter chi.Router, g Guards, reports *handlers.ReportsHandler) {
	apiRouter.Route("/reports", func(reportsRouter chi.Router) {
		reportsRouter.MethodFunc("GET", "/tickets", g.RolePerm("reports.view", reports.Tickets))
	})
}
