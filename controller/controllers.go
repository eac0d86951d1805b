// controller/controllers.go
package controller

import "github.com/apipatb/earning-sub014/service"

type Controllers struct {
	Grant  *GrantController
	Ticket *TicketController
}

func InitializeControllers(services *service.Services) *Controllers {
	return &Controllers{
		Grant:  NewGrantController(services.Permission, services.RateLimit),
		Ticket: NewTicketController(services.Ticket, services.Permission, services.RateLimit),
	}
}
