// service/services.go
package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/apipatb/earning-sub014/audit"
	"github.com/apipatb/earning-sub014/dao"
	"github.com/apipatb/earning-sub014/util"
)

type Services struct {
	Permission IPermissionService
	RateLimit  IRateLimitService
	Ticket     ITicketService
}

func InitializeServices(
	gdb *gorm.DB,
	counterStore CounterStore,
	storeTimeout time.Duration,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService util.ICacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
) (*Services, error) {
	grantDAO := dao.NewGrantDAO(gdb, auditService, storeTimeout)
	ticketDAO := dao.NewTicketDAO(gdb)

	rateLimitSvc := NewRateLimitService(counterStore)

	services := &Services{
		Permission: NewPermissionService(
			grantDAO,
			rateLimitSvc,
			validationUtil,
			cacheService,
			notificationSvc,
			eventBus,
			auditService,
		),
		RateLimit: rateLimitSvc,
		Ticket:    NewTicketService(ticketDAO, validationUtil),
	}

	return services, nil
}
