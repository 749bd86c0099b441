// Package trigger decides which content mutations require a site rebuild
// and coalesces them into a single request per transaction.
package trigger

import "context"

// Entity is the snake_case name of a content table's record type.
type Entity string

const (
	EntityNotice           Entity = "notice"
	EntityActivityPost     Entity = "activity_post"
	EntityNewsletter       Entity = "newsletter"
	EntitySiteInfo         Entity = "site_info"
	EntityBusinessArea     Entity = "business_area"
	EntityVolunteerArea    Entity = "volunteer_area"
	EntityDonationArea     Entity = "donation_area"
	EntityDonationUsage    Entity = "donation_usage"
	EntityHistorySection   Entity = "history_section"
	EntityHistoryItem      Entity = "history_item"
	EntityActivityPhoto    Entity = "activity_photo"
	EntityActivityCategory Entity = "activity_category"
	EntityBusStop          Entity = "bus_stop"
	EntityBusRoute         Entity = "bus_route"
	EntityOperatingHours   Entity = "operating_hours"
	EntityOfficeInfo       Entity = "office_info"
)

// Operation is the kind of mutation applied to an entity.
type Operation string

const (
	OperationCreated Operation = "created"
	OperationUpdated Operation = "updated"
	OperationDeleted Operation = "deleted"
)

var buildable = map[Entity]struct{}{
	EntityNotice:           {},
	EntityActivityPost:     {},
	EntityNewsletter:       {},
	EntitySiteInfo:         {},
	EntityBusinessArea:     {},
	EntityVolunteerArea:    {},
	EntityDonationArea:     {},
	EntityDonationUsage:    {},
	EntityHistorySection:   {},
	EntityHistoryItem:      {},
	EntityActivityPhoto:    {},
	EntityActivityCategory: {},
	EntityBusStop:          {},
	EntityBusRoute:         {},
	EntityOperatingHours:   {},
	EntityOfficeInfo:       {},
}

// Classify reports whether a mutation of entity is build-relevant.
// Only the three known operations on allowlisted entities are.
func Classify(entity Entity, operation Operation) bool {
	switch operation {
	case OperationCreated, OperationUpdated, OperationDeleted:
	default:
		return false
	}
	_, ok := buildable[entity]
	return ok
}

// Label returns the diagnostic cause label, e.g. "notice_created".
func Label(entity Entity, operation Operation) string {
	return string(entity) + "_" + string(operation)
}

// Launcher starts a build unless one is already running.
// It returns false without side effects when the mutex is held.
type Launcher interface {
	TriggerBuild(ctx context.Context, triggeredBy string) (bool, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(ctx context.Context, triggeredBy string) (bool, error)

func (f LauncherFunc) TriggerBuild(ctx context.Context, triggeredBy string) (bool, error) {
	return f(ctx, triggeredBy)
}
