package domain

// ConsoleSection is a navigation entry of the fleet console.
type ConsoleSection string

const (
	SectionDrivers           ConsoleSection = "drivers"
	SectionVehicles          ConsoleSection = "vehicles"
	SectionVendors           ConsoleSection = "vendors"
	SectionBookings          ConsoleSection = "bookings"
	SectionTrips             ConsoleSection = "trips"
	SectionInvoices          ConsoleSection = "invoices"
	SectionFeedback          ConsoleSection = "feedback"
	SectionCorporateRequests ConsoleSection = "corporate-requests"
	SectionAvailability      ConsoleSection = "availability"
)

// SectionsFor lists the console sections visible to a role.
func SectionsFor(r Role) []ConsoleSection {
	switch r {
	case RoleAdmin:
		return []ConsoleSection{
			SectionDrivers, SectionVehicles, SectionVendors, SectionBookings,
			SectionTrips, SectionInvoices, SectionFeedback, SectionCorporateRequests,
		}
	case RoleVendor:
		return []ConsoleSection{SectionDrivers, SectionVehicles, SectionBookings, SectionTrips, SectionInvoices}
	case RoleDriver:
		return []ConsoleSection{SectionTrips, SectionAvailability}
	case RoleRider:
		return []ConsoleSection{SectionBookings, SectionTrips, SectionFeedback}
	default:
		return nil
	}
}
