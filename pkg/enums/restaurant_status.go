package enums

import "fmt"

// RestaurantStatus tracks a tenant through the platform approval workflow.
type RestaurantStatus string

const (
	RestaurantStatusPending   RestaurantStatus = "pending"
	RestaurantStatusApproved  RestaurantStatus = "approved"
	RestaurantStatusSuspended RestaurantStatus = "suspended"
)

var validRestaurantStatuses = []RestaurantStatus{
	RestaurantStatusPending,
	RestaurantStatusApproved,
	RestaurantStatusSuspended,
}

func (s RestaurantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known RestaurantStatus.
func (s RestaurantStatus) IsValid() bool {
	for _, candidate := range validRestaurantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseRestaurantStatus converts raw input into a RestaurantStatus.
func ParseRestaurantStatus(value string) (RestaurantStatus, error) {
	for _, candidate := range validRestaurantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid restaurant status %q", value)
}
