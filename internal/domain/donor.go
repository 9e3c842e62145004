package domain

import "time"

// Donor is a user registered as a blood donor.
type Donor struct {
	ID               string     `json:"_id"`
	UserID           string     `json:"userId"`
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	BloodGroup       string     `json:"bloodGroup"`
	City             string     `json:"city"`
	Village          string     `json:"village"`
	Available        bool       `json:"available"`
	LastDonationDate *time.Time `json:"lastDonationDate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// DonorFilter narrows the donor search.
type DonorFilter struct {
	BloodGroup string
	Name       string
	Location   string
}

var bloodGroups = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {},
	"AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

// ValidBloodGroup reports whether g is an ABO/Rh group such as "O+".
func ValidBloodGroup(g string) bool {
	_, ok := bloodGroups[g]
	return ok
}
