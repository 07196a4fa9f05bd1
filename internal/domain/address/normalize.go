// internal/domain/address/normalize.go
package address

import "strings"

// Address is the canonical shipping address used throughout the gateway.
// The backend owns address persistence; this type only standardizes the
// shape the checkout flow works with.
type Address struct {
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	Phone      string  `json:"phone"`
	Street     string  `json:"street"`
	Landmark   string  `json:"landmark"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Latitude   float64 `json:"latitude,omitempty"`
	Longitude  float64 `json:"longitude,omitempty"`
}

// Raw mirrors the heterogeneous address shapes different backend versions
// return. Several fields are synonyms; Normalize flattens them so fallback
// chains live here at the boundary instead of scattered through handlers.
type Raw struct {
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	PhoneNumber string  `json:"phoneNumber"`
	Mobile      string  `json:"mobile"`
	Street      string  `json:"street"`
	Flat        string  `json:"flat"`
	AddressLine string  `json:"addressLine1"`
	Landmark    string  `json:"landmark"`
	City        string  `json:"city"`
	District    string  `json:"district"`
	State       string  `json:"state"`
	PostalCode  string  `json:"postalCode"`
	Pincode     string  `json:"pincode"`
	Zip         string  `json:"zip"`
	Country     string  `json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Normalize converts a raw backend address into the canonical type
func Normalize(raw Raw) Address {
	firstName := raw.FirstName
	lastName := raw.LastName
	if firstName == "" && raw.Name != "" {
		// Older payloads carry a single combined name field.
		parts := strings.SplitN(strings.TrimSpace(raw.Name), " ", 2)
		firstName = parts[0]
		if len(parts) > 1 {
			lastName = parts[1]
		}
	}

	country := raw.Country
	if country == "" {
		country = "IN"
	}

	return Address{
		FirstName:  firstName,
		LastName:   lastName,
		Phone:      firstNonEmpty(raw.Phone, raw.PhoneNumber, raw.Mobile),
		Street:     firstNonEmpty(raw.Street, raw.Flat, raw.AddressLine),
		Landmark:   raw.Landmark,
		City:       firstNonEmpty(raw.City, raw.District),
		State:      raw.State,
		PostalCode: firstNonEmpty(raw.PostalCode, raw.Pincode, raw.Zip),
		Country:    country,
		Latitude:   raw.Latitude,
		Longitude:  raw.Longitude,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
