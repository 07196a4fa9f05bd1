// internal/domain/address/normalize_test.go
package address

import "testing"

func TestNormalizeSynonymFields(t *testing.T) {
	t.Parallel()

	got := Normalize(Raw{
		FirstName:   "Asha",
		LastName:    "Patil",
		PhoneNumber: "9876543210",
		Flat:        "14B Rosewood",
		District:    "Pune",
		State:       "Maharashtra",
		Pincode:     "411001",
	})

	if got.FirstName != "Asha" || got.LastName != "Patil" {
		t.Errorf("unexpected name: %q %q", got.FirstName, got.LastName)
	}
	if got.Phone != "9876543210" {
		t.Errorf("expected phoneNumber fallback, got %q", got.Phone)
	}
	if got.Street != "14B Rosewood" {
		t.Errorf("expected flat fallback for street, got %q", got.Street)
	}
	if got.City != "Pune" {
		t.Errorf("expected district fallback for city, got %q", got.City)
	}
	if got.PostalCode != "411001" {
		t.Errorf("expected pincode fallback, got %q", got.PostalCode)
	}
	if got.Country != "IN" {
		t.Errorf("expected default country IN, got %q", got.Country)
	}
}

func TestNormalizeFallbackOrder(t *testing.T) {
	t.Parallel()

	got := Normalize(Raw{
		Phone:       "111",
		PhoneNumber: "222",
		Mobile:      "333",
		PostalCode:  "560001",
		Zip:         "999999",
	})

	if got.Phone != "111" {
		t.Errorf("phone must win over phoneNumber and mobile, got %q", got.Phone)
	}
	if got.PostalCode != "560001" {
		t.Errorf("postalCode must win over zip, got %q", got.PostalCode)
	}
}

func TestNormalizeSplitsCombinedName(t *testing.T) {
	t.Parallel()

	got := Normalize(Raw{Name: "  Ravi Kumar Sharma "})
	if got.FirstName != "Ravi" {
		t.Errorf("expected first name Ravi, got %q", got.FirstName)
	}
	if got.LastName != "Kumar Sharma" {
		t.Errorf("expected remainder as last name, got %q", got.LastName)
	}

	single := Normalize(Raw{Name: "Ravi"})
	if single.FirstName != "Ravi" || single.LastName != "" {
		t.Errorf("single-word name must map to first name only, got %q %q", single.FirstName, single.LastName)
	}
}

func TestNormalizeKeepsExplicitNameOverCombined(t *testing.T) {
	t.Parallel()

	got := Normalize(Raw{FirstName: "Asha", Name: "Ravi Kumar"})
	if got.FirstName != "Asha" {
		t.Errorf("explicit firstName must win, got %q", got.FirstName)
	}
}

func TestNormalizePreservesCoordinates(t *testing.T) {
	t.Parallel()

	got := Normalize(Raw{Latitude: 18.52, Longitude: 73.85, Country: "US"})
	if got.Latitude != 18.52 || got.Longitude != 73.85 {
		t.Errorf("coordinates must pass through, got %v %v", got.Latitude, got.Longitude)
	}
	if got.Country != "US" {
		t.Errorf("explicit country must not be overridden, got %q", got.Country)
	}
}
