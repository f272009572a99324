package geocoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress_PlaceNamePriority(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want string
	}{
		{"suburb wins", Address{Suburb: "Митино", Neighbourhood: "Квартал 5", City: "Москва"}, "Митино"},
		{"neighbourhood before district", Address{Neighbourhood: "Квартал 5", CityDistrict: "СЗАО"}, "Квартал 5"},
		{"district before county", Address{CityDistrict: "СЗАО", County: "Красногорский"}, "СЗАО"},
		{"county over state", Address{County: "Красногорский", State: "Московская область"}, "Красногорский"},
		{"town", Address{Town: "Дубна", State: "Московская область"}, "Дубна"},
		{"village", Address{Village: "Горки", State: "Московская область"}, "Горки"},
		{"state only", Address{State: "Московская область", Country: "Россия"}, "Московская область"},
		{"country is never a place", Address{Country: "Россия"}, ""},
		{"blank values skipped", Address{Suburb: "  ", City: "Москва"}, "Москва"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.addr.PlaceName())
		})
	}
}

func TestAddress_CityContext(t *testing.T) {
	assert.Equal(t, "Москва", Address{Suburb: "Митино", City: "Москва", Town: "Зеленоград"}.CityContext())
	assert.Equal(t, "Дубна", Address{Town: "Дубна", Village: "Горки"}.CityContext())
	assert.Equal(t, "Горки", Address{Village: "Горки"}.CityContext())
	assert.Empty(t, Address{County: "Красногорский"}.CityContext())
}

func TestAddress_IsEmpty(t *testing.T) {
	assert.True(t, Address{}.IsEmpty())
	assert.False(t, Address{Country: "Россия"}.IsEmpty())
}

func TestComposeQuery(t *testing.T) {
	assert.Equal(t, "Mitino, Moscow, Russia", ComposeQuery("Mitino", "Moscow", "Russia"))
	assert.Equal(t, "Mitino, Russia", ComposeQuery("Mitino", "Mitino", "Russia"))
	assert.Equal(t, "Mitino, Moscow", ComposeQuery("Mitino", "Moscow", ""))
	assert.Equal(t, "Mitino", ComposeQuery("Mitino", "", ""))
}

func TestCityQuery(t *testing.T) {
	assert.Equal(t, "Moscow, Russia", CityQuery("Moscow", "Russia"))
	assert.Equal(t, "Moscow", CityQuery("Moscow", ""))
}
