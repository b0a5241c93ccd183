package chore

import (
	"strings"

	"github.com/dukerupert/choreshare/internal/model"
)

// Categorize guesses the category of a chore from its name.
// It performs case-insensitive matching: exact match first, then substring match.
// Falls back to CategoryOther if no match is found.
func Categorize(choreName string) model.ChoreCategory {
	name := strings.ToLower(strings.TrimSpace(choreName))
	if name == "" {
		return model.CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	// Ordered so that a room named in the chore wins over a fixture that
	// appears in several rooms ("bathroom sink" before "sink").
	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return model.CategoryOther
}

var exactMatch = map[string]model.ChoreCategory{
	"dishes":      model.CategoryKitchen,
	"dishwasher":  model.CategoryKitchen,
	"cooking":     model.CategoryKitchen,
	"groceries":   model.CategoryKitchen,
	"trash":       model.CategoryTrash,
	"garbage":     model.CategoryTrash,
	"recycling":   model.CategoryTrash,
	"compost":     model.CategoryTrash,
	"bins":        model.CategoryTrash,
	"lawn":        model.CategoryOutdoor,
	"yard":        model.CategoryOutdoor,
	"gardening":   model.CategoryOutdoor,
	"weeding":     model.CategoryOutdoor,
	"bathroom":    model.CategoryBathroom,
	"toilet":      model.CategoryBathroom,
	"shower":      model.CategoryBathroom,
	"vacuum":      model.CategoryLivingRoom,
	"vacuuming":   model.CategoryLivingRoom,
	"dusting":     model.CategoryLivingRoom,
	"bedding":     model.CategoryBedroom,
	"sheets":      model.CategoryBedroom,
	"change beds": model.CategoryBedroom,
}

type substringEntry struct {
	keyword  string
	category model.ChoreCategory
}

var substringMatches = []substringEntry{
	// Rooms
	{"kitchen", model.CategoryKitchen},
	{"bathroom", model.CategoryBathroom},
	{"living room", model.CategoryLivingRoom},
	{"lounge", model.CategoryLivingRoom},
	{"bedroom", model.CategoryBedroom},
	{"garden", model.CategoryOutdoor},
	{"garage", model.CategoryOutdoor},
	{"balcony", model.CategoryOutdoor},
	{"patio", model.CategoryOutdoor},

	// Trash
	{"trash", model.CategoryTrash},
	{"garbage", model.CategoryTrash},
	{"rubbish", model.CategoryTrash},
	{"recycl", model.CategoryTrash},
	{"compost", model.CategoryTrash},
	{"bin", model.CategoryTrash},

	// Bathroom fixtures
	{"toilet", model.CategoryBathroom},
	{"shower", model.CategoryBathroom},
	{"bathtub", model.CategoryBathroom},
	{"mirror", model.CategoryBathroom},

	// Kitchen
	{"dish", model.CategoryKitchen},
	{"fridge", model.CategoryKitchen},
	{"oven", model.CategoryKitchen},
	{"stove", model.CategoryKitchen},
	{"microwave", model.CategoryKitchen},
	{"counter", model.CategoryKitchen},
	{"cook", model.CategoryKitchen},
	{"sink", model.CategoryKitchen},

	// Outdoor
	{"lawn", model.CategoryOutdoor},
	{"mow", model.CategoryOutdoor},
	{"yard", model.CategoryOutdoor},
	{"leaves", model.CategoryOutdoor},
	{"snow", model.CategoryOutdoor},
	{"plants", model.CategoryOutdoor},

	// Bedroom
	{"bed", model.CategoryBedroom},
	{"sheet", model.CategoryBedroom},
	{"laundry", model.CategoryBedroom},

	// Living areas
	{"vacuum", model.CategoryLivingRoom},
	{"dust", model.CategoryLivingRoom},
	{"couch", model.CategoryLivingRoom},
	{"sofa", model.CategoryLivingRoom},
	{"floor", model.CategoryLivingRoom},
	{"mop", model.CategoryLivingRoom},
}
