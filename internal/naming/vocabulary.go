package naming

// Family groups related color names.
type Family struct {
	Name   string   `json:"name"`
	Colors []string `json:"colors"`
}

// EyeFamilies lists the eye color vocabulary.
var EyeFamilies = []Family{
	{"brown", []string{"dark_brown", "chocolate_brown", "golden_brown", "amber", "topaz", "honey"}},
	{"green", []string{"emerald", "jade", "olive", "sage", "moss", "teal"}},
	{"blue", []string{"sapphire", "sky_blue", "steel_blue", "periwinkle", "navy"}},
	{"gray", []string{"charcoal", "silver", "slate", "pewter"}},
	{"hazel", []string{"hazel_green", "hazel_brown", "hazel_gold"}},
	{"other", []string{"black", "violet", "mixed"}},
}

// HairFamilies lists the hair color vocabulary.
var HairFamilies = []Family{
	{"black", []string{"blue_black", "soft_black", "black_brown"}},
	{"brown", []string{"espresso", "dark_chocolate", "milk_chocolate", "chestnut", "walnut",
		"caramel", "toffee", "golden_brown", "mousy_brown"}},
	{"red", []string{"auburn", "copper", "ginger", "strawberry", "burgundy", "mahogany"}},
	{"blonde", []string{"platinum", "ash_blonde", "golden_blonde", "honey_blonde",
		"champagne", "dirty_blonde", "dark_blonde"}},
	{"gray", []string{"silver", "pewter", "salt_pepper", "white", "steel_gray"}},
}

// SkinTones groups skin tone names by depth, lightest first.
var SkinTones = []Family{
	{"very_light", []string{"porcelain", "ivory", "alabaster", "fair"}},
	{"light", []string{"peaches_cream", "cream", "light_beige", "rose_beige"}},
	{"light_medium", []string{"warm_beige", "golden_beige", "nude", "sand"}},
	{"medium", []string{"honey", "caramel", "olive", "tan", "bronze"}},
	{"medium_deep", []string{"amber", "cinnamon", "toffee", "mocha"}},
	{"deep", []string{"espresso", "mahogany", "cocoa", "ebony", "onyx"}},
}

// EyeFamily returns the family an eye color name belongs to.
func EyeFamily(name string) (string, bool) {
	return familyOf(EyeFamilies, name)
}

// HairFamily returns the family a hair color name belongs to.
func HairFamily(name string) (string, bool) {
	return familyOf(HairFamilies, name)
}

// SkinToneGroup returns the depth group of a skin tone name.
func SkinToneGroup(name string) (string, bool) {
	return familyOf(SkinTones, name)
}

func familyOf(families []Family, name string) (string, bool) {
	for _, f := range families {
		for _, c := range f.Colors {
			if c == name {
				return f.Name, true
			}
		}
	}
	return "", false
}
